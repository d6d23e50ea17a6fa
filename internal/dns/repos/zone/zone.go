// Package zone loads zone definition files and converts them into
// authoritative records. YAML, JSON, and TOML files are supported, chosen by
// file extension. Malformed input fails the load with a descriptive error;
// nothing partial ever reaches the zone store.
package zone

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/leafdns/leafdns/internal/dns/common/dnsname"
	"github.com/leafdns/leafdns/internal/dns/common/rrdata"
	"github.com/leafdns/leafdns/internal/dns/domain"
)

// LoadDirectory walks dir, loading every supported zone file and merging the
// results into a map of zone apex to records. Files with other extensions
// are skipped. Returns an error if any file fails to parse or validate.
func LoadDirectory(dir string, defaultTTL time.Duration) (map[string][]domain.ResourceRecord, error) {
	zones := make(map[string][]domain.ResourceRecord)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		fileZones, err := LoadFile(path, defaultTTL)
		if err != nil {
			return fmt.Errorf("zone file %s: %w", path, err)
		}
		for apex, records := range fileZones {
			zones[apex] = append(zones[apex], records...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return zones, nil
}

// LoadFile parses a single zone file. The file holds a top-level mapping of
// zone apex to zone body; each body has an optional default ttl and a
// records list.
func LoadFile(path string, defaultTTL time.Duration) (map[string][]domain.ResourceRecord, error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	default:
		return nil, nil // not a zone file
	}

	// Apex keys contain dots, so the path delimiter must be something a
	// DNS name cannot contain.
	k := koanf.New("|")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load: %w", err)
	}

	zones := make(map[string][]domain.ResourceRecord)
	for apexKey, raw := range k.Raw() {
		body, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("zone %q: expected a mapping", apexKey)
		}
		apex := dnsname.Canonical(apexKey)
		if err := dnsname.Validate(apex); err != nil {
			return nil, fmt.Errorf("zone %q: %w", apexKey, err)
		}
		records, err := parseZone(apex, body, defaultTTL)
		if err != nil {
			return nil, fmt.Errorf("zone %s: %w", apex, err)
		}
		zones[apex] = append(zones[apex], records...)
	}
	return zones, nil
}

// parseZone converts one zone body into records.
func parseZone(apex string, body map[string]any, defaultTTL time.Duration) ([]domain.ResourceRecord, error) {
	zoneTTL := uint32(defaultTTL.Seconds())
	if raw, ok := body["ttl"]; ok {
		ttl, err := toUint32(raw)
		if err != nil {
			return nil, fmt.Errorf("ttl: %w", err)
		}
		zoneTTL = ttl
	}

	rawRecords, ok := body["records"].([]any)
	if !ok {
		return nil, fmt.Errorf("missing records list")
	}

	var records []domain.ResourceRecord
	for i, raw := range rawRecords {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d: expected a mapping", i)
		}
		rr, err := parseRecord(apex, entry, zoneTTL)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rr)
	}
	return records, nil
}

// parseRecord converts one record entry. The owner name is relative to the
// apex; "" and "@" mean the apex itself, and an absolute name is accepted
// as long as it stays under the apex.
func parseRecord(apex string, entry map[string]any, zoneTTL uint32) (domain.ResourceRecord, error) {
	typeName, _ := entry["type"].(string)
	rrType := domain.RRTypeFromString(strings.ToUpper(strings.TrimSpace(typeName)))
	if rrType == 0 {
		return domain.ResourceRecord{}, fmt.Errorf("unknown record type %q", typeName)
	}

	owner := expandOwner(stringField(entry, "name"), apex)

	ttl := zoneTTL
	if raw, ok := entry["ttl"]; ok {
		v, err := toUint32(raw)
		if err != nil {
			return domain.ResourceRecord{}, fmt.Errorf("ttl: %w", err)
		}
		ttl = v
	}

	text, err := presentationValue(rrType, entry)
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	data, err := rrdata.Encode(rrType, text)
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	return domain.NewResourceRecord(owner, rrType, domain.RRClassIN, ttl, data, text)
}

// presentationValue assembles the type's presentation text from the record
// entry's data fields.
func presentationValue(rrType domain.RRType, entry map[string]any) (string, error) {
	switch rrType {
	case domain.RRTypeA, domain.RRTypeAAAA:
		return requiredField(entry, "address")
	case domain.RRTypeCNAME, domain.RRTypeNS, domain.RRTypePTR:
		return requiredField(entry, "target")
	case domain.RRTypeMX:
		target, err := requiredField(entry, "target")
		if err != nil {
			return "", err
		}
		priority, err := toUint32(entry["priority"])
		if err != nil {
			return "", fmt.Errorf("priority: %w", err)
		}
		return fmt.Sprintf("%d %s", priority, target), nil
	case domain.RRTypeTXT:
		return requiredField(entry, "text")
	case domain.RRTypeSRV:
		target, err := requiredField(entry, "target")
		if err != nil {
			return "", err
		}
		var fields [3]uint32
		for i, key := range []string{"priority", "weight", "port"} {
			v, err := toUint32(entry[key])
			if err != nil {
				return "", fmt.Errorf("%s: %w", key, err)
			}
			fields[i] = v
		}
		return fmt.Sprintf("%d %d %d %s", fields[0], fields[1], fields[2], target), nil
	default:
		return "", fmt.Errorf("record type %s not loadable from zone files", rrType)
	}
}

// expandOwner resolves a relative owner name against the zone apex.
func expandOwner(name, apex string) string {
	name = dnsname.Canonical(name)
	if name == "" || name == "@" {
		return apex
	}
	if dnsname.InZone(name, apex) {
		return name
	}
	return name + "." + apex
}

// stringField returns a string-typed field or "".
func stringField(entry map[string]any, key string) string {
	s, _ := entry[key].(string)
	return s
}

// requiredField returns a non-empty string-typed field or an error naming it.
func requiredField(entry map[string]any, key string) (string, error) {
	s := strings.TrimSpace(stringField(entry, key))
	if s == "" {
		return "", fmt.Errorf("missing %q field", key)
	}
	return s, nil
}

// toUint32 accepts the numeric types the file parsers may produce.
func toUint32(raw any) (uint32, error) {
	switch v := raw.(type) {
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		return uint32(v), nil
	case int64:
		if v < 0 || v > int64(^uint32(0)) {
			return 0, fmt.Errorf("value %d out of range", v)
		}
		return uint32(v), nil
	case uint64:
		if v > uint64(^uint32(0)) {
			return 0, fmt.Errorf("value %d out of range", v)
		}
		return uint32(v), nil
	case float64:
		if v < 0 || v != float64(uint32(v)) {
			return 0, fmt.Errorf("value %v is not a 32-bit unsigned integer", v)
		}
		return uint32(v), nil
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unexpected type %T", raw)
	}
}
