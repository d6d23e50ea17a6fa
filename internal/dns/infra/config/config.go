// Package config loads server configuration from the environment. All
// settings carry defaults, are overridable via LEAFDNS_-prefixed variables,
// and are validated before the server starts.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the network port the DNS server binds, for both UDP and TCP.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	// ZoneDir is the directory holding the authoritative zone files.
	ZoneDir string `koanf:"zone_dir" validate:"required"`

	// EnableTCP turns the TCP listener on alongside UDP.
	EnableTCP bool `koanf:"enable_tcp"`

	// UDPPayloadSize caps UDP responses in octets. The RFC 1035 floor of 512
	// is also the minimum accepted here.
	UDPPayloadSize int `koanf:"udp_payload_size" validate:"gte=512,lte=65535"`

	// TCPIdleSeconds closes TCP connections idle for this many seconds.
	TCPIdleSeconds int `koanf:"tcp_idle_seconds" validate:"gte=1,lte=3600"`

	// CacheSize bounds the resolved-answer LRU cache. Zero disables it.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// MaxCNAMEDepth bounds alias chain following per query.
	MaxCNAMEDepth int `koanf:"max_cname_depth" validate:"gte=1,lte=32"`
}

// envLoader loads environment variables prefixed "LEAFDNS_", lowercasing
// keys and stripping the prefix. It is a variable so tests can replace it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "LEAFDNS_",
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, "LEAFDNS_")), value
		},
	}), nil)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	// Load default values using structs provider.
	k.Load(structs.Provider(AppConfig{
		Env:            "prod",
		LogLevel:       "info",
		Port:           53,
		ZoneDir:        "/etc/leafdns/zones",
		EnableTCP:      true,
		UDPPayloadSize: 512,
		TCPIdleSeconds: 30,
		CacheSize:      1024,
		MaxCNAMEDepth:  8,
	}, "koanf"), nil)

	err := envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
