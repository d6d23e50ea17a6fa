// Package resolver implements the per-query resolution state machine: it
// maps one decoded question onto the zone store and produces a terminal
// response with the correct response code. No state survives a query.
package resolver

import (
	"context"
	"net"

	"github.com/leafdns/leafdns/internal/dns/common/dnsname"
	"github.com/leafdns/leafdns/internal/dns/common/log"
	"github.com/leafdns/leafdns/internal/dns/domain"
)

// DefaultMaxChainDepth bounds CNAME chains. Eight hops is far beyond any
// legitimate zone layout while keeping hostile chains cheap to reject.
const DefaultMaxChainDepth = 8

// rcodeTable is the terminal response-code decision table: what the zone
// knows about an owner name, crossed with whether records of the requested
// type exist there. Keeping it as data makes the resolver's policy auditable
// against its tests.
type outcome struct {
	nameExists bool
	hasData    bool
}

var rcodeTable = map[outcome]domain.RCode{
	{nameExists: false, hasData: false}: domain.RCodeNameError,
	{nameExists: true, hasData: false}:  domain.RCodeNoError,
	{nameExists: true, hasData: true}:   domain.RCodeNoError,
}

// Resolver answers DNS questions from an immutable zone store.
type Resolver struct {
	zones         ZoneStore
	cache         Cache
	logger        log.Logger
	maxChainDepth int
}

// Options configures a Resolver. Cache may be nil to disable answer caching.
type Options struct {
	ZoneStore     ZoneStore
	Cache         Cache
	Logger        log.Logger
	MaxChainDepth int
}

// New constructs a Resolver.
func New(opts Options) *Resolver {
	depth := opts.MaxChainDepth
	if depth <= 0 {
		depth = DefaultMaxChainDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Resolver{
		zones:         opts.ZoneStore,
		cache:         opts.Cache,
		logger:        logger,
		maxChainDepth: depth,
	}
}

// HandleRequest processes one decoded query and returns the response to
// send. The second result is false when the message must be dropped without
// replying: responses are never answered, to keep the server out of
// reflection loops.
func (r *Resolver) HandleRequest(ctx context.Context, msg domain.Message, clientAddr net.Addr) (domain.Message, bool) {
	if msg.Header.Response {
		r.logger.Debug(map[string]any{
			"id":     msg.Header.ID,
			"client": addrString(clientAddr),
		}, "Dropping message with QR bit set")
		return domain.Message{}, false
	}

	resp := msg.Reply()

	if msg.Header.OpCode != domain.OpCodeQuery {
		resp.Header.RCode = domain.RCodeNotImplemented
		return resp, true
	}
	if len(msg.Questions) == 0 {
		resp.Header.RCode = domain.RCodeFormatError
		return resp, true
	}

	// Only the first question is answered, per common authoritative-server
	// convention; the full question section is still echoed.
	q := msg.Questions[0]
	if q.Class != domain.RRClassIN {
		resp.Header.RCode = domain.RCodeFormatError
		return resp, true
	}
	name := dnsname.Canonical(q.Name)
	if name == "" {
		resp.Header.RCode = domain.RCodeFormatError
		return resp, true
	}

	answer := r.resolveCached(name, q.Type, q.Class)

	resp.Header.RCode = answer.RCode
	resp.Answers = answer.Records
	// The server is the source of truth for every name it answers about,
	// including NXDOMAIN; only internal failures are non-authoritative.
	resp.Header.Authoritative = answer.RCode != domain.RCodeServerFailure

	r.logger.Debug(map[string]any{
		"id":      msg.Header.ID,
		"client":  addrString(clientAddr),
		"name":    name,
		"type":    q.Type.String(),
		"rcode":   answer.RCode.String(),
		"answers": len(answer.Records),
	}, "Resolved query")

	return resp, true
}

// resolveCached consults the answer cache around resolve.
func (r *Resolver) resolveCached(name string, qtype domain.RRType, qclass domain.RRClass) Answer {
	key := domain.LookupKey(name, qtype, qclass)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			return cached
		}
	}
	answer := r.resolve(name, qtype)
	if r.cache != nil && answer.RCode != domain.RCodeServerFailure {
		r.cache.Put(key, answer)
	}
	return answer
}

// resolve walks the zone store for one owner name, following CNAME
// indirections up to maxChainDepth with a visited-set loop guard.
func (r *Resolver) resolve(name string, qtype domain.RRType) Answer {
	var answers []domain.ResourceRecord
	visited := make(map[string]struct{})

	for depth := 0; ; depth++ {
		if depth > r.maxChainDepth {
			r.logger.Warn(map[string]any{
				"name":  name,
				"depth": depth,
			}, "CNAME chain depth exceeded")
			return Answer{RCode: domain.RCodeServerFailure}
		}
		if _, seen := visited[name]; seen {
			r.logger.Warn(map[string]any{"name": name}, "CNAME loop detected")
			return Answer{RCode: domain.RCodeServerFailure}
		}
		visited[name] = struct{}{}

		nameExists := r.zones.ContainsName(name)
		if !nameExists {
			if len(answers) > 0 {
				// The chain left our zones; return the hops we own.
				return Answer{Records: answers, RCode: domain.RCodeNoError}
			}
			return Answer{RCode: rcodeTable[outcome{}]}
		}

		// A CNAME at the queried name takes precedence over the queried
		// type, unless the client asked for the CNAME itself.
		if qtype != domain.RRTypeCNAME {
			if aliases := r.zones.Lookup(name, domain.RRTypeCNAME); len(aliases) > 0 {
				alias := aliases[0]
				target := dnsname.Canonical(alias.Text)
				if target == "" {
					r.logger.Error(map[string]any{
						"name": name,
					}, "CNAME record without target in zone data")
					return Answer{RCode: domain.RCodeServerFailure}
				}
				answers = append(answers, alias)
				name = target
				continue
			}
		}

		records := r.zones.Lookup(name, qtype)
		answers = append(answers, records...)
		return Answer{
			Records: answers,
			RCode:   rcodeTable[outcome{nameExists: true, hasData: len(records) > 0}],
		}
	}
}

// addrString formats a client address that may be nil (tests).
func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}

var _ Responder = (*Resolver)(nil)
