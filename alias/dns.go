package alias

import (
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// defaultUpstream is the default recursive resolver for alias queries.
	defaultUpstream = "8.8.8.8:53"

	// queryTimeout bounds each DNS exchange. Alias resolution runs on every
	// recipient-field edit, so lookups must fail fast.
	queryTimeout = 5 * time.Second

	// edns0BufSize is the EDNS0 UDP buffer size.
	edns0BufSize = 4096
)

// TXTResolver looks up TXT records and reports whether the answer was
// DNSSEC-validated. Tests substitute a fake.
type TXTResolver interface {
	// LookupTXT returns the TXT strings for name and whether the upstream
	// resolver set the AD (Authenticated Data) flag on the response.
	LookupTXT(name string) (records []string, validated bool, err error)
}

// DNSSECResolver is the production TXTResolver. It sends queries with the
// DNSSEC OK flag and reads the AD flag off the response; validation itself
// is delegated to the upstream recursive resolver.
type DNSSECResolver struct {
	// Upstream is the recursive resolver address (e.g. "8.8.8.8:53").
	Upstream string
}

// NewDNSSECResolver creates a DNSSECResolver. An empty upstream defaults to
// "8.8.8.8:53".
func NewDNSSECResolver(upstream string) *DNSSECResolver {
	if upstream == "" {
		upstream = defaultUpstream
	}
	return &DNSSECResolver{Upstream: upstream}
}

// LookupTXT looks up TXT records for name. Unlike a strict DNSSEC client it
// does not fail on an unvalidated answer; the caller decides how much to
// trust an alias that did not validate.
func (r *DNSSECResolver) LookupTXT(name string) ([]string, bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true
	msg.SetEdns0(edns0BufSize, true) // DO (DNSSEC OK) flag

	client := &dns.Client{Timeout: queryTimeout}
	resp, _, err := client.Exchange(msg, r.Upstream)
	if err != nil {
		return nil, false, fmt.Errorf("%w: query %s TXT: %w", ErrLookupFailed, name, err)
	}

	if resp.Rcode == dns.RcodeNameError {
		return nil, false, fmt.Errorf("%w: %s", ErrNoRecord, name)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, false, fmt.Errorf("%w: query %s TXT: rcode %s",
			ErrLookupFailed, name, dns.RcodeToString[resp.Rcode])
	}

	var txts []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			// TXT records may be split into multiple strings; join them.
			txts = append(txts, strings.Join(txt.Txt, ""))
		}
	}
	return txts, resp.AuthenticatedData, nil
}
