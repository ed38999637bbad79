package alias

import (
	"fmt"
	"strings"

	"github.com/xecsuite/libxecpay-go/tx"
)

// recordPrefix identifies OpenAlias records for this chain.
const recordPrefix = "oa1:xec"

// Info is a resolved alias.
type Info struct {
	// Name is the alias that was resolved, e.g. "donate.example.org".
	Name string

	// Address is the recipient_address from the record.
	Address string

	// RecipientName is the optional recipient_name from the record.
	RecipientName string

	// Validated reports whether the DNS answer was DNSSEC-authenticated.
	Validated bool
}

// String renders the resolved form shown in a recipient field,
// "name <address>".
func (i *Info) String() string {
	return fmt.Sprintf("%s <%s>", i.Name, i.Address)
}

// IsAlias reports whether s plausibly names an OpenAlias target: it must
// contain a dot and no whitespace or angle brackets, and must not already be
// a valid address.
func IsAlias(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, ".") {
		return false
	}
	if strings.ContainsAny(s, " \t<>") {
		return false
	}
	return !tx.IsValidAddress(s)
}

// Resolver resolves alias names against a TXTResolver.
type Resolver struct {
	dns TXTResolver
}

// NewResolver creates a Resolver. A nil txtResolver gets the production
// DNSSEC resolver with the default upstream.
func NewResolver(txtResolver TXTResolver) *Resolver {
	if txtResolver == nil {
		txtResolver = NewDNSSECResolver("")
	}
	return &Resolver{dns: txtResolver}
}

// Resolve looks up name and returns the first oa1:xec record found.
func (r *Resolver) Resolve(name string) (*Info, error) {
	name = strings.TrimSpace(name)
	if !IsAlias(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotAlias, name)
	}

	records, validated, err := r.dns.LookupTXT(name)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		record = strings.TrimSpace(record)
		if !strings.HasPrefix(record, recordPrefix) {
			continue
		}
		info, err := parseRecord(record)
		if err != nil {
			return nil, err
		}
		info.Name = name
		info.Validated = validated
		return info, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoRecord, name)
}

// parseRecord decodes "oa1:xec recipient_address=...; recipient_name=...;".
func parseRecord(record string) (*Info, error) {
	body := strings.TrimSpace(strings.TrimPrefix(record, recordPrefix))
	info := &Info{}
	for _, field := range strings.Split(body, ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "recipient_address":
			info.Address = value
		case "recipient_name":
			info.RecipientName = value
		}
	}
	if info.Address == "" {
		return nil, fmt.Errorf("%w: missing recipient_address", ErrInvalidRecord)
	}
	if !tx.IsValidAddress(info.Address) {
		return nil, fmt.Errorf("%w: recipient_address %q", ErrInvalidRecord, info.Address)
	}
	return info, nil
}
