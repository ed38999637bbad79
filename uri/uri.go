package uri

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/xecsuite/libxecpay-go/amount"
	"github.com/xecsuite/libxecpay-go/tx"
)

// Scheme is the URI scheme for payment links.
const Scheme = "ecash"

// knownParams are the query keys this package interprets. Anything else is
// collected into ParseResult.Unknown with a warning.
var knownParams = map[string]bool{
	"amount":        true,
	"label":         true,
	"message":       true,
	"op_return":     true,
	"op_return_raw": true,
	"r":             true,
	"sig":           true,
	"name":          true,
	"addresses":     true,
	"amounts":       true,
}

// ParseResult is the decoded form of a payment URI.
type ParseResult struct {
	// Address is the single recipient, empty for pay-to-many URIs.
	Address string

	// Amount is the requested value in satoshis; valid when HasAmount.
	Amount    int64
	HasAmount bool

	Label   string
	Message string

	// OPReturn carries the op_return parameter (UTF-8 payload mode).
	OPReturn    string
	HasOPReturn bool

	// OPReturnRaw carries the op_return_raw parameter (hex script mode).
	// A present-but-blank parameter is normalized to the "empty" marker.
	OPReturnRaw    string
	HasOPReturnRaw bool

	// PaymentRequestURL is the r= parameter of a BIP70-style URI.
	PaymentRequestURL string

	// Sig and Name carry signed-URI metadata.
	Sig  string
	Name string

	// Addresses and Amounts are the pay-to-many form. They always have
	// equal length.
	Addresses []string
	Amounts   []int64

	// Unknown holds unrecognized parameters, reported but not fatal.
	Unknown map[string]string

	// Warnings lists non-fatal parse findings, one per unknown parameter.
	Warnings []string
}

// HasScheme reports whether s starts with the payment URI scheme. The
// comparison is case-insensitive, matching Parse.
func HasScheme(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) > len(Scheme) &&
		s[len(Scheme)] == ':' &&
		strings.EqualFold(s[:len(Scheme)], Scheme)
}

// Parse decodes a payment URI. A bare address with no scheme parses as an
// address-only result. Amounts are scaled to satoshis using decimalPoint.
// Unknown parameters produce warnings on the result rather than errors.
func Parse(raw string, decimalPoint int) (*ParseResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty string", ErrNotURI)
	}

	if !strings.Contains(raw, ":") {
		if !tx.IsValidAddress(raw) {
			return nil, fmt.Errorf("%w: %q", ErrNotURI, raw)
		}
		return &ParseResult{Address: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return nil, fmt.Errorf("%w: %q", ErrWrongScheme, u.Scheme)
	}

	// ecash: URIs are opaque, the address sits before the query.
	addrPart := u.Opaque
	if addrPart == "" {
		addrPart = u.Path
	}

	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	for key, vals := range values {
		if len(vals) > 1 {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
	}

	// An r= only URI may omit the address entirely.
	if addrPart != "" && !tx.IsValidAddress(addrPart) {
		return nil, fmt.Errorf("%w: address %q", ErrBadParameter, addrPart)
	}

	res := &ParseResult{Address: addrPart}

	if v, ok := single(values, "amount"); ok {
		sats, err := amount.Parse(v, decimalPoint)
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q: %w", ErrBadParameter, v, err)
		}
		res.Amount = sats
		res.HasAmount = true
	}
	if v, ok := single(values, "label"); ok {
		res.Label = v
	}
	if v, ok := single(values, "message"); ok {
		res.Message = v
	}
	if v, ok := single(values, "op_return"); ok {
		res.OPReturn = v
		res.HasOPReturn = true
	}
	if v, ok := single(values, "op_return_raw"); ok {
		if v == "" {
			v = tx.RawHexEmptyMarker
		}
		res.OPReturnRaw = v
		res.HasOPReturnRaw = true
	}
	if v, ok := single(values, "r"); ok {
		res.PaymentRequestURL = v
	}
	if v, ok := single(values, "sig"); ok {
		res.Sig = v
	}
	if v, ok := single(values, "name"); ok {
		res.Name = v
	}

	if err := parseMany(values, decimalPoint, res); err != nil {
		return nil, err
	}

	var unknown []string
	for key := range values {
		if !knownParams[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		res.Unknown = make(map[string]string, len(unknown))
		for _, key := range unknown {
			res.Unknown[key] = values.Get(key)
			res.Warnings = append(res.Warnings, fmt.Sprintf("ignoring unknown parameter %q", key))
		}
	}
	return res, nil
}

// parseMany decodes the addresses= and amounts= pay-to-many form.
func parseMany(values url.Values, decimalPoint int, res *ParseResult) error {
	addrsRaw, haveAddrs := single(values, "addresses")
	amountsRaw, haveAmounts := single(values, "amounts")
	if !haveAddrs && !haveAmounts {
		return nil
	}
	if haveAddrs != haveAmounts {
		return fmt.Errorf("%w: have addresses=%t amounts=%t", ErrCountMismatch, haveAddrs, haveAmounts)
	}

	addrs := splitNonEmpty(addrsRaw)
	amountTokens := splitNonEmpty(amountsRaw)
	if len(addrs) != len(amountTokens) {
		return fmt.Errorf("%w: %d addresses, %d amounts", ErrCountMismatch, len(addrs), len(amountTokens))
	}
	for _, a := range addrs {
		if !tx.IsValidAddress(a) {
			return fmt.Errorf("%w: address %q", ErrBadParameter, a)
		}
	}
	sats := make([]int64, len(amountTokens))
	for i, tok := range amountTokens {
		v, err := amount.Parse(tok, decimalPoint)
		if err != nil {
			return fmt.Errorf("%w: amounts[%d] %q: %w", ErrBadParameter, i, tok, err)
		}
		sats[i] = v
	}
	res.Addresses = addrs
	res.Amounts = sats
	return nil
}

// BuildParams carries the pieces of a payment URI to encode.
type BuildParams struct {
	Address      string
	Amount       int64 // satoshis; emitted when HasAmount
	HasAmount    bool
	Label        string
	Message      string
	OPReturn     string
	OPReturnRaw  string
	DecimalPoint int
}

// Build encodes a payment URI. An empty parameter set yields just
// "ecash:<address>".
func Build(p *BuildParams) (string, error) {
	if p == nil || p.Address == "" {
		return "", fmt.Errorf("%w: address required", ErrBadParameter)
	}

	q := url.Values{}
	if p.HasAmount {
		q.Set("amount", amount.FormatTrimmed(p.Amount, p.DecimalPoint))
	}
	if p.Label != "" {
		q.Set("label", p.Label)
	}
	if p.Message != "" {
		q.Set("message", p.Message)
	}
	if p.OPReturn != "" {
		q.Set("op_return", p.OPReturn)
	}
	if p.OPReturnRaw != "" {
		q.Set("op_return_raw", p.OPReturnRaw)
	}

	out := Scheme + ":" + p.Address
	if encoded := q.Encode(); encoded != "" {
		out += "?" + encoded
	}
	return out, nil
}

func single(values url.Values, key string) (string, bool) {
	if _, ok := values[key]; !ok {
		return "", false
	}
	return values.Get(key), true
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
