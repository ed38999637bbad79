package payto

import (
	"fmt"
	"strings"
)

// Guards screens destination addresses for formats that are valid base58
// but likely not what the user meant on this chain.
type Guards struct {
	// AllowLegacyP2SH permits "3"-prefixed script-hash addresses. Most
	// such addresses pasted into an XEC wallet belong to another chain.
	AllowLegacyP2SH bool

	// WarnLegacyAddress emits a warning for legacy base58 addresses when
	// the wallet otherwise displays the modern encoding.
	WarnLegacyAddress bool
}

// Check screens one address. It returns non-fatal warnings and an error for
// formats that are refused outright.
func (g *Guards) Check(addr string) ([]string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, nil
	}

	// Bech32 addresses belong to segwit chains and can never be paid here.
	lower := strings.ToLower(addr)
	if strings.HasPrefix(lower, "bc1") || strings.HasPrefix(lower, "tb1") {
		return nil, fmt.Errorf("%w: %q is a segwit address from another chain", ErrBadLine, addr)
	}

	var warnings []string
	if strings.HasPrefix(addr, "3") {
		if !g.AllowLegacyP2SH {
			return nil, fmt.Errorf("%w: %q is a script-hash address, likely from another chain", ErrBadLine, addr)
		}
		warnings = append(warnings, fmt.Sprintf("%q is a script-hash address; confirm it belongs to this chain", addr))
	}
	if g.WarnLegacyAddress && strings.HasPrefix(addr, "1") {
		warnings = append(warnings, fmt.Sprintf("%q uses the legacy address format", addr))
	}
	return warnings, nil
}

// CheckAll screens every address recipient of a parse result.
func (g *Guards) CheckAll(res *Result) ([]string, error) {
	var warnings []string
	for _, rcpt := range res.Recipients {
		if rcpt.Address == "" {
			continue
		}
		w, err := g.Check(rcpt.Address)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, w...)
	}
	return warnings, nil
}
