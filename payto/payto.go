package payto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/xecsuite/libxecpay-go/alias"
	"github.com/xecsuite/libxecpay-go/amount"
	"github.com/xecsuite/libxecpay-go/tx"
)

// Recipient is one parsed destination. Exactly one of Address or Script is
// set.
type Recipient struct {
	Address string
	Script  []byte

	// Amount is the value in satoshis; meaningless when IsMax.
	Amount int64

	// IsMax marks a "!" line that receives all remaining funds.
	IsMax bool
}

// NameResolver expands contact display names to addresses. The contacts
// store satisfies it.
type NameResolver interface {
	ResolveName(name string) (addr string, ok bool)
}

// Result is the outcome of parsing the recipient field.
type Result struct {
	// Recipients holds the successfully parsed lines in order.
	Recipients []*Recipient

	// IsMultiline reports pay-to-many input. The amount field is ignored
	// for multiline input; each line carries its own amount.
	IsMultiline bool

	// IsMax reports that some line used the "!" token.
	IsMax bool

	// SingleRecipient reports a lone "destination, amount" line. Its
	// inline amount governs the send and the amount field is locked.
	SingleRecipient bool

	// IsAlias reports that the single-line input looks like an OpenAlias
	// name that still needs DNS resolution.
	IsAlias bool

	// AliasName is the unresolved alias when IsAlias.
	AliasName string

	// LineErrors maps 1-based line numbers to their parse errors. A result
	// with line errors must not be turned into a transaction.
	LineErrors map[int]error
}

// OK reports whether every line parsed.
func (r *Result) OK() bool { return len(r.LineErrors) == 0 }

// Parser parses recipient-field text.
type Parser struct {
	// Contacts expands display names when non-nil.
	Contacts NameResolver

	// DecimalPoint scales per-line amounts.
	DecimalPoint int
}

// Parse decodes the recipient field. Single-line input names one
// destination; the amount comes from elsewhere unless the line carries a
// comma-separated amount column. Multiline input is pay-to-many with one
// "address, amount" pair per line.
func (p *Parser) Parse(text string) *Result {
	res := &Result{LineErrors: map[int]error{}}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return res
	}

	if len(lines) == 1 && !strings.Contains(lines[0], ",") {
		p.parseSingle(res, strings.TrimSpace(lines[0]))
		return res
	}

	res.IsMultiline = len(lines) > 1
	for i, line := range lines {
		lineNo := i + 1
		rcpt, err := p.parseLine(line)
		if err != nil {
			res.LineErrors[lineNo] = err
			continue
		}
		if rcpt.IsMax {
			if res.IsMax {
				res.LineErrors[lineNo] = ErrDuplicateMax
				continue
			}
			res.IsMax = true
		}
		res.Recipients = append(res.Recipients, rcpt)
	}
	res.SingleRecipient = !res.IsMultiline && len(res.Recipients) == 1 && res.OK()
	return res
}

// parseSingle handles a lone destination with no amount column.
func (p *Parser) parseSingle(res *Result, line string) {
	if addr, ok := p.resolveContact(line); ok {
		res.Recipients = append(res.Recipients, &Recipient{Address: addr})
		return
	}
	if tx.IsValidAddress(line) {
		res.Recipients = append(res.Recipients, &Recipient{Address: line})
		return
	}
	// The resolved alias form "name <address>" collapses to its address.
	if name, addr, ok := splitResolvedAlias(line); ok {
		res.Recipients = append(res.Recipients, &Recipient{Address: addr})
		res.AliasName = name
		return
	}
	if script, err := hex.DecodeString(line); err == nil && len(script) > 0 {
		res.Recipients = append(res.Recipients, &Recipient{Script: script})
		return
	}
	if alias.IsAlias(line) {
		res.IsAlias = true
		res.AliasName = line
		return
	}
	res.LineErrors[1] = fmt.Errorf("%w: %q", ErrBadLine, line)
}

// parseLine handles one "destination, amount" pay-to-many line.
func (p *Parser) parseLine(line string) (*Recipient, error) {
	destPart, amountPart, ok := strings.Cut(line, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing amount column in %q", ErrBadLine, strings.TrimSpace(line))
	}
	destPart = strings.TrimSpace(destPart)
	amountPart = strings.TrimSpace(amountPart)

	rcpt := &Recipient{}
	switch {
	case p.isContact(destPart):
		rcpt.Address, _ = p.resolveContact(destPart)
	case tx.IsValidAddress(destPart):
		rcpt.Address = destPart
	default:
		if script, err := hex.DecodeString(destPart); err == nil && len(script) > 0 {
			rcpt.Script = script
		} else {
			return nil, fmt.Errorf("%w: %q", ErrBadLine, destPart)
		}
	}

	if amount.IsMaxToken(amountPart) {
		rcpt.IsMax = true
		return rcpt, nil
	}
	sats, err := amount.Parse(amountPart, p.DecimalPoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrBadAmount, amountPart, err)
	}
	rcpt.Amount = sats
	return rcpt, nil
}

func (p *Parser) resolveContact(name string) (string, bool) {
	if p.Contacts == nil {
		return "", false
	}
	return p.Contacts.ResolveName(name)
}

func (p *Parser) isContact(name string) bool {
	_, ok := p.resolveContact(name)
	return ok
}

// splitResolvedAlias decodes "name <address>" into its parts.
func splitResolvedAlias(line string) (name, addr string, ok bool) {
	open := strings.IndexByte(line, '<')
	if open < 0 || !strings.HasSuffix(line, ">") {
		return "", "", false
	}
	name = strings.TrimSpace(line[:open])
	addr = strings.TrimSpace(line[open+1 : len(line)-1])
	if name == "" || !tx.IsValidAddress(addr) {
		return "", "", false
	}
	return name, addr, true
}
