// Package tx builds, sizes and signs payment transactions.
//
// The model mirrors the send workflow: a caller assembles Outputs from
// parsed recipient input, optionally appends an OP_RETURN output, and asks
// BuildUnsigned for a trial or final transaction against a set of spendable
// coins. Fees are integer satoshis at a sat/KB rate; a hard ceiling guards
// against fat-finger fee rates.
package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"
)

// DestinationKind distinguishes address destinations from raw script destinations.
type DestinationKind int

const (
	// KindAddress is a standard P2PKH/P2SH address destination.
	KindAddress DestinationKind = iota
	// KindScript is a raw locking-script destination (OP_RETURN, non-standard payloads).
	KindScript
)

// String returns the human-readable name of a DestinationKind.
func (k DestinationKind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindScript:
		return "script"
	default:
		return "unknown"
	}
}

// Output is one transaction output: a destination plus an amount.
// IsMax marks the "send all remaining funds" sentinel; its Value is
// computed by BuildUnsigned and is zero until then.
type Output struct {
	Kind          DestinationKind
	Address       string // display form, empty for KindScript
	LockingScript []byte
	Value         int64
	IsMax         bool
}

// NewAddressOutput decodes addr and returns an address output for the
// given satoshi amount.
func NewAddressOutput(addr string, value int64) (*Output, error) {
	lock, err := LockingScriptForAddress(addr)
	if err != nil {
		return nil, err
	}
	return &Output{
		Kind:          KindAddress,
		Address:       addr,
		LockingScript: lock,
		Value:         value,
	}, nil
}

// NewMaxAddressOutput decodes addr and returns an address output carrying
// the max-spend sentinel.
func NewMaxAddressOutput(addr string) (*Output, error) {
	out, err := NewAddressOutput(addr, 0)
	if err != nil {
		return nil, err
	}
	out.IsMax = true
	return out, nil
}

// NewScriptOutput returns a raw-script output for the given satoshi amount.
func NewScriptOutput(lockingScript []byte, value int64) (*Output, error) {
	if len(lockingScript) == 0 {
		return nil, fmt.Errorf("%w: locking script", ErrNilParam)
	}
	return &Output{
		Kind:          KindScript,
		LockingScript: lockingScript,
		Value:         value,
	}, nil
}

// Copy returns a deep copy of the output.
func (o *Output) Copy() *Output {
	dup := *o
	dup.LockingScript = append([]byte(nil), o.LockingScript...)
	return &dup
}

// LockingScriptForAddress decodes a base58 address and returns its P2PKH
// locking script bytes.
func LockingScriptForAddress(addr string) ([]byte, error) {
	a, err := script.NewAddressFromString(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, addr, err)
	}
	lock, err := p2pkh.Lock(a)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock for %q: %w", ErrScriptBuild, addr, err)
	}
	return []byte(*lock), nil
}

// IsValidAddress reports whether addr decodes as a standard address.
func IsValidAddress(addr string) bool {
	_, err := script.NewAddressFromString(addr)
	return err == nil
}
