// Package fees selects the fee rate for outgoing transactions from a slider
// level, a custom rate, or a manually frozen absolute fee.
package fees

import "errors"

var (
	// ErrInvalidSliderPos is returned when a slider position is outside the
	// level table.
	ErrInvalidSliderPos = errors.New("fees: slider position out of range")

	// ErrInvalidRate is returned when a custom fee rate is zero or absurd.
	ErrInvalidRate = errors.New("fees: invalid fee rate")
)
