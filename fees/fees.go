package fees

import (
	"fmt"

	"github.com/xecsuite/libxecpay-go/tx"
)

// levels is the slider table, sat/KB per position. Position 0 is the relay
// minimum of 1 sat/B.
var levels = []uint64{1000, 2000, 3000, 4000, 5000, 7000, 10000, 15000, 20000, 30000}

// NumLevels returns the number of slider positions.
func NumLevels() int { return len(levels) }

// LevelRate returns the sat/KB rate for a slider position.
func LevelRate(pos int) (uint64, error) {
	if pos < 0 || pos >= len(levels) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSliderPos, pos)
	}
	return levels[pos], nil
}

// Policy resolves the fee for a transaction. A frozen absolute fee takes
// precedence over a custom rate, which takes precedence over the slider.
type Policy struct {
	// SliderPos indexes the level table.
	SliderPos int

	// CustomRate overrides the slider when nonzero, in sat/KB.
	CustomRate uint64

	// FrozenFee pins the absolute fee in satoshis when >= 0. While frozen,
	// rate changes have no effect until the freeze is lifted.
	FrozenFee int64
}

// DefaultPolicy returns a policy at the lowest slider level with no custom
// rate and no frozen fee.
func DefaultPolicy() *Policy {
	return &Policy{FrozenFee: -1}
}

// RatePerKB returns the effective dynamic rate in sat/KB, ignoring any
// frozen fee.
func (p *Policy) RatePerKB() uint64 {
	if p.CustomRate != 0 {
		return p.CustomRate
	}
	rate, err := LevelRate(p.SliderPos)
	if err != nil {
		return tx.DefaultFeeRate
	}
	return rate
}

// FeeForSize returns the fee in satoshis for a transaction of the given
// size, and whether that fee is frozen rather than rate-derived.
func (p *Policy) FeeForSize(sizeBytes int) (int64, bool) {
	if p.FrozenFee >= 0 {
		return p.FrozenFee, true
	}
	return tx.EstimateFee(sizeBytes, p.RatePerKB()), false
}

// Freeze pins the absolute fee. Subsequent rate edits are ignored until
// Unfreeze.
func (p *Policy) Freeze(fee int64) {
	if fee < 0 {
		fee = 0
	}
	p.FrozenFee = fee
}

// Unfreeze lifts a frozen fee and returns to rate-derived fees.
func (p *Policy) Unfreeze() { p.FrozenFee = -1 }

// IsFrozen reports whether the absolute fee is pinned.
func (p *Policy) IsFrozen() bool { return p.FrozenFee >= 0 }

// SetCustomRate installs a custom sat/KB rate. Rates of zero or above the
// hard fee ceiling are rejected.
func (p *Policy) SetCustomRate(satPerKB uint64) error {
	if satPerKB == 0 || satPerKB > tx.MaxFeeRate*1000 {
		return fmt.Errorf("%w: %d sat/KB", ErrInvalidRate, satPerKB)
	}
	p.CustomRate = satPerKB
	return nil
}

// ClearCustomRate returns fee selection to the slider.
func (p *Policy) ClearCustomRate() { p.CustomRate = 0 }

// HasCustomRate reports whether a custom rate overrides the slider.
func (p *Policy) HasCustomRate() bool { return p.CustomRate != 0 }

// RateLabel formats a sat/KB rate as a human-readable sat/B string, e.g.
// "1.5 sat/B".
func RateLabel(satPerKB uint64) string {
	whole := satPerKB / 1000
	frac := satPerKB % 1000
	if frac == 0 {
		return fmt.Sprintf("%d sat/B", whole)
	}
	s := fmt.Sprintf("%d.%03d", whole, frac)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s + " sat/B"
}
