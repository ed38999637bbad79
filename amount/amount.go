// Package amount converts between user-facing decimal amount strings and
// integer satoshi values.
//
// The base unit is configurable through a decimal point: XEC uses 2
// (100 satoshis per unit), legacy 8-decimal chains use 8. All arithmetic
// is integer-only; floating point never touches a satoshi value.
package amount

import (
	"fmt"
	"math"
	"strings"
)

// MaxToken is the literal amount token meaning "send all remaining funds".
const MaxToken = "!"

// Supported base-unit decimal points.
const (
	DecimalPointXEC = 2
	DecimalPointBCH = 8
)

// validDecimalPoints lists the accepted decimal point values.
var validDecimalPoints = map[int]bool{
	0: true,
	2: true,
	5: true,
	8: true,
}

// IsMaxToken reports whether s is the max-spend sentinel.
func IsMaxToken(s string) bool {
	return strings.TrimSpace(s) == MaxToken
}

// ValidDecimalPoint reports whether p is a supported base-unit decimal point.
func ValidDecimalPoint(p int) bool {
	return validDecimalPoints[p]
}

// Parse converts a decimal amount string to satoshis using the given
// base-unit decimal point. "12.34" with decimalPoint 2 yields 1234.
// Group separators (spaces, underscores, commas) are tolerated in the
// integer part.
func Parse(s string, decimalPoint int) (int64, error) {
	if !ValidDecimalPoint(decimalPoint) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDecimalPoint, decimalPoint)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeAmount
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
		if strings.IndexByte(fracPart, '.') >= 0 {
			return 0, fmt.Errorf("%w: multiple decimal points in %q", ErrInvalidAmount, s)
		}
	}

	intPart = stripGroupSeparators(intPart)
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if intPart == "" {
		intPart = "0"
	}

	if len(fracPart) > decimalPoint {
		return 0, fmt.Errorf("%w: %q has %d, unit allows %d",
			ErrTooManyDecimals, s, len(fracPart), decimalPoint)
	}
	// Right-pad the fractional part to exactly decimalPoint digits.
	fracPart += strings.Repeat("0", decimalPoint-len(fracPart))

	var sats int64
	for _, digits := range []string{intPart, fracPart} {
		for _, c := range digits {
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("%w: unexpected character %q in %q", ErrInvalidAmount, c, s)
			}
			d := int64(c - '0')
			if sats > (math.MaxInt64-d)/10 {
				return 0, fmt.Errorf("%w: %q", ErrAmountOverflow, s)
			}
			sats = sats*10 + d
		}
	}
	return sats, nil
}

// Format converts satoshis to a plain decimal string in the base unit.
// 1234 with decimalPoint 2 yields "12.34". Trailing fractional zeros are
// kept so the output round-trips through Parse at full precision.
func Format(sats int64, decimalPoint int) string {
	neg := sats < 0
	if neg {
		sats = -sats
	}
	div := pow10(decimalPoint)
	intPart := sats / div
	fracPart := sats % div

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	fmt.Fprintf(&b, "%d", intPart)
	if decimalPoint > 0 {
		fmt.Fprintf(&b, ".%0*d", decimalPoint, fracPart)
	}
	return b.String()
}

// FormatTrimmed is Format with trailing fractional zeros removed,
// suitable for compact display ("12.30" -> "12.3", "12.00" -> "12").
func FormatTrimmed(sats int64, decimalPoint int) string {
	s := Format(sats, decimalPoint)
	if decimalPoint == 0 || !strings.ContainsRune(s, '.') {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func stripGroupSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', ',', '\'':
			return -1
		}
		return r
	}, s)
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
