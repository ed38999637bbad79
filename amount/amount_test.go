package amount

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		decimalPoint int
		want         int64
	}{
		{"whole units", "12", 2, 1200},
		{"with fraction", "12.34", 2, 1234},
		{"single fractional digit", "12.3", 2, 1230},
		{"zero", "0", 2, 0},
		{"bare fraction", ".5", 2, 50},
		{"trailing dot", "5.", 2, 500},
		{"group separators", "1 000 000.99", 2, 100000099},
		{"underscore separators", "1_000", 2, 100000},
		{"eight decimals", "0.00000001", 8, 1},
		{"zero decimal point", "42", 0, 42},
		{"surrounding whitespace", "  7.77 ", 2, 777},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in, tt.decimalPoint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		decimalPoint int
		wantErr      error
	}{
		{"empty", "", 2, ErrInvalidAmount},
		{"garbage", "abc", 2, ErrInvalidAmount},
		{"two dots", "1.2.3", 2, ErrInvalidAmount},
		{"negative", "-5", 2, ErrNegativeAmount},
		{"too many decimals", "1.234", 2, ErrTooManyDecimals},
		{"bad decimal point", "1", 3, ErrInvalidDecimalPoint},
		{"overflow", "99999999999999999999", 2, ErrAmountOverflow},
		{"lone dot", ".", 2, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in, tt.decimalPoint)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.34", Format(1234, 2))
	assert.Equal(t, "0.01", Format(1, 2))
	assert.Equal(t, "0.00", Format(0, 2))
	assert.Equal(t, "-12.34", Format(-1234, 2))
	assert.Equal(t, "0.00000001", Format(1, 8))
	assert.Equal(t, "42", Format(42, 0))
}

func TestFormatTrimmed(t *testing.T) {
	assert.Equal(t, "12.3", FormatTrimmed(1230, 2))
	assert.Equal(t, "12", FormatTrimmed(1200, 2))
	assert.Equal(t, "0", FormatTrimmed(0, 2))
	assert.Equal(t, "12.34", FormatTrimmed(1234, 2))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, sats := range []int64{0, 1, 99, 100, 1234, 100000099, math.MaxInt64 / 2} {
		s := Format(sats, 2)
		got, err := Parse(s, 2)
		require.NoError(t, err)
		assert.Equal(t, sats, got, "round trip through %q", s)
	}
}

func TestIsMaxToken(t *testing.T) {
	assert.True(t, IsMaxToken("!"))
	assert.True(t, IsMaxToken(" ! "))
	assert.False(t, IsMaxToken("!!"))
	assert.False(t, IsMaxToken(""))
}
