package amount

import "errors"

var (
	// ErrInvalidAmount indicates the string is not a valid decimal amount.
	ErrInvalidAmount = errors.New("amount: invalid amount")

	// ErrTooManyDecimals indicates more fractional digits than the unit allows.
	ErrTooManyDecimals = errors.New("amount: too many decimal places")

	// ErrNegativeAmount indicates a negative amount where only positive values are valid.
	ErrNegativeAmount = errors.New("amount: amount must not be negative")

	// ErrAmountOverflow indicates the amount does not fit in a signed 64-bit satoshi value.
	ErrAmountOverflow = errors.New("amount: amount overflows int64 satoshis")

	// ErrInvalidDecimalPoint indicates an unsupported base-unit decimal point.
	ErrInvalidDecimalPoint = errors.New("amount: invalid decimal point")
)
