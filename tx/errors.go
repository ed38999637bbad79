package tx

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrNotEnoughFunds indicates the spendable coins cannot cover the
	// requested outputs plus the fee.
	ErrNotEnoughFunds = errors.New("tx: not enough funds")

	// ErrExcessiveFee indicates the fee exceeds the hard ceiling of
	// MaxFeeRate satoshis per byte.
	ErrExcessiveFee = errors.New("tx: excessive fee")

	// ErrOPReturnTooLarge indicates the OP_RETURN payload exceeds the relay limit.
	ErrOPReturnTooLarge = errors.New("tx: OP_RETURN message too large, needs to be no longer than 220 bytes")

	// ErrOPReturn indicates a malformed OP_RETURN payload (bad hex, wrong type).
	ErrOPReturn = errors.New("tx: invalid OP_RETURN payload")

	// ErrMultipleMaxOutputs indicates more than one output uses the max-spend sentinel.
	ErrMultipleMaxOutputs = errors.New("tx: more than one output set to spend max")

	// ErrInvalidAddress indicates a destination address could not be decoded.
	ErrInvalidAddress = errors.New("tx: invalid address")

	// ErrInvalidAmount indicates an output has no usable amount.
	ErrInvalidAmount = errors.New("tx: invalid output amount")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("tx: signing failed")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("tx: script build failed")

	// ErrNoFeeEstimate indicates neither a fixed fee nor a fee rate was supplied.
	ErrNoFeeEstimate = errors.New("tx: no fee estimate available")
)
