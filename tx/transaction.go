package tx

import (
	"encoding/hex"
)

const (
	// DustLimit is the minimum P2PKH output value in satoshis. Change below
	// this threshold is dropped into the fee.
	DustLimit = int64(546)

	// DefaultFeeRate is the default fee rate in sat/KB (1 sat/B).
	DefaultFeeRate = uint64(1000)

	// MaxFeeRate is the hard fee ceiling in sat/byte. Builds whose effective
	// rate exceeds it fail with ErrExcessiveFee.
	MaxFeeRate = 50

	// p2pkhInputSize is the serialized size of a signed P2PKH input:
	// prevhash(32) + previndex(4) + scriptlen(1) + sig+pubkey(~107) + sequence(4).
	p2pkhInputSize = 148

	// txOverhead is version(4) + locktime(4) + the two count varints.
	txOverhead = 10
)

// Transaction is an unsigned or signed payment transaction. Trial
// transactions built for fee feedback share the same type as the final
// transaction handed to the signing pipeline.
type Transaction struct {
	Inputs   []*UTXO
	Outputs  []*Output
	Locktime uint32

	raw      []byte
	txid     []byte
	complete bool
}

// EstimatedSize returns the estimated serialized size in bytes, assuming
// all inputs are P2PKH.
func (t *Transaction) EstimatedSize() int {
	size := txOverhead + len(t.Inputs)*p2pkhInputSize
	for _, o := range t.Outputs {
		size += 8 + varintLen(len(o.LockingScript)) + len(o.LockingScript)
	}
	return size
}

// InputValue returns the total satoshi value of the inputs.
func (t *Transaction) InputValue() int64 { return SumValues(t.Inputs) }

// OutputValue returns the total satoshi value of the outputs.
func (t *Transaction) OutputValue() int64 {
	var total int64
	for _, o := range t.Outputs {
		total += o.Value
	}
	return total
}

// GetFee returns inputs minus outputs.
func (t *Transaction) GetFee() int64 { return t.InputValue() - t.OutputValue() }

// FeeRatePerByte returns the effective fee rate in sat/byte.
func (t *Transaction) FeeRatePerByte() float64 {
	size := t.EstimatedSize()
	if size == 0 {
		return 0
	}
	return float64(t.GetFee()) / float64(size)
}

// IsComplete reports whether every input carries a final unlocking script.
func (t *Transaction) IsComplete() bool { return t.complete }

// TxID returns the hex transaction id, or "" before signing.
func (t *Transaction) TxID() string {
	if len(t.txid) == 0 {
		return ""
	}
	return hex.EncodeToString(t.txid)
}

// Hex returns the signed serialized transaction as hex, or "" before signing.
func (t *Transaction) Hex() string {
	if len(t.raw) == 0 {
		return ""
	}
	return hex.EncodeToString(t.raw)
}

// Bytes returns the signed serialized transaction, or nil before signing.
func (t *Transaction) Bytes() []byte { return append([]byte(nil), t.raw...) }

// Copy returns a deep copy of the transaction, decoupled from the shared
// coin list the inputs were drawn from. A transaction handed to the signing
// pipeline must be copied first so later edits to the pay-from list cannot
// reach it.
func (t *Transaction) Copy() *Transaction {
	dup := &Transaction{
		Inputs:   CopyCoins(t.Inputs),
		Outputs:  make([]*Output, len(t.Outputs)),
		Locktime: t.Locktime,
		raw:      append([]byte(nil), t.raw...),
		txid:     append([]byte(nil), t.txid...),
		complete: t.complete,
	}
	for i, o := range t.Outputs {
		dup.Outputs[i] = o.Copy()
	}
	return dup
}

// EstimateFee returns ceil(sizeBytes * satPerKB / 1000).
func EstimateFee(sizeBytes int, satPerKB uint64) int64 {
	if satPerKB == 0 {
		satPerKB = DefaultFeeRate
	}
	fee := uint64(sizeBytes) * satPerKB
	return int64((fee + 999) / 1000)
}

func varintLen(n int) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	default:
		return 5
	}
}
