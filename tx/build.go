package tx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
)

// BuildParams carries everything needed to assemble an unsigned transaction.
type BuildParams struct {
	// Coins is the spendable coin set. It is never mutated; selected coins
	// are deep-copied into the transaction.
	Coins []*UTXO

	// Outputs is the payment output list. At most one output may have IsMax
	// set; its value is computed from whatever the coins can cover.
	Outputs []*Output

	// FeeRate is the dynamic fee rate in sat/KB. Ignored when FixedFee >= 0.
	FeeRate uint64

	// FixedFee freezes the absolute fee in satoshis when >= 0. Set to -1 for
	// rate-based fees.
	FixedFee int64

	// ChangeScript receives any change above the dust limit. Required for
	// the non-max path.
	ChangeScript []byte

	// ShuffleOutputs randomizes output order. Inputs are always shuffled.
	ShuffleOutputs bool

	// Locktime is the transaction nLockTime.
	Locktime uint32
}

func (p *BuildParams) feeForSize(size int) int64 {
	if p.FixedFee >= 0 {
		return p.FixedFee
	}
	return EstimateFee(size, p.FeeRate)
}

// BuildUnsigned assembles an unsigned transaction from the given coins and
// outputs. Exactly-affordable sends succeed with a zero change output
// dropped; insufficient coins return ErrNotEnoughFunds. The assembled fee is
// checked against MaxFeeRate and fails with ErrExcessiveFee above it.
func BuildUnsigned(params *BuildParams) (*Transaction, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params", ErrNilParam)
	}
	if len(params.Outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs", ErrNilParam)
	}

	maxIdx := -1
	for i, o := range params.Outputs {
		if o == nil {
			return nil, fmt.Errorf("%w: output %d", ErrNilParam, i)
		}
		if len(o.LockingScript) == 0 {
			return nil, fmt.Errorf("%w: output %d has no locking script", ErrScriptBuild, i)
		}
		if o.Value < 0 {
			return nil, fmt.Errorf("%w: output %d: negative value", ErrInvalidAmount, i)
		}
		if o.IsMax {
			if maxIdx >= 0 {
				return nil, ErrMultipleMaxOutputs
			}
			maxIdx = i
		}
	}
	if len(params.Coins) == 0 {
		return nil, fmt.Errorf("%w: no spendable coins", ErrNotEnoughFunds)
	}
	if params.FixedFee < 0 && params.FeeRate == 0 {
		return nil, ErrNoFeeEstimate
	}

	var t *Transaction
	var err error
	if maxIdx >= 0 {
		t, err = buildMax(params, maxIdx)
	} else {
		t, err = buildSelected(params)
	}
	if err != nil {
		return nil, err
	}

	if size := t.EstimatedSize(); t.GetFee() > int64(size)*MaxFeeRate {
		return nil, fmt.Errorf("%w: %d sat for %d bytes", ErrExcessiveFee, t.GetFee(), size)
	}

	shuffleCoins(t.Inputs)
	if params.ShuffleOutputs {
		shuffleOutputs(t.Outputs)
	}
	return t, nil
}

// buildMax spends every coin. The max output receives whatever remains after
// the other outputs and the fee, clamped at zero, and no change is created.
func buildMax(params *BuildParams, maxIdx int) (*Transaction, error) {
	outputs := make([]*Output, len(params.Outputs))
	for i, o := range params.Outputs {
		outputs[i] = o.Copy()
	}

	t := &Transaction{
		Inputs:   CopyCoins(params.Coins),
		Outputs:  outputs,
		Locktime: params.Locktime,
	}

	var others int64
	for i, o := range outputs {
		if i != maxIdx {
			others += o.Value
		}
	}
	fee := params.feeForSize(t.EstimatedSize())
	amount := SumValues(t.Inputs) - others - fee
	if amount < 0 {
		amount = 0
	}
	outputs[maxIdx].Value = amount
	return t, nil
}

// buildSelected accumulates coins largest-first until they cover the outputs
// plus the fee, re-estimating the fee as inputs are added.
func buildSelected(params *BuildParams) (*Transaction, error) {
	if len(params.ChangeScript) == 0 {
		return nil, fmt.Errorf("%w: change script", ErrNilParam)
	}

	target := int64(0)
	outputs := make([]*Output, len(params.Outputs))
	for i, o := range params.Outputs {
		outputs[i] = o.Copy()
		target += o.Value
	}

	candidates := make([]*UTXO, len(params.Coins))
	copy(candidates, params.Coins)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Value > candidates[j].Value
	})

	change := &Output{Kind: KindScript, LockingScript: append([]byte(nil), params.ChangeScript...)}

	var selected []*UTXO
	var in int64
	var fee int64
	for {
		t := &Transaction{Inputs: selected, Outputs: append(outputs, change), Locktime: params.Locktime}
		fee = params.feeForSize(t.EstimatedSize())
		if len(selected) > 0 && in >= target+fee {
			break
		}
		if len(selected) == len(candidates) {
			return nil, fmt.Errorf("%w: have %d sat, need %d sat plus fees", ErrNotEnoughFunds, in, target)
		}
		next := candidates[len(selected)]
		selected = append(selected, next)
		in += next.Value
	}

	t := &Transaction{
		Inputs:   CopyCoins(selected),
		Outputs:  outputs,
		Locktime: params.Locktime,
	}
	changeVal := in - target - fee
	if changeVal >= DustLimit {
		change.Value = changeVal
		t.Outputs = append(t.Outputs, change)
	}
	return t, nil
}

func shuffleCoins(coins []*UTXO) {
	for i := len(coins) - 1; i > 0; i-- {
		j := randIntn(i + 1)
		coins[i], coins[j] = coins[j], coins[i]
	}
}

func shuffleOutputs(outs []*Output) {
	for i := len(outs) - 1; i > 0; i-- {
		j := randIntn(i + 1)
		outs[i], outs[j] = outs[j], outs[i]
	}
}

func randIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
