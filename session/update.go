package session

import (
	"errors"
	"fmt"

	"github.com/xecsuite/libxecpay-go/amount"
	"github.com/xecsuite/libxecpay-go/payto"
	"github.com/xecsuite/libxecpay-go/tx"
)

// BuildOutcome classifies one fee-recompute pass.
type BuildOutcome int

const (
	// BuildIdle means the flag was not set and nothing ran.
	BuildIdle BuildOutcome = iota

	// BuildOK means a trial transaction was assembled.
	BuildOK

	// BuildNotEnoughFunds means the coins cannot cover outputs plus fee.
	BuildNotEnoughFunds

	// BuildOPReturnTooLarge means the OP_RETURN script exceeds 220 bytes.
	BuildOPReturnTooLarge

	// BuildOPReturnError means the OP_RETURN payload is malformed.
	BuildOPReturnError

	// BuildIgnored means the build failed for a transient reason (half-typed
	// input, missing amount, excessive fee) and the form state was left
	// untouched. The silence is deliberate.
	BuildIgnored
)

func (o BuildOutcome) String() string {
	switch o {
	case BuildIdle:
		return "idle"
	case BuildOK:
		return "ok"
	case BuildNotEnoughFunds:
		return "not-enough-funds"
	case BuildOPReturnTooLarge:
		return "op-return-too-large"
	case BuildOPReturnError:
		return "op-return-error"
	case BuildIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Tick runs one scheduler pass: kick off alias resolution if the recipient
// looks like an unresolved alias, then, if any edit since the last tick
// requested it, perform exactly one fee recomputation. Bursts of edits
// coalesce into a single rebuild.
func (s *SendSession) Tick() BuildOutcome {
	var outcome BuildOutcome
	s.call(func() {
		s.resolveAliasLocked()
		if !s.requireFeeUpdate {
			outcome = BuildIdle
			return
		}
		s.requireFeeUpdate = false
		outcome = s.doUpdateFee()
	})
	return outcome
}

// doUpdateFee rebuilds the trial transaction from the current form state.
// Runs on the loop.
func (s *SendSession) doUpdateFee() BuildOutcome {
	outputs, outcome := s.assembleOutputsLocked()
	if outcome != BuildOK {
		if outcome == BuildIgnored {
			return outcome
		}
		s.trial = nil
		return outcome
	}

	coins := s.payFrom
	if len(coins) == 0 {
		coins = s.wallet.GetSpendableCoins(nil, s.paymentRequest != nil)
	}

	fixedFee := int64(-1)
	if s.fees.IsFrozen() {
		fixedFee = s.fees.FrozenFee
	}

	changeScript, err := s.changeScriptLocked()
	if err != nil {
		return BuildIgnored
	}

	trial, err := tx.BuildUnsigned(&tx.BuildParams{
		Coins:          coins,
		Outputs:        outputs,
		FeeRate:        s.fees.RatePerKB(),
		FixedFee:       fixedFee,
		ChangeScript:   changeScript,
		ShuffleOutputs: s.shuffle,
		Locktime:       s.locktimeLocked(),
	})
	switch {
	case err == nil:
	case errors.Is(err, tx.ErrNotEnoughFunds):
		s.notEnoughFunds = true
		s.trial = nil
		if !s.fees.IsFrozen() {
			s.displayFee = 0
		}
		s.statusText = "Not enough funds"
		if frozen := s.wallet.GetFrozenBalance(); frozen > 0 {
			s.statusText = fmt.Sprintf("Not enough funds (%s XEC are frozen)",
				amount.FormatTrimmed(frozen, s.cfg.DecimalPoint))
		}
		return BuildNotEnoughFunds
	default:
		// Any other build failure leaves the previous state visible.
		s.log.Debug().Err(err).Msg("trial build ignored")
		return BuildIgnored
	}

	s.notEnoughFunds = false
	s.statusText = ""
	s.trial = trial
	if s.fees.IsFrozen() {
		s.displayFee = s.fees.FrozenFee
	} else {
		s.displayFee = trial.GetFee()
	}
	if s.maxMode {
		s.amount = trial.OutputValue()
		s.hasAmount = true
	} else if s.parsed != nil && s.parsed.SingleRecipient {
		// Inline amounts write back into the locked amount field.
		s.amount = s.parsed.Recipients[0].Amount
		s.hasAmount = true
	}
	s.effectiveRate = trial.FeeRatePerByte()
	return BuildOK
}

// assembleOutputsLocked turns the parsed recipients plus the OP_RETURN
// field into the output list for a build.
func (s *SendSession) assembleOutputsLocked() ([]*tx.Output, BuildOutcome) {
	var outputs []*tx.Output

	switch {
	case s.paymentRequest != nil:
		for _, o := range s.paymentRequest.Outputs {
			out, err := tx.NewAddressOutput(o.Address, o.Amount)
			if err != nil {
				return nil, BuildIgnored
			}
			outputs = append(outputs, out)
		}

	case s.parsed == nil || !s.parsed.OK() || len(s.parsed.Recipients) == 0:
		return nil, BuildIgnored

	case s.parsed.IsMultiline:
		for _, r := range s.parsed.Recipients {
			out, err := recipientOutput(r, r.Amount, r.IsMax)
			if err != nil {
				return nil, BuildIgnored
			}
			outputs = append(outputs, out)
		}

	default:
		r := s.parsed.Recipients[0]
		amt := s.amount
		if s.parsed.SingleRecipient {
			amt = r.Amount
		} else if !s.maxMode && !s.hasAmount {
			return nil, BuildIgnored
		}
		out, err := recipientOutput(r, amt, s.maxMode)
		if err != nil {
			return nil, BuildIgnored
		}
		outputs = append(outputs, out)
	}

	opOut, outcome := s.opReturnOutputLocked()
	if outcome != BuildOK {
		return nil, outcome
	}
	if opOut != nil {
		outputs = append(outputs, opOut)
	}
	return outputs, BuildOK
}

// opReturnOutputLocked builds the OP_RETURN output from the form fields,
// nil when the field is empty.
func (s *SendSession) opReturnOutputLocked() (*tx.Output, BuildOutcome) {
	if s.opReturn == "" || !s.cfg.EnableOPReturn {
		return nil, BuildOK
	}
	var (
		out *tx.Output
		err error
	)
	if s.opReturnRaw {
		out, err = tx.OPReturnOutputForRawHex(s.opReturn)
	} else {
		out, err = tx.OPReturnOutputForStringData(s.opReturn)
	}
	switch {
	case err == nil:
		return out, BuildOK
	case errors.Is(err, tx.ErrOPReturnTooLarge):
		s.statusText = tx.ErrOPReturnTooLarge.Error()
		return nil, BuildOPReturnTooLarge
	default:
		s.statusText = err.Error()
		return nil, BuildOPReturnError
	}
}

func (s *SendSession) changeScriptLocked() ([]byte, error) {
	addr, err := s.wallet.ChangeAddress()
	if err != nil {
		return nil, err
	}
	return tx.LockingScriptForAddress(addr)
}

// recipientOutput converts one parsed recipient into a transaction output.
func recipientOutput(r *payto.Recipient, amt int64, isMax bool) (*tx.Output, error) {
	if len(r.Script) > 0 {
		return tx.NewScriptOutput(r.Script, amt)
	}
	if isMax {
		return tx.NewMaxAddressOutput(r.Address)
	}
	return tx.NewAddressOutput(r.Address, amt)
}
