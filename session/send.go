package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xecsuite/libxecpay-go/invoice"
	"github.com/xecsuite/libxecpay-go/tx"
)

// PendingTx wraps a finally-built transaction for the sign/broadcast
// pipeline. The deep-copied transaction is decoupled from the shared
// pay-from list, so later form edits cannot alter a send in flight. The
// low-fee warning flag lives here, not on the transaction bytes, and fires
// at most once per instance across the confirm and broadcast paths.
type PendingTx struct {
	Tx    *tx.Transaction
	Label string

	warnedLowFee bool
	pr           *invoice.PaymentRequest
	invoiceID    string
	refundAddr   string
}

// SendResult reports the outcome of a completed Send.
type SendResult struct {
	// TxID is the broadcast transaction id; empty for previews and
	// incomplete signings.
	TxID string

	// Memo is the user-facing success message. A merchant ACK memo takes
	// precedence over the generic broadcast message.
	Memo string

	// Incomplete holds the partially signed transaction when some inputs
	// could not be signed, for export to a co-signer. No broadcast happened.
	Incomplete *tx.Transaction

	// Preview holds the built transaction when Send ran in preview mode.
	Preview *PendingTx
}

// ReadSendForm validates the form and builds the final transaction without
// signing it. Most callers want Send; this is the preview half on its own.
func (s *SendSession) ReadSendForm() (*PendingTx, error) {
	var (
		pend *PendingTx
		err  error
	)
	if !s.call(func() { pend, err = s.buildFinalLocked() }) {
		return nil, ErrClosed
	}
	return pend, err
}

// buildFinalLocked validates the form and assembles the final transaction.
// Unlike the trial build, every failure is surfaced. Runs on the loop.
func (s *SendSession) buildFinalLocked() (*PendingTx, error) {
	if s.paymentRequest != nil && s.paymentRequest.HasExpired(time.Now()) {
		s.paymentRequest = nil
		return nil, ErrRequestExpired
	}

	if s.paymentRequest == nil {
		if s.parsed == nil || (len(s.parsed.Recipients) == 0 && !s.parsed.IsAlias) {
			return nil, ErrNoOutputs
		}
		if s.parsed.IsAlias {
			return nil, fmt.Errorf("%w: %s", ErrAliasUnresolved, s.parsed.AliasName)
		}
		if !s.parsed.OK() {
			lines := make([]int, 0, len(s.parsed.LineErrors))
			for line := range s.parsed.LineErrors {
				lines = append(lines, line)
			}
			sort.Ints(lines)
			first := lines[0]
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidLines, first, s.parsed.LineErrors[first])
		}
		if !s.parsed.IsMultiline && !s.parsed.SingleRecipient && !s.maxMode && !s.hasAmount {
			return nil, ErrNoAmount
		}
		if s.aliasInfo != nil && !s.aliasInfo.Validated && s.prompter != nil {
			msg := fmt.Sprintf("The DNS record for %q is not DNSSEC-signed, so the address could have been tampered with. Pay to %s anyway?",
				s.aliasInfo.Name, s.aliasInfo.Address)
			if !s.prompter.Confirm(msg) {
				return nil, ErrCanceled
			}
		}
		if s.guards != nil {
			warnings, err := s.guards.CheckAll(s.parsed)
			if err != nil {
				return nil, err
			}
			for _, w := range warnings {
				if s.prompter != nil && !s.prompter.Confirm(w) {
					return nil, ErrCanceled
				}
			}
		}
	}

	outputs, outcome := s.assembleOutputsLocked()
	switch outcome {
	case BuildOK:
	case BuildOPReturnTooLarge:
		return nil, tx.ErrOPReturnTooLarge
	case BuildOPReturnError:
		return nil, tx.ErrOPReturn
	default:
		return nil, ErrNoOutputs
	}

	coins := s.payFrom
	if len(coins) == 0 {
		coins = s.wallet.GetSpendableCoins(nil, s.paymentRequest != nil)
	}

	fixedFee := int64(-1)
	if s.fees.IsFrozen() {
		fixedFee = s.fees.FrozenFee
	}

	changeAddr, err := s.wallet.ChangeAddress()
	if err != nil {
		return nil, err
	}
	changeScript, err := tx.LockingScriptForAddress(changeAddr)
	if err != nil {
		return nil, err
	}

	built, err := tx.BuildUnsigned(&tx.BuildParams{
		Coins:          coins,
		Outputs:        outputs,
		FeeRate:        s.fees.RatePerKB(),
		FixedFee:       fixedFee,
		ChangeScript:   changeScript,
		ShuffleOutputs: s.shuffle,
		Locktime:       s.locktimeLocked(),
	})
	if err != nil {
		return nil, err
	}

	return &PendingTx{
		Tx:         built.Copy(),
		Label:      s.label,
		pr:         s.paymentRequest,
		invoiceID:  s.invoiceID,
		refundAddr: changeAddr,
	}, nil
}

// Send runs the full pipeline: validate, build, low-fee confirm, sign,
// broadcast, persist. With preview the pipeline stops after the build and
// returns the pending transaction for inspection.
//
// Send blocks its caller but never the run loop; signing and the network
// calls happen on the calling goroutine, and all form mutations are posted
// back onto the loop.
func (s *SendSession) Send(ctx context.Context, preview bool) (*SendResult, error) {
	pend, err := s.ReadSendForm()
	if err != nil {
		return nil, err
	}
	if preview {
		return &SendResult{Preview: pend}, nil
	}

	if err := s.maybeWarnLowFee(pend); err != nil {
		return nil, err
	}

	password := ""
	if s.prompter != nil {
		var ok bool
		password, ok = s.prompter.Password()
		if !ok {
			return nil, ErrCanceled
		}
	}

	if err := s.wallet.SignTransaction(pend.Tx, password, false); err != nil {
		return nil, err
	}
	if !pend.Tx.IsComplete() {
		// Hand the partial transaction back for co-signing; nothing is
		// broadcast.
		s.log.Info().Msg("transaction signed incomplete, returning for co-signing")
		return &SendResult{Incomplete: pend.Tx}, nil
	}

	return s.broadcast(ctx, pend)
}

// maybeWarnLowFee prompts once per pending transaction when the fee is
// below one satoshi per byte.
func (s *SendSession) maybeWarnLowFee(pend *PendingTx) error {
	if pend.warnedLowFee {
		return nil
	}
	if pend.Tx.GetFee() >= int64(pend.Tx.EstimatedSize()) {
		return nil
	}
	pend.warnedLowFee = true
	if s.prompter == nil {
		return nil
	}
	msg := fmt.Sprintf("The fee is %d satoshis for a transaction of %d bytes, below 1 satoshi per byte. Send anyway?",
		pend.Tx.GetFee(), pend.Tx.EstimatedSize())
	if !s.prompter.Confirm(msg) {
		return ErrCanceled
	}
	return nil
}

// broadcast pushes a signed transaction to the merchant (when a payment
// request is active) and to the chain. Either succeeding counts as success.
func (s *SendSession) broadcast(ctx context.Context, pend *PendingTx) (*SendResult, error) {
	if pend.pr != nil && pend.pr.HasExpired(time.Now()) {
		s.call(func() { s.paymentRequest = nil })
		return nil, ErrRequestExpired
	}
	if !s.chain.IsConnected() {
		return nil, ErrNotConnected
	}
	if err := s.maybeWarnLowFee(pend); err != nil {
		return nil, err
	}

	rawHex := pend.Tx.Hex()

	var (
		ackOK   bool
		ackMemo string
	)
	if pend.pr != nil {
		ok, memo, err := pend.pr.SendPayment(rawHex, pend.refundAddr, s.postClient)
		if err != nil {
			s.log.Warn().Err(err).Msg("payment ACK failed")
		}
		// "no url" means no acknowledgment needed, not a failure.
		if ok {
			ackOK = true
			ackMemo = memo
		}
	}

	txid, chainErr := s.chain.BroadcastTx(ctx, rawHex)
	chainOK := chainErr == nil

	if !ackOK && !chainOK {
		return nil, fmt.Errorf("%w: %w", ErrBroadcastFailed, chainErr)
	}

	if txid == "" {
		txid = pend.Tx.TxID()
	}

	memo := fmt.Sprintf("Payment sent. %s", txid)
	if ackOK && ackMemo != "" && ackMemo != invoice.NoURLMemo {
		memo = ackMemo
	}

	s.finishSend(pend, txid)
	s.log.Info().Str("txid", txid).Bool("ack", ackOK).Bool("chain", chainOK).Msg("broadcast complete")
	return &SendResult{TxID: txid, Memo: memo}, nil
}

// finishSend persists labels and invoice state, consumes the change
// address, and resets the form.
func (s *SendSession) finishSend(pend *PendingTx, txid string) {
	if s.labels != nil && pend.Label != "" {
		if err := s.labels.SetLabel(txid, pend.Label); err != nil {
			s.log.Warn().Err(err).Msg("label persistence failed")
		}
	}
	if s.invoices != nil && pend.invoiceID != "" {
		if err := s.invoices.SetPaid(pend.invoiceID, txid); err != nil &&
			!errors.Is(err, invoice.ErrNotFound) {
			s.log.Warn().Err(err).Msg("invoice update failed")
		}
	}
	s.wallet.AdvanceChangeAddress()
	s.call(func() { s.clearLocked() })
}
