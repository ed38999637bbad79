// Package session drives the send workflow: it owns the mutable form state
// (recipients, amount, OP_RETURN, pay-from coins, fee policy, active payment
// request), coalesces fee recomputation, and runs the sign/broadcast
// pipeline. All state mutation happens on a single run-loop goroutine;
// background work posts its completions back onto the loop, so the form
// never needs a lock.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xecsuite/libxecpay-go/alias"
	"github.com/xecsuite/libxecpay-go/config"
	"github.com/xecsuite/libxecpay-go/fees"
	"github.com/xecsuite/libxecpay-go/invoice"
	"github.com/xecsuite/libxecpay-go/network"
	"github.com/xecsuite/libxecpay-go/payto"
	"github.com/xecsuite/libxecpay-go/tx"
	"github.com/xecsuite/libxecpay-go/uri"
)

// aliasTimeout bounds the DNS lookup spawned from Tick.
const aliasTimeout = 5 * time.Second

// WalletBackend is the wallet surface the session depends on.
type WalletBackend interface {
	GetSpendableCoins(domain []string, confirmedOnly bool) []*tx.UTXO
	GetFrozenBalance() int64
	ChangeAddress() (string, error)
	AdvanceChangeAddress()
	SignTransaction(t *tx.Transaction, password string, useCache bool) error
}

// Prompter supplies the interactive confirmations of the send pipeline.
// Password returns ok=false when the user cancels, which aborts signing.
type Prompter interface {
	Password() (password string, ok bool)
	Confirm(message string) bool
}

// Labeler persists transaction labels after a successful broadcast.
// The contacts store satisfies it.
type Labeler interface {
	SetLabel(txid, label string) error
}

// SendSession owns the send-form state. Construct with New, drive with the
// setters and Tick, and finish with Send. Methods are safe to call from any
// goroutine; they marshal onto the run loop internally.
type SendSession struct {
	wallet     WalletBackend
	chain      network.BlockchainService
	cfg        *config.Config
	fees       *fees.Policy
	parser     *payto.Parser
	guards     *payto.Guards
	resolver   *alias.Resolver
	prompter   Prompter
	labels     Labeler
	invoices   *invoice.Store
	postClient invoice.PostClient
	log        zerolog.Logger

	ops       chan func()
	quit      chan struct{}
	closeOnce sync.Once

	// Form state. Touched only from the run loop.
	payToText   string
	parsed      *payto.Result
	amount      int64
	hasAmount   bool
	maxMode     bool
	opReturn    string
	opReturnRaw bool
	label       string
	payFrom     []*tx.UTXO
	shuffle     bool

	paymentRequest *invoice.PaymentRequest
	invoiceID      string
	tipHeight      uint32

	requireFeeUpdate bool
	aliasResolving   bool
	aliasInfo        *alias.Info

	trial          *tx.Transaction
	displayFee     int64
	effectiveRate  float64
	notEnoughFunds bool
	statusText     string
}

// Options carries the optional collaborators of a session.
type Options struct {
	Guards   *payto.Guards
	Resolver *alias.Resolver
	Prompter Prompter
	Labels   Labeler
	Invoices *invoice.Store
	Post     invoice.PostClient
	Logger   *zerolog.Logger
}

// New creates a session and starts its run loop. Call Close when done.
func New(w WalletBackend, chain network.BlockchainService, cfg *config.Config, contacts payto.NameResolver, opts *Options) *SendSession {
	if cfg == nil {
		def := config.DefaultConfig()
		cfg = &def
	}
	if opts == nil {
		opts = &Options{}
	}
	policy := fees.DefaultPolicy()
	policy.SliderPos = -1
	for i := 0; i < fees.NumLevels(); i++ {
		if rate, _ := fees.LevelRate(i); rate == cfg.FeePerKB {
			policy.SliderPos = i
			break
		}
	}
	policy.CustomRate = cfg.CustomFeeRate
	if policy.CustomRate == 0 && policy.SliderPos < 0 && cfg.FeePerKB > 0 {
		// Off-table configured rate behaves like a custom rate.
		policy.CustomRate = cfg.FeePerKB
	}

	guards := opts.Guards
	if guards == nil {
		guards = &payto.Guards{
			AllowLegacyP2SH:   cfg.AllowLegacyP2SH,
			WarnLegacyAddress: cfg.WarnLegacyAddress,
		}
	}

	s := &SendSession{
		wallet:     w,
		chain:      chain,
		cfg:        cfg,
		fees:       policy,
		parser:     &payto.Parser{Contacts: contacts, DecimalPoint: cfg.DecimalPoint},
		guards:     guards,
		resolver:   opts.Resolver,
		prompter:   opts.Prompter,
		labels:     opts.Labels,
		invoices:   opts.Invoices,
		postClient: opts.Post,
		log:        zerolog.Nop(),
		ops:        make(chan func(), 64),
		quit:       make(chan struct{}),
		shuffle:    cfg.ShuffleOutputs,
	}
	if opts.Post == nil {
		s.postClient = invoice.DefaultPostClient
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	go s.runLoop()
	return s
}

// Close stops the run loop. Pending posted work is drained first. Close is
// idempotent; operations after it return ErrClosed.
func (s *SendSession) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
}

func (s *SendSession) runLoop() {
	for {
		select {
		case f := <-s.ops:
			f()
		case <-s.quit:
			// Drain whatever was already queued, then stop.
			for {
				select {
				case f := <-s.ops:
					f()
				default:
					return
				}
			}
		}
	}
}

// post enqueues f onto the run loop without waiting.
func (s *SendSession) post(f func()) {
	select {
	case s.ops <- f:
	case <-s.quit:
	}
}

// call runs f on the run loop and waits for it to finish. It reports false
// when the session was closed before f completed.
func (s *SendSession) call(f func()) bool {
	done := make(chan struct{})
	s.post(func() {
		f()
		close(done)
	})
	select {
	case <-done:
		return true
	case <-s.quit:
		return false
	}
}

// SetPayTo replaces the recipient field. Setting free text clears any
// active payment request; the two are mutually exclusive. Content carrying
// the payment URI scheme routes through PayToURI instead of line parsing.
func (s *SendSession) SetPayTo(text string) {
	if uri.HasScheme(text) {
		warnings, err := s.PayToURI(text)
		if err != nil {
			s.call(func() { s.statusText = fmt.Sprintf("Invalid payment URI: %v", err) })
			return
		}
		for _, w := range warnings {
			s.log.Warn().Str("warning", w).Msg("payment URI warning")
		}
		return
	}
	s.call(func() {
		s.payToText = text
		s.paymentRequest = nil
		s.invoiceID = ""
		s.aliasInfo = nil
		s.parsed = s.parser.Parse(text)
		if s.parsed.IsMax {
			s.maxMode = true
		}
		s.requireFeeUpdate = true
	})
}

// SetAmount sets the single-recipient amount in satoshis and leaves
// max-mode.
func (s *SendSession) SetAmount(sats int64) {
	s.call(func() {
		s.amount = sats
		s.hasAmount = true
		s.maxMode = false
		s.requireFeeUpdate = true
	})
}

// ClearAmount empties the amount field.
func (s *SendSession) ClearAmount() {
	s.call(func() {
		s.amount = 0
		s.hasAmount = false
		s.maxMode = false
		s.requireFeeUpdate = true
	})
}

// SetMax switches the amount field to spend-all mode.
func (s *SendSession) SetMax(on bool) {
	s.call(func() {
		s.maxMode = on
		s.requireFeeUpdate = true
	})
}

// SetOPReturn sets the OP_RETURN payload text. raw interprets the text as a
// hex-encoded script body instead of UTF-8 data. An empty text forces
// shuffled outputs back on; ordering only matters with a payload present.
func (s *SendSession) SetOPReturn(text string, raw bool) {
	s.call(func() {
		s.opReturn = text
		s.opReturnRaw = raw
		if text == "" {
			s.shuffle = s.cfg.ShuffleOutputs
		}
		s.requireFeeUpdate = true
	})
}

// SetShuffleOutputs overrides output shuffling for protocols that need
// deterministic ordering. Ignored while the OP_RETURN field is empty.
func (s *SendSession) SetShuffleOutputs(on bool) {
	s.call(func() {
		if s.opReturn != "" {
			s.shuffle = on
		}
	})
}

// SetLabel sets the label persisted for the transaction after broadcast.
func (s *SendSession) SetLabel(label string) {
	s.call(func() { s.label = label })
}

// SetPayFrom overrides the spendable coin set with an explicit list.
// nil restores the wallet's full spendable set.
func (s *SendSession) SetPayFrom(coins []*tx.UTXO) {
	s.call(func() {
		s.payFrom = tx.CopyCoins(coins)
		s.requireFeeUpdate = true
	})
}

// RemovePayFrom drops one coin from the explicit pay-from list. Coins
// marked unremovable stay.
func (s *SendSession) RemovePayFrom(outpoint string) {
	s.call(func() {
		kept := s.payFrom[:0]
		for _, c := range s.payFrom {
			if c.Outpoint() == outpoint && !c.Unremovable {
				s.requireFeeUpdate = true
				continue
			}
			kept = append(kept, c)
		}
		s.payFrom = kept
	})
}

// SetTipHeight records the current chain height. With the locktime-at-tip
// option enabled, built transactions carry it as nLockTime.
func (s *SendSession) SetTipHeight(height uint32) {
	s.call(func() {
		if s.tipHeight == height {
			return
		}
		s.tipHeight = height
		if s.cfg.LocktimeAtTip {
			s.requireFeeUpdate = true
		}
	})
}

// locktimeLocked returns the nLockTime for the next build.
func (s *SendSession) locktimeLocked() uint32 {
	if !s.cfg.LocktimeAtTip {
		return 0
	}
	return s.tipHeight
}

// FreezeFee pins the absolute fee for the next transaction, overriding
// rate-based estimation.
func (s *SendSession) FreezeFee(fee int64) {
	s.call(func() {
		s.fees.Freeze(fee)
		s.requireFeeUpdate = true
	})
}

// UnfreezeFee returns to rate-based fees.
func (s *SendSession) UnfreezeFee() {
	s.call(func() {
		s.fees.Unfreeze()
		s.requireFeeUpdate = true
	})
}

// Clear resets the form to its initial empty state.
func (s *SendSession) Clear() {
	s.call(func() { s.clearLocked() })
}

func (s *SendSession) clearLocked() {
	s.payToText = ""
	s.parsed = nil
	s.amount = 0
	s.hasAmount = false
	s.maxMode = false
	s.opReturn = ""
	s.opReturnRaw = false
	s.label = ""
	s.payFrom = nil
	s.shuffle = s.cfg.ShuffleOutputs
	s.paymentRequest = nil
	s.invoiceID = ""
	s.aliasInfo = nil
	s.aliasResolving = false
	s.trial = nil
	s.displayFee = 0
	s.effectiveRate = 0
	s.notEnoughFunds = false
	s.statusText = ""
	s.requireFeeUpdate = false
	s.fees.Unfreeze()
}

// Status returns the current status line.
func (s *SendSession) Status() string {
	var v string
	s.call(func() { v = s.statusText })
	return v
}

// Fee returns the fee shown in the form, zero when unknown.
func (s *SendSession) Fee() int64 {
	var v int64
	s.call(func() { v = s.displayFee })
	return v
}

// EffectiveRate returns the trial transaction's sat/B rate.
func (s *SendSession) EffectiveRate() float64 {
	var v float64
	s.call(func() { v = s.effectiveRate })
	return v
}

// NotEnoughFunds reports the insufficient-funds state of the last rebuild.
func (s *SendSession) NotEnoughFunds() bool {
	var v bool
	s.call(func() { v = s.notEnoughFunds })
	return v
}

// Amount returns the amount field; in max-mode it holds the computed
// spend-all value after a fee update.
func (s *SendSession) Amount() int64 {
	var v int64
	s.call(func() { v = s.amount })
	return v
}

// AmountLocked reports whether the amount field is governed by the form
// rather than the caller: an active payment request or an inline amount on
// a lone recipient line.
func (s *SendSession) AmountLocked() bool {
	var v bool
	s.call(func() {
		v = s.paymentRequest != nil || (s.parsed != nil && s.parsed.SingleRecipient)
	})
	return v
}

// PayToText returns the recipient field, including any alias rewrite.
func (s *SendSession) PayToText() string {
	var v string
	s.call(func() { v = s.payToText })
	return v
}

// PaymentRequest returns the active payment request, nil when none.
func (s *SendSession) PaymentRequest() *invoice.PaymentRequest {
	var v *invoice.PaymentRequest
	s.call(func() { v = s.paymentRequest })
	return v
}

// TrialTx returns a copy of the last trial transaction, nil when the form
// does not currently build.
func (s *SendSession) TrialTx() *tx.Transaction {
	var v *tx.Transaction
	s.call(func() {
		if s.trial != nil {
			v = s.trial.Copy()
		}
	})
	return v
}

// resolveAliasLocked spawns the DNS lookup for an alias-looking recipient.
// Runs on the loop; the lookup itself runs in its own goroutine and posts
// the rewrite back.
func (s *SendSession) resolveAliasLocked() {
	if s.resolver == nil || s.aliasResolving || s.parsed == nil || !s.parsed.IsAlias {
		return
	}
	name := s.parsed.AliasName
	s.aliasResolving = true

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), aliasTimeout)
		defer cancel()
		type res struct {
			info *alias.Info
			err  error
		}
		ch := make(chan res, 1)
		go func() {
			info, err := s.resolver.Resolve(name)
			ch <- res{info, err}
		}()

		var r res
		select {
		case r = <-ch:
		case <-ctx.Done():
			r = res{nil, ctx.Err()}
		}

		s.post(func() {
			s.aliasResolving = false
			if r.err != nil {
				// Resolution failure is silent; the field stays free text.
				s.log.Debug().Err(r.err).Str("alias", name).Msg("alias resolution failed")
				return
			}
			if s.parsed == nil || !s.parsed.IsAlias || s.parsed.AliasName != name {
				return // field changed while resolving
			}
			s.aliasInfo = r.info
			s.payToText = r.info.String()
			s.parsed = s.parser.Parse(s.payToText)
			s.requireFeeUpdate = true
			s.log.Info().Str("alias", name).Bool("validated", r.info.Validated).Msg("alias resolved")
		})
	}()
}
