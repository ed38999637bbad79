package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/xecsuite/libxecpay-go/amount"
	"github.com/xecsuite/libxecpay-go/invoice"
	"github.com/xecsuite/libxecpay-go/uri"
)

// PayToURI fills the form from a BIP21-style payment URI. A URI with an
// r= parameter triggers a background payment-request fetch whose result
// replaces the form when it arrives; everything else fills synchronously.
// Returned warnings list unknown URI parameters and amounts over the
// spendable balance.
func (s *SendSession) PayToURI(raw string) ([]string, error) {
	parsed, err := uri.Parse(raw, s.decimalPoint())
	if err != nil {
		return nil, err
	}

	if parsed.PaymentRequestURL != "" {
		s.fetchPaymentRequest(parsed.PaymentRequestURL)
		return parsed.Warnings, nil
	}

	warnings := parsed.Warnings
	if parsed.HasAmount {
		var spendable int64
		for _, c := range s.wallet.GetSpendableCoins(nil, false) {
			spendable += c.Value
		}
		if parsed.Amount > spendable {
			warnings = append(warnings, fmt.Sprintf(
				"The requested amount of %s XEC exceeds the spendable balance.",
				amount.FormatTrimmed(parsed.Amount, s.cfg.DecimalPoint)))
		}
	}

	ok := s.call(func() {
		s.clearLocked()

		switch {
		case len(parsed.Addresses) > 0:
			// Pay-to-many URIs become multi-line CSV input.
			var lines []string
			for i, addr := range parsed.Addresses {
				lines = append(lines, fmt.Sprintf("%s, %s",
					addr, amount.FormatTrimmed(parsed.Amounts[i], s.cfg.DecimalPoint)))
			}
			s.payToText = strings.Join(lines, "\n")
		default:
			s.payToText = parsed.Address
		}
		s.parsed = s.parser.Parse(s.payToText)

		if parsed.HasAmount {
			s.amount = parsed.Amount
			s.hasAmount = true
		}
		if parsed.Label != "" {
			s.label = parsed.Label
		}

		// op_return wins over op_return_raw when a URI carries both.
		switch {
		case parsed.HasOPReturn:
			s.opReturn = parsed.OPReturn
			s.opReturnRaw = false
		case parsed.HasOPReturnRaw:
			s.opReturn = parsed.OPReturnRaw
			s.opReturnRaw = true
		}

		s.requireFeeUpdate = true
	})
	if !ok {
		return nil, ErrClosed
	}
	return warnings, nil
}

// fetchPaymentRequest retrieves a BIP70-style request in the background and
// installs it as the form's governing payment request.
func (s *SendSession) fetchPaymentRequest(url string) {
	go func() {
		pr, err := invoice.Fetch(url, invoice.DefaultHTTPClient)
		s.post(func() {
			if err != nil {
				s.statusText = fmt.Sprintf("Payment request fetch failed: %v", err)
				s.log.Warn().Err(err).Str("url", url).Msg("payment request fetch failed")
				return
			}
			if err := pr.Verify(); err != nil {
				s.statusText = fmt.Sprintf("Invalid payment request: %v", err)
				return
			}
			s.clearLocked()
			s.paymentRequest = pr
			s.payToText = pr.Requestor
			s.label = pr.Memo
			s.statusText = pr.Memo
			s.requireFeeUpdate = true
			s.log.Info().Str("requestor", pr.Requestor).Msg("payment request loaded")
		})
	}()
}

// PayInvoice fills the form from a stored invoice. Fiat-denominated
// invoices fetch their exchange rate, so this can block briefly.
func (s *SendSession) PayInvoice(inv *invoice.Invoice) error {
	if inv == nil {
		return invoice.ErrNilParam
	}
	if err := inv.Validate(); err != nil {
		return err
	}
	sats, err := inv.XECAmount(invoice.DefaultHTTPClient)
	if err != nil {
		return err
	}
	if !s.call(func() {
		s.clearLocked()
		s.payToText = inv.Address
		s.parsed = s.parser.Parse(inv.Address)
		s.amount = sats
		s.hasAmount = true
		s.label = inv.Label
		s.invoiceID = inv.ID
		s.requireFeeUpdate = true
	}) {
		return ErrClosed
	}
	return nil
}

// PayRequest installs an already-fetched payment request, for callers that
// load requests from files rather than r= URIs.
func (s *SendSession) PayRequest(pr *invoice.PaymentRequest) error {
	if pr == nil {
		return invoice.ErrNilParam
	}
	if pr.HasExpired(time.Now()) {
		return ErrRequestExpired
	}
	if !s.call(func() {
		s.clearLocked()
		s.paymentRequest = pr
		s.payToText = pr.Requestor
		s.label = pr.Memo
		s.requireFeeUpdate = true
	}) {
		return ErrClosed
	}
	return nil
}

func (s *SendSession) decimalPoint() int {
	return s.cfg.DecimalPoint
}
