// Package invoice handles saved invoices and remote payment requests.
package invoice

import "errors"

var (
	// ErrNilParam is returned when a required parameter is nil or empty.
	ErrNilParam = errors.New("invoice: nil or empty parameter")

	// ErrInvalidInvoice is returned for invoices missing required fields.
	ErrInvalidInvoice = errors.New("invoice: invalid invoice")

	// ErrNotFound is returned when no invoice exists under the given id.
	ErrNotFound = errors.New("invoice: invoice not found")

	// ErrExchangeRateAPI is returned when a rate cannot be obtained from the
	// configured exchange rate source.
	ErrExchangeRateAPI = errors.New("invoice: exchange rate unavailable")

	// ErrFetchFailed is returned when a remote payment request cannot be
	// retrieved.
	ErrFetchFailed = errors.New("invoice: payment request fetch failed")

	// ErrInvalidRequest is returned for malformed payment requests.
	ErrInvalidRequest = errors.New("invoice: invalid payment request")

	// ErrExpired is returned when paying an expired payment request.
	ErrExpired = errors.New("invoice: payment request expired")

	// ErrPaymentRejected is returned when the merchant refuses a payment.
	ErrPaymentRejected = errors.New("invoice: payment rejected by merchant")
)
