package invoice

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"

	"github.com/xecsuite/libxecpay-go/amount"
	"github.com/xecsuite/libxecpay-go/tx"
)

// HTTPClient defines the interface for HTTP requests.
// This allows tests to mock HTTP calls.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// DefaultHTTPClient is the production HTTP client.
var DefaultHTTPClient HTTPClient = http.DefaultClient

// RateAPI describes where to fetch a live exchange rate: a JSON endpoint and
// the key path to the rate value inside the response.
type RateAPI struct {
	URL  string   `json:"api"`
	Keys []string `json:"keys"`
}

// ExchangeRate is either a fixed rate or a live API source. The rate is
// expressed in XEC per unit of the invoice currency.
type ExchangeRate struct {
	// Fixed is the pinned rate; used when API is nil.
	Fixed float64

	// API is the live source; takes precedence over Fixed when set.
	API *RateAPI
}

// UnmarshalJSON accepts either a bare number or a {"api": ..., "keys": ...}
// object, matching both invoice dialects in the wild.
func (e *ExchangeRate) UnmarshalJSON(data []byte) error {
	var fixed float64
	if err := json.Unmarshal(data, &fixed); err == nil {
		e.Fixed = fixed
		e.API = nil
		return nil
	}
	var api RateAPI
	if err := json.Unmarshal(data, &api); err != nil {
		return fmt.Errorf("%w: exchange_rate: %w", ErrInvalidInvoice, err)
	}
	if api.URL == "" {
		return fmt.Errorf("%w: exchange_rate object without api url", ErrInvalidInvoice)
	}
	e.API = &api
	return nil
}

// MarshalJSON emits the same shape UnmarshalJSON accepts.
func (e *ExchangeRate) MarshalJSON() ([]byte, error) {
	if e.API != nil {
		return json.Marshal(e.API)
	}
	return json.Marshal(e.Fixed)
}

// Invoice is a saved payment obligation, denominated either directly in XEC
// or in a foreign currency with an exchange rate source.
type Invoice struct {
	ID           string        `json:"id"`
	Address      string        `json:"address"`
	Amount       float64       `json:"amount"`
	Label        string        `json:"label,omitempty"`
	Currency     string        `json:"currency"`
	ExchangeRate *ExchangeRate `json:"exchange_rate,omitempty"`
	PayeeAddress string        `json:"payee_address,omitempty"`
	PayerAddress string        `json:"payer_address,omitempty"`
}

// Validate checks the invoice is payable.
func (inv *Invoice) Validate() error {
	if inv.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidInvoice)
	}
	if !tx.IsValidAddress(inv.Address) {
		return fmt.Errorf("%w: address %q", ErrInvalidInvoice, inv.Address)
	}
	if inv.Amount <= 0 {
		return fmt.Errorf("%w: non-positive amount", ErrInvalidInvoice)
	}
	if inv.Currency == "" {
		return fmt.Errorf("%w: missing currency", ErrInvalidInvoice)
	}
	if inv.Currency != "XEC" && inv.ExchangeRate == nil {
		return fmt.Errorf("%w: %s invoice without exchange rate", ErrInvalidInvoice, inv.Currency)
	}
	return nil
}

// XECAmount converts the invoice amount to satoshis, fetching the live rate
// when the invoice uses an API rate source. A nil client uses the default.
func (inv *Invoice) XECAmount(client HTTPClient) (int64, error) {
	if err := inv.Validate(); err != nil {
		return 0, err
	}
	if inv.Currency == "XEC" {
		return xecToSats(inv.Amount)
	}

	rate := inv.ExchangeRate.Fixed
	if inv.ExchangeRate.API != nil {
		var err error
		rate, err = fetchRate(inv.ExchangeRate.API, client)
		if err != nil {
			return 0, err
		}
	}
	if rate <= 0 {
		return 0, fmt.Errorf("%w: rate %v", ErrExchangeRateAPI, rate)
	}
	return xecToSats(inv.Amount * rate)
}

// fetchRate retrieves a JSON document and walks api.Keys down to the rate.
func fetchRate(api *RateAPI, client HTTPClient) (float64, error) {
	if client == nil {
		client = DefaultHTTPClient
	}

	resp, err := client.Get(api.URL)
	if err != nil {
		return 0, fmt.Errorf("%w: GET %s: %w", ErrExchangeRateAPI, api.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: GET %s returned status %d", ErrExchangeRateAPI, api.URL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: reading response: %w", ErrExchangeRateAPI, err)
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fmt.Errorf("%w: parsing JSON: %w", ErrExchangeRateAPI, err)
	}
	for _, key := range api.Keys {
		obj, ok := doc.(map[string]interface{})
		if !ok {
			return 0, fmt.Errorf("%w: key %q not reachable", ErrExchangeRateAPI, key)
		}
		doc, ok = obj[key]
		if !ok {
			return 0, fmt.Errorf("%w: key %q missing", ErrExchangeRateAPI, key)
		}
	}
	rate, ok := doc.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: rate is not a number", ErrExchangeRateAPI)
	}
	return rate, nil
}

// xecToSats converts a token amount to satoshis at the XEC decimal point.
func xecToSats(xec float64) (int64, error) {
	sats := math.Round(xec * math.Pow10(amount.DecimalPointXEC))
	if sats < 0 || sats > math.MaxInt64 {
		return 0, fmt.Errorf("%w: amount out of range", ErrInvalidInvoice)
	}
	return int64(sats), nil
}

// FromFile loads an invoice from a JSON file.
func FromFile(path string) (*Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInvoice, err)
	}
	var inv Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInvoice, err)
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ToFile writes the invoice as JSON.
func (inv *Invoice) ToFile(path string) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInvoice, err)
	}
	return os.WriteFile(path, data, 0600)
}
