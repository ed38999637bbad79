package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xecsuite/libxecpay-go/tx"
)

// NoURLMemo is the memo returned by SendPayment when the request carries no
// payment URL. Callers treat it as "nothing to deliver", not a failure.
const NoURLMemo = "no url"

// PostClient extends HTTPClient with POST capability.
type PostClient interface {
	HTTPClient
	Post(url, contentType string, body io.Reader) (*http.Response, error)
}

// defaultPostClient wraps an http.Client with timeout to implement PostClient.
type defaultPostClient struct {
	client *http.Client
}

func (c *defaultPostClient) Get(url string) (*http.Response, error) {
	return c.client.Get(url)
}

func (c *defaultPostClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	return c.client.Post(url, contentType, body)
}

// DefaultPostClient is the production POST-capable client.
var DefaultPostClient PostClient = &defaultPostClient{
	client: &http.Client{Timeout: 30 * time.Second},
}

// PROutput is one requested output of a payment request.
type PROutput struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

// PaymentRequest is a merchant payment request fetched from the r= parameter
// of a payment URI.
type PaymentRequest struct {
	Network      string          `json:"network,omitempty"`
	Outputs      []PROutput      `json:"outputs"`
	CreationTime int64           `json:"time,omitempty"`
	Expires      int64           `json:"expires,omitempty"`
	Memo         string          `json:"memo,omitempty"`
	PaymentURL   string          `json:"payment_url,omitempty"`
	MerchantData json.RawMessage `json:"merchant_data,omitempty"`
	Requestor    string          `json:"requestor,omitempty"`
}

// Verify checks the request is payable: at least one output, valid
// addresses, positive total, not yet expired.
func (r *PaymentRequest) Verify() error {
	if len(r.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs", ErrInvalidRequest)
	}
	var total int64
	for i, o := range r.Outputs {
		if !tx.IsValidAddress(o.Address) {
			return fmt.Errorf("%w: output %d address %q", ErrInvalidRequest, i, o.Address)
		}
		if o.Amount < 0 {
			return fmt.Errorf("%w: output %d negative amount", ErrInvalidRequest, i)
		}
		total += o.Amount
	}
	if total <= 0 {
		return fmt.Errorf("%w: zero total", ErrInvalidRequest)
	}
	if r.HasExpired(time.Now()) {
		return ErrExpired
	}
	return nil
}

// Total returns the sum of requested output values in satoshis.
func (r *PaymentRequest) Total() int64 {
	var total int64
	for _, o := range r.Outputs {
		total += o.Amount
	}
	return total
}

// HasExpired reports whether the request's expiry timestamp has passed.
// Requests without an expiry never expire.
func (r *PaymentRequest) HasExpired(now time.Time) bool {
	return r.Expires > 0 && now.Unix() > r.Expires
}

// Fetch retrieves and verifies a payment request from url. A nil client uses
// the default.
func Fetch(url string, client HTTPClient) (*PaymentRequest, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty url", ErrFetchFailed)
	}
	if client == nil {
		client = DefaultHTTPClient
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrFetchFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrFetchFailed, url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrFetchFailed, err)
	}

	var pr PaymentRequest
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("%w: parsing JSON: %w", ErrInvalidRequest, err)
	}
	if err := pr.Verify(); err != nil {
		return nil, err
	}
	return &pr, nil
}

// payment is the body POSTed to the merchant's payment URL.
type payment struct {
	Currency     string          `json:"currency"`
	Transactions []string        `json:"transactions"`
	RefundTo     []string        `json:"refund_to,omitempty"`
	MerchantData json.RawMessage `json:"merchant_data,omitempty"`
	Memo         string          `json:"memo,omitempty"`
}

// paymentACK is the merchant's response.
type paymentACK struct {
	Memo  string `json:"memo"`
	Error string `json:"error"`
}

// SendPayment delivers the signed transaction to the merchant's payment URL
// and returns the merchant's memo. A request without a payment URL returns
// (false, NoURLMemo, nil); the caller proceeds on chain broadcast alone.
func (r *PaymentRequest) SendPayment(rawTxHex, refundAddr string, client PostClient) (bool, string, error) {
	if r.PaymentURL == "" {
		return false, NoURLMemo, nil
	}
	if rawTxHex == "" {
		return false, "", fmt.Errorf("%w: raw transaction", ErrNilParam)
	}
	if client == nil {
		client = DefaultPostClient
	}

	body := &payment{
		Currency:     "XEC",
		Transactions: []string{rawTxHex},
		MerchantData: r.MerchantData,
	}
	if refundAddr != "" {
		body.RefundTo = []string{refundAddr}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return false, "", fmt.Errorf("%w: encode payment: %w", ErrInvalidRequest, err)
	}

	resp, err := client.Post(r.PaymentURL, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return false, "", fmt.Errorf("%w: POST %s: %w", ErrPaymentRejected, r.PaymentURL, err)
	}
	defer resp.Body.Close()

	ackBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, "", fmt.Errorf("%w: reading ACK: %w", ErrPaymentRejected, err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, "", fmt.Errorf("%w: POST %s returned status %d", ErrPaymentRejected, r.PaymentURL, resp.StatusCode)
	}

	var ack paymentACK
	if err := json.Unmarshal(ackBody, &ack); err != nil {
		// Some processors return a plain-text memo.
		return true, string(ackBody), nil
	}
	if ack.Error != "" {
		return false, "", fmt.Errorf("%w: %s", ErrPaymentRejected, ack.Error)
	}
	return true, ack.Memo, nil
}
