package invoice

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

func mockedClient(t *testing.T) *http.Client {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestInvoiceValidate(t *testing.T) {
	tests := []struct {
		name string
		inv  Invoice
		ok   bool
	}{
		{
			name: "valid XEC invoice",
			inv:  Invoice{ID: "a", Address: testAddr, Amount: 100, Currency: "XEC"},
			ok:   true,
		},
		{
			name: "valid fiat invoice",
			inv: Invoice{
				ID: "b", Address: testAddr, Amount: 5, Currency: "USD",
				ExchangeRate: &ExchangeRate{Fixed: 40000},
			},
			ok: true,
		},
		{name: "missing id", inv: Invoice{Address: testAddr, Amount: 1, Currency: "XEC"}},
		{name: "bad address", inv: Invoice{ID: "c", Address: "nope", Amount: 1, Currency: "XEC"}},
		{name: "zero amount", inv: Invoice{ID: "d", Address: testAddr, Currency: "XEC"}},
		{name: "fiat without rate", inv: Invoice{ID: "e", Address: testAddr, Amount: 1, Currency: "USD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inv.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidInvoice)
			}
		})
	}
}

func TestXECAmountNativeCurrency(t *testing.T) {
	inv := &Invoice{ID: "a", Address: testAddr, Amount: 12.34, Currency: "XEC"}
	sats, err := inv.XECAmount(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), sats)
}

func TestXECAmountFixedRate(t *testing.T) {
	// 5 USD at 40000 XEC/USD = 200000 XEC = 20000000 sats.
	inv := &Invoice{
		ID: "a", Address: testAddr, Amount: 5, Currency: "USD",
		ExchangeRate: &ExchangeRate{Fixed: 40000},
	}
	sats, err := inv.XECAmount(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(20000000), sats)
}

func TestXECAmountAPIRate(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, "https://rates.example/api",
		httpmock.NewStringResponder(http.StatusOK, `{"data":{"XEC":{"USD":40000}}}`))

	inv := &Invoice{
		ID: "a", Address: testAddr, Amount: 5, Currency: "USD",
		ExchangeRate: &ExchangeRate{API: &RateAPI{
			URL:  "https://rates.example/api",
			Keys: []string{"data", "XEC", "USD"},
		}},
	}
	sats, err := inv.XECAmount(client)
	require.NoError(t, err)
	assert.Equal(t, int64(20000000), sats)
}

func TestXECAmountAPIRateErrors(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, "https://rates.example/down",
		httpmock.NewStringResponder(http.StatusInternalServerError, "oops"))
	httpmock.RegisterResponder(http.MethodGet, "https://rates.example/missing",
		httpmock.NewStringResponder(http.StatusOK, `{"data":{}}`))

	inv := &Invoice{
		ID: "a", Address: testAddr, Amount: 5, Currency: "USD",
		ExchangeRate: &ExchangeRate{API: &RateAPI{
			URL:  "https://rates.example/down",
			Keys: []string{"data", "XEC", "USD"},
		}},
	}
	_, err := inv.XECAmount(client)
	assert.ErrorIs(t, err, ErrExchangeRateAPI)

	inv.ExchangeRate.API.URL = "https://rates.example/missing"
	_, err = inv.XECAmount(client)
	assert.ErrorIs(t, err, ErrExchangeRateAPI)
}

func TestExchangeRateJSONRoundTrip(t *testing.T) {
	inv := &Invoice{
		ID: "rt", Address: testAddr, Amount: 5, Currency: "EUR",
		ExchangeRate: &ExchangeRate{API: &RateAPI{
			URL:  "https://rates.example/api",
			Keys: []string{"EUR"},
		}},
	}

	path := filepath.Join(t.TempDir(), "invoice.json")
	require.NoError(t, inv.ToFile(path))

	loaded, err := FromFile(path)
	require.NoError(t, err)
	require.NotNil(t, loaded.ExchangeRate.API)
	assert.Equal(t, inv.ExchangeRate.API.URL, loaded.ExchangeRate.API.URL)
	assert.Equal(t, inv.ExchangeRate.API.Keys, loaded.ExchangeRate.API.Keys)

	// Fixed-rate form round-trips as a bare number.
	inv.ExchangeRate = &ExchangeRate{Fixed: 40000}
	require.NoError(t, inv.ToFile(path))
	loaded, err = FromFile(path)
	require.NoError(t, err)
	assert.Nil(t, loaded.ExchangeRate.API)
	assert.Equal(t, float64(40000), loaded.ExchangeRate.Fixed)
}

func TestStorePaidFlow(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "invoices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	inv := &Invoice{ID: "inv-1", Address: testAddr, Amount: 100, Currency: "XEC"}
	require.NoError(t, s.Put(inv))
	require.NoError(t, s.Put(&Invoice{ID: "inv-2", Address: testAddr, Amount: 50, Currency: "XEC"}))

	unpaid, err := s.List(true)
	require.NoError(t, err)
	assert.Len(t, unpaid, 2)

	require.NoError(t, s.SetPaid("inv-1", "deadbeef"))

	stored, err := s.Get("inv-1")
	require.NoError(t, err)
	assert.True(t, stored.Paid)
	assert.Equal(t, "deadbeef", stored.TxID)

	unpaid, err = s.List(true)
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, "inv-2", unpaid[0].Invoice.ID)

	all, err := s.List(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, s.SetPaid("nope", "x"), ErrNotFound)
}
