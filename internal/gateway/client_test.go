package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meridianhq/portal-backend/internal/config"
	"github.com/meridianhq/portal-backend/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChargeRequest() ChargeRequest {
	return ChargeRequest{
		Amount:       "49.90",
		CurrencyCode: "USD",
		Card: pricing.CreditCard{
			CardNumber:     "4111111111111111",
			ExpirationDate: "2027-04",
			CardCode:       "123",
		},
		LineItems: []pricing.LineRef{{LineItem: pricing.LineItem{
			ItemID: "subscription", Name: "Premium", Quantity: 1, UnitPrice: "49.90",
		}}},
		PONumber: 1001,
		BillTo: pricing.BillTo{
			FirstName: "Ada", LastName: "Lovelace", Address: "12 Analytical Way",
			City: "London", State: "LDN", Zip: "SW1A", Country: "GB",
		},
		CustomerIP: "203.0.113.9",
	}
}

func newTestClient(url string) *client {
	return NewClient(&config.Config{
		GatewayURL:   url,
		GatewayLogin: "merchant-login",
		GatewayKey:   "merchant-key",
	}).(*client)
}

// The processor translates the body into a strict XML schema, so the
// encoded JSON must keep its keys in the mandated order.
func TestBuildRequestFieldOrder(t *testing.T) {
	c := newTestClient("http://unused")
	body, err := json.Marshal(c.buildRequest(testChargeRequest()))
	require.NoError(t, err)
	s := string(body)

	keys := []string{
		`"merchantAuthentication"`,
		`"name"`,
		`"transactionKey"`,
		`"transactionRequest"`,
		`"transactionType"`,
		`"amount"`,
		`"currencyCode"`,
		`"payment"`,
		`"lineItems"`,
		`"poNumber"`,
		`"billTo"`,
		`"customerIP"`,
	}
	last := -1
	for _, k := range keys {
		idx := strings.Index(s, k)
		require.GreaterOrEqual(t, idx, 0, "missing key %s in %s", k, s)
		assert.Greater(t, idx, last, "key %s out of order in %s", k, s)
		last = idx
	}
	assert.Contains(t, s, `"poNumber":"1001"`)
}

func TestChargeClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantOK      bool
		wantMessage string
	}{
		{
			name:   "approved",
			status: http.StatusOK,
			body:   `{"transactionResponse":{"responseCode":"1","transId":"t-1"},"messages":{"resultCode":"Ok","message":[{"code":"I00001","text":"Successful."}]}}`,
			wantOK: true,
		},
		{
			name:        "transaction error wins",
			status:      http.StatusOK,
			body:        `{"transactionResponse":{"responseCode":"2","errors":[{"errorCode":"2","errorText":"This transaction has been declined."}]},"messages":{"resultCode":"Error","message":[{"code":"E00027","text":"The transaction was unsuccessful."}]}}`,
			wantOK:      false,
			wantMessage: "This transaction has been declined.",
		},
		{
			name:        "result error without transaction errors",
			status:      http.StatusOK,
			body:        `{"messages":{"resultCode":"Error","message":[{"code":"E00007","text":"User authentication failed."}]}}`,
			wantOK:      false,
			wantMessage: "User authentication failed.",
		},
		{
			name:        "http failure falls back to status text",
			status:      http.StatusBadGateway,
			body:        `{}`,
			wantOK:      false,
			wantMessage: http.StatusText(http.StatusBadGateway),
		},
		{
			name:        "unparseable body keeps raw text",
			status:      http.StatusOK,
			body:        `<html>not json</html>`,
			wantOK:      false,
			wantMessage: http.StatusText(http.StatusOK),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp := newTestClient(srv.URL).Charge(context.Background(), testChargeRequest())
			assert.Equal(t, tt.wantOK, resp.OK())
			assert.Equal(t, tt.status, resp.HTTPStatus)
			assert.Equal(t, tt.body, resp.Raw)
			if !tt.wantOK {
				assert.Equal(t, tt.wantMessage, resp.Message)
			}
		})
	}
}

func TestChargeNetworkFailure(t *testing.T) {
	resp := newTestClient("http://127.0.0.1:1").Charge(context.Background(), testChargeRequest())
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusInternalServerError, resp.HTTPStatus)
	assert.NotEmpty(t, resp.Message)
}
