package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/meridianhq/portal-backend/internal/config"
	"github.com/meridianhq/portal-backend/internal/pricing"
	"go.uber.org/zap"
)

// ChargeRequest is everything the orchestrator supplies for one charge.
// The PO number is filled in only after the purchase row has committed.
type ChargeRequest struct {
	Amount       string
	CurrencyCode string
	Card         pricing.CreditCard
	LineItems    []pricing.LineRef
	PONumber     uint64
	BillTo       pricing.BillTo
	CustomerIP   string
}

// ChargeResponse is the processor's parsed result for one attempt.
type ChargeResponse struct {
	TransactionResponse *TransactionResult `json:"transactionResponse,omitempty"`
	Messages            *Messages          `json:"messages,omitempty"`

	// Message is synthesized on failure from the most specific error
	// source available so callers can render one summary line.
	Message string `json:"message,omitempty"`

	HTTPStatus int    `json:"httpStatus"`
	Raw        string `json:"-"`
	Parsed     bool   `json:"-"`
}

type TransactionResult struct {
	ResponseCode string             `json:"responseCode"`
	TransID      string             `json:"transId"`
	Errors       []TransactionError `json:"errors,omitempty"`
}

type TransactionError struct {
	ErrorCode string `json:"errorCode"`
	ErrorText string `json:"errorText"`
}

type Messages struct {
	ResultCode string    `json:"resultCode"`
	Message    []Message `json:"message,omitempty"`
}

type Message struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// OK reports whether the charge succeeded: the HTTP exchange was ok, the
// transaction carries no errors, and the top-level result is not "Error".
func (r *ChargeResponse) OK() bool {
	if r.HTTPStatus < 200 || r.HTTPStatus >= 300 {
		return false
	}
	if !r.Parsed {
		return false
	}
	if r.TransactionResponse != nil && len(r.TransactionResponse.Errors) > 0 {
		return false
	}
	if r.Messages != nil && r.Messages.ResultCode == "Error" {
		return false
	}
	return true
}

type Client interface {
	Charge(ctx context.Context, req ChargeRequest) *ChargeResponse
}

type client struct {
	url   string
	login string
	key   string
	http  *http.Client
}

func NewClient(cfg *config.Config) Client {
	return &client{
		url:   cfg.GatewayURL,
		login: cfg.GatewayLogin,
		key:   cfg.GatewayKey,
		http:  &http.Client{Timeout: 60 * time.Second},
	}
}

// buildRequest lays the transaction out in the processor's mandated field
// sequence: credentials, transaction type, amount, currency, payment,
// line items, PO number, bill-to, customer IP.
func (c *client) buildRequest(req ChargeRequest) orderedFields {
	lineItems := make([]orderedFields, 0, len(req.LineItems))
	for _, ref := range req.LineItems {
		li := ref.LineItem
		lineItems = append(lineItems, orderedFields{
			{"itemId", li.ItemID},
			{"name", li.Name},
			{"description", li.Description},
			{"quantity", li.Quantity},
			{"unitPrice", li.UnitPrice},
		})
	}
	transaction := orderedFields{
		{"transactionType", "authCaptureTransaction"},
		{"amount", req.Amount},
		{"currencyCode", req.CurrencyCode},
		{"payment", orderedFields{
			{"creditCard", orderedFields{
				{"cardNumber", req.Card.CardNumber},
				{"expirationDate", req.Card.ExpirationDate},
				{"cardCode", req.Card.CardCode},
			}},
		}},
		{"lineItems", orderedFields{{"lineItem", lineItems}}},
		{"poNumber", fmt.Sprintf("%d", req.PONumber)},
		{"billTo", orderedFields{
			{"firstName", req.BillTo.FirstName},
			{"lastName", req.BillTo.LastName},
			{"company", req.BillTo.Company},
			{"address", req.BillTo.Address},
			{"city", req.BillTo.City},
			{"state", req.BillTo.State},
			{"zip", req.BillTo.Zip},
			{"country", req.BillTo.Country},
		}},
		{"customerIP", req.CustomerIP},
	}
	return orderedFields{
		{"createTransactionRequest", orderedFields{
			{"merchantAuthentication", orderedFields{
				{"name", c.login},
				{"transactionKey", c.key},
			}},
			{"transactionRequest", transaction},
		}},
	}
}

// Charge submits the transaction. It never returns an error: every
// outcome, including transport failure and unparseable bodies, is folded
// into the response so the caller has one thing to classify and persist.
func (c *client) Charge(ctx context.Context, req ChargeRequest) *ChargeResponse {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return &ChargeResponse{HTTPStatus: http.StatusInternalServerError, Message: "failed to encode transaction request"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &ChargeResponse{HTTPStatus: http.StatusInternalServerError, Message: "failed to build transaction request"}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		zap.L().Error("payment gateway unreachable", zap.Error(err))
		return &ChargeResponse{HTTPStatus: http.StatusInternalServerError, Message: "payment gateway unreachable"}
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	raw := buf.String()

	out := &ChargeResponse{HTTPStatus: status, Raw: raw}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		// Keep going with the unparsed state; the raw text still gets
		// persisted with the purchase.
		zap.L().Warn("unparseable gateway response", zap.Int("status", status), zap.String("body", raw))
	} else {
		out.Parsed = true
	}

	if !out.OK() {
		out.Message = out.failureMessage()
	}
	return out
}

// failureMessage picks the most specific error available: transaction
// errors, then result messages, then the HTTP status text.
func (r *ChargeResponse) failureMessage() string {
	if r.TransactionResponse != nil && len(r.TransactionResponse.Errors) > 0 {
		return r.TransactionResponse.Errors[0].ErrorText
	}
	if r.Messages != nil && len(r.Messages.Message) > 0 {
		return r.Messages.Message[0].Text
	}
	return http.StatusText(r.HTTPStatus)
}
