package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
)

// SignatureHeader carries the gateway's HMAC over the raw request body.
const SignatureHeader = "X-Gateway-Signature"

const signaturePrefix = "sha512="

// WebhookEvent is one asynchronous payment notification.
type WebhookEvent struct {
	NotificationID string          `json:"notificationId"`
	EventType      string          `json:"eventType"`
	Payload        *WebhookPayload `json:"payload"`
}

type WebhookPayload struct {
	TransID           string      `json:"transId"`
	ResponseCode      string      `json:"responseCode"` // "approved" on success
	MerchantReference json.Number `json:"merchantReference"`
	AuthAmount        string      `json:"authAmount"`
}

// Approved reports whether the notification confirms a successful charge.
func (e *WebhookEvent) Approved() bool {
	return e.Payload != nil && e.Payload.ResponseCode == "approved"
}

// PONumber extracts the merchant reference assigned at checkout. The
// second return is false when the payload carries none.
func (e *WebhookEvent) PONumber() (uint64, bool) {
	if e.Payload == nil || e.Payload.MerchantReference == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(e.Payload.MerchantReference.String(), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// VerifySignature checks the sha512= HMAC header against the raw body
// using constant-time comparison.
func VerifySignature(body []byte, header, secret string) bool {
	if secret == "" || !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}
