package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/meridianhq/portal-backend/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatchRecorder struct {
	events chan *gateway.WebhookEvent
}

func newDispatchRecorder() *dispatchRecorder {
	return &dispatchRecorder{events: make(chan *gateway.WebhookEvent, 1)}
}

func (d *dispatchRecorder) Process(ctx context.Context, event *gateway.WebhookEvent) {
	d.events <- event
}

func (d *dispatchRecorder) received(t *testing.T) *gateway.WebhookEvent {
	t.Helper()
	select {
	case ev := <-d.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler was never dispatched")
		return nil
	}
}

func (d *dispatchRecorder) assertNotDispatched(t *testing.T) {
	t.Helper()
	select {
	case <-d.events:
		t.Fatal("reconciler dispatched unexpectedly")
	case <-time.After(50 * time.Millisecond):
	}
}

func signBody(body, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha512=" + hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(h *WebhookHandler, body, signature string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(gateway.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h.Receive(c)
	return rec
}

func TestWebhookAcceptsValidSignature(t *testing.T) {
	recorder := newDispatchRecorder()
	h := NewWebhookHandler("s", recorder)

	body := `{"notificationId":"n-1","eventType":"net.payment.capture.created","payload":{"responseCode":"approved","merchantReference":1001}}`
	rec := postWebhook(h, body, signBody(body, "s"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	ev := recorder.received(t)
	assert.Equal(t, "net.payment.capture.created", ev.EventType)
	po, ok := ev.PONumber()
	require.True(t, ok)
	assert.Equal(t, uint64(1001), po)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	recorder := newDispatchRecorder()
	h := NewWebhookHandler("s", recorder)

	body := `{"a":1}`
	valid := signBody(body, "s")

	t.Run("wrong secret", func(t *testing.T) {
		rec := postWebhook(h, body, signBody(body, "wrong"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("mutated signature", func(t *testing.T) {
		mutated := []byte(valid)
		last := len(mutated) - 1
		if mutated[last] == '0' {
			mutated[last] = '1'
		} else {
			mutated[last] = '0'
		}
		rec := postWebhook(h, body, string(mutated))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("mutated body", func(t *testing.T) {
		rec := postWebhook(h, `{"a":2}`, valid)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("missing header", func(t *testing.T) {
		rec := postWebhook(h, body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	recorder.assertNotDispatched(t)
}

func TestWebhookRejectsMalformedJSON(t *testing.T) {
	recorder := newDispatchRecorder()
	h := NewWebhookHandler("s", recorder)

	body := `{"not json`
	rec := postWebhook(h, body, signBody(body, "s"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	recorder.assertNotDispatched(t)
}

func TestWebhookRequiresConfiguredSecret(t *testing.T) {
	recorder := newDispatchRecorder()
	h := NewWebhookHandler("", recorder)

	body := `{"a":1}`
	rec := postWebhook(h, body, signBody(body, "s"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	recorder.assertNotDispatched(t)
}

// Unrecognized event types are acknowledged so the gateway stops
// retrying; dropping them is the reconciler's job, not the endpoint's.
func TestWebhookAcknowledgesUnknownEventType(t *testing.T) {
	recorder := newDispatchRecorder()
	h := NewWebhookHandler("s", recorder)

	body := `{"eventType":"net.other.event"}`
	rec := postWebhook(h, body, signBody(body, "s"))
	assert.Equal(t, http.StatusOK, rec.Code)
	recorder.received(t)
}
