package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/meridianhq/portal-backend/internal/authctx"
	"github.com/meridianhq/portal-backend/internal/gateway"
	"github.com/meridianhq/portal-backend/internal/service"
	"go.uber.org/zap"
)

// WebhookHandler is the payment gateway's entry point. It verifies and
// acknowledges quickly, then hands the event to the reconciler in the
// background: the gateway enforces its own response-time SLA and retries
// on timeout, which would risk duplicate processing.
type WebhookHandler struct {
	secret     string
	reconciler service.ReconcileService
}

func NewWebhookHandler(secret string, reconciler service.ReconcileService) *WebhookHandler {
	return &WebhookHandler{secret: secret, reconciler: reconciler}
}

func (h *WebhookHandler) Receive(c echo.Context) error {
	if h.secret == "" {
		zap.L().Error("webhook rejected, GATEWAY_WEBHOOK_SECRET not configured")
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("misconfigured", "webhook secret not configured"))
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable body"))
	}

	signature := c.Request().Header.Get(gateway.SignatureHeader)
	if !gateway.VerifySignature(body, signature, h.secret) {
		zap.L().Warn("webhook signature mismatch")
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "signature mismatch"))
	}

	var event gateway.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "malformed payload"))
	}

	// Acknowledge before reconciling. Errors past this point are logged
	// and routed to operators; the gateway has no use for them and must
	// not be encouraged to retry.
	go h.process(&event)

	return c.String(http.StatusOK, "ok")
}

func (h *WebhookHandler) process(event *gateway.WebhookEvent) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("webhook reconciliation panicked",
				zap.Any("panic", r), zap.String("event_type", event.EventType))
		}
	}()
	ctx := authctx.WithRID(context.Background(), event.NotificationID)
	h.reconciler.Process(ctx, event)
}
