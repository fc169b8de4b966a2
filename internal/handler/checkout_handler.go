package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/meridianhq/portal-backend/internal/pricing"
	"github.com/meridianhq/portal-backend/internal/service"
)

type CheckoutHandler struct {
	svc service.CheckoutService
}

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) Submit(c echo.Context) error {
	username, _ := c.Get("username").(string)
	if username == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing session"))
	}

	var req pricing.OrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(string(pricing.CodeBadOrMissingField), "malformed request body"))
	}

	result, err := h.svc.SubmitOrder(c.Request().Context(), username, c.RealIP(), &req)
	if err != nil {
		var pe *pricing.Error
		if errors.As(err, &pe) {
			return c.JSON(pe.Status, NewPricingErrorResponse(string(pe.Code), pe.Message, pe.CurrentPricing))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "failed to submit order"))
	}
	return c.JSON(http.StatusOK, result)
}
