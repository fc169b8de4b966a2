package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/meridianhq/portal-backend/internal/account"
)

// AccountHandler exposes the upstream usage and plan-catalog views the
// portal UI renders on the subscription page.
type AccountHandler struct {
	accounts account.Client
}

func NewAccountHandler(accounts account.Client) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) Summary(c echo.Context) error {
	username, _ := c.Get("username").(string)
	if username == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing session"))
	}
	usage, err := h.accounts.FetchUsage(c.Request().Context(), username)
	if err != nil {
		return c.JSON(http.StatusBadGateway, NewErrorResponse("upstream", "failed to load usage summary"))
	}
	sub, err := h.accounts.FetchSubscription(c.Request().Context(), username)
	if err != nil {
		return c.JSON(http.StatusBadGateway, NewErrorResponse("upstream", "failed to load subscription"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"usage":        usage,
		"subscription": sub,
	})
}

func (h *AccountHandler) Plans(c echo.Context) error {
	plans, err := h.accounts.FetchPlans(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, NewErrorResponse("upstream", "failed to load plan catalog"))
	}
	return c.JSON(http.StatusOK, plans)
}
