package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/meridianhq/portal-backend/internal/model"
	"github.com/meridianhq/portal-backend/internal/repository"
	"gorm.io/gorm"
)

type OrderHandler struct {
	purchases repository.PurchaseRepository
}

func NewOrderHandler(purchases repository.PurchaseRepository) *OrderHandler {
	return &OrderHandler{purchases: purchases}
}

type OrderResponse struct {
	PONumber   uint64              `json:"poNumber"`
	PurchaseID string              `json:"purchaseId"`
	Amount     string              `json:"amount"`
	Currency   string              `json:"currency"`
	OrderDate  string              `json:"orderDate"`
	LineItems  []OrderItemResponse `json:"lineItems"`
	History    []string            `json:"transactionResponses,omitempty"`
}

type OrderItemResponse struct {
	ItemType    string `json:"itemType"`
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
}

func toOrderResponse(p *model.Purchase, withHistory bool) OrderResponse {
	resp := OrderResponse{
		PONumber:   p.PONumber,
		PurchaseID: p.ID,
		Amount:     p.Amount,
		Currency:   p.Currency,
		OrderDate:  p.OrderDate.Format(time.RFC3339),
	}
	for _, it := range p.LineItems {
		resp.LineItems = append(resp.LineItems, OrderItemResponse{
			ItemType:    string(it.ItemType),
			ItemID:      it.ItemID,
			Name:        it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	if withHistory {
		for _, tr := range p.TransactionResponses {
			resp.History = append(resp.History, tr.Body)
		}
	}
	return resp
}

// ListMine returns the caller's purchases, sorted by an enum-validated
// column.
func (h *OrderHandler) ListMine(c echo.Context) error {
	username, _ := c.Get("username").(string)
	if username == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing session"))
	}

	orderBy := c.QueryParam("orderBy")
	orderColumn := "po_number"
	if orderBy != "" {
		col, ok := repository.SortColumns[orderBy]
		if !ok {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid orderBy value"))
		}
		orderColumn = col
	}
	orderDir := c.QueryParam("orderDir")
	switch orderDir {
	case "", "asc", "desc":
	default:
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid orderDir value"))
	}
	if orderDir == "" {
		orderDir = "desc"
	}

	list, err := h.purchases.ListByUsername(c.Request().Context(), username, orderColumn, orderDir)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "failed to list orders"))
	}
	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOrderResponse(&list[i], false))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get returns one of the caller's purchases by PO number; purchases owned
// by anyone else read as not found.
func (h *OrderHandler) Get(c echo.Context) error {
	username, _ := c.Get("username").(string)
	if username == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing session"))
	}
	poNumber, err := strconv.ParseUint(c.Param("poNumber"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid po number"))
	}
	p, err := h.purchases.FindUserPurchase(c.Request().Context(), username, poNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "order not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "failed to load order"))
	}
	return c.JSON(http.StatusOK, toOrderResponse(p, true))
}
