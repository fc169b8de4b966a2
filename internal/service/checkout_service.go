package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/meridianhq/portal-backend/internal/account"
	"github.com/meridianhq/portal-backend/internal/gateway"
	"github.com/meridianhq/portal-backend/internal/model"
	"github.com/meridianhq/portal-backend/internal/pricing"
	"github.com/meridianhq/portal-backend/internal/repository"
	"go.uber.org/zap"
)

// CheckoutResult is the merged response for one interactive checkout
// attempt. PONumber is set as soon as the purchase row commits, so it is
// available to the user even when the charge itself fails.
type CheckoutResult struct {
	PONumber           uint64                  `json:"poNumber"`
	PurchaseID         string                  `json:"purchaseId"`
	Gateway            *gateway.ChargeResponse `json:"gateway"`
	SubscriptionUpdate *account.UpdateResult   `json:"subscriptionUpdate,omitempty"`
}

type CheckoutService interface {
	SubmitOrder(ctx context.Context, username, customerIP string, req *pricing.OrderRequest) (*CheckoutResult, error)
}

type checkoutService struct {
	engine    *pricing.Engine
	purchases repository.PurchaseRepository
	gateway   gateway.Client
	accounts  account.Client
}

func NewCheckoutService(engine *pricing.Engine, purchases repository.PurchaseRepository, gw gateway.Client, accounts account.Client) CheckoutService {
	return &checkoutService{engine: engine, purchases: purchases, gateway: gw, accounts: accounts}
}

// SubmitOrder runs the synchronous checkout path: validate, re-derive
// pricing, persist, charge, record the gateway response, then make a
// best-effort subscription update. The webhook path remains the
// authoritative one for subscription activation.
func (s *checkoutService) SubmitOrder(ctx context.Context, username, customerIP string, req *pricing.OrderRequest) (*CheckoutResult, error) {
	if err := s.engine.ValidateOrder(req); err != nil {
		return nil, err
	}
	total, err := s.engine.Quote(ctx, username, req)
	if err != nil {
		return nil, err
	}

	cc := req.Payment.CreditCard
	items := make([]model.LineItem, 0, len(req.LineItems))
	for _, ref := range req.LineItems {
		li := ref.LineItem
		items = append(items, model.LineItem{
			ItemType:    li.ItemType(),
			ItemID:      li.ItemID,
			Name:        li.Name,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
		})
	}
	p, err := s.purchases.AddPurchaseRecord(ctx, repository.AddPurchaseInput{
		Username:        username,
		CustomerIP:      customerIP,
		Amount:          total.String(),
		Currency:        strings.ToUpper(req.CurrencyCode),
		CardNumberLast4: cc.CardNumber[len(cc.CardNumber)-4:],
		ExpirationMonth: cc.ExpirationDate,
		BillTo: model.BillingInformation{
			FirstName: req.BillTo.FirstName,
			LastName:  req.BillTo.LastName,
			Company:   req.BillTo.Company,
			Address:   req.BillTo.Address,
			City:      req.BillTo.City,
			State:     req.BillTo.State,
			Zip:       req.BillTo.Zip,
			Country:   req.BillTo.Country,
		},
		LineItems: items,
	})
	if err != nil {
		return nil, err
	}
	result := &CheckoutResult{PONumber: p.PONumber, PurchaseID: p.ID}

	// The real PO number exists only now that the row has committed.
	charge := s.gateway.Charge(ctx, gateway.ChargeRequest{
		Amount:       total.String(),
		CurrencyCode: req.CurrencyCode,
		Card:         cc,
		LineItems:    req.LineItems,
		PONumber:     p.PONumber,
		BillTo:       req.BillTo,
		CustomerIP:   customerIP,
	})
	result.Gateway = charge

	if err := s.purchases.AddTransactionResponse(ctx, p.ID, chargeRecord(charge)); err != nil {
		zap.L().Error("failed to record gateway response",
			zap.Uint64("po_number", p.PONumber), zap.Error(err))
	}

	if charge.OK() {
		result.SubscriptionUpdate = s.applySubscription(ctx, username, req)
	}
	return result, nil
}

// applySubscription is the opportunistic synchronous update; any failure
// here is carried in the result, never as an error, since the webhook
// reconciliation will redo it authoritatively.
func (s *checkoutService) applySubscription(ctx context.Context, username string, req *pricing.OrderRequest) *account.UpdateResult {
	item := req.SubscriptionItem()
	if item == nil {
		return nil
	}
	sub, err := s.accounts.FetchSubscription(ctx, username)
	if err != nil {
		zap.L().Warn("synchronous subscription fetch failed, deferring to webhook",
			zap.String("username", username), zap.Error(err))
		return &account.UpdateResult{Success: false, Error: err.Error()}
	}
	res := s.accounts.UpdateSubscription(ctx, sub, item.Name, item.Quantity)
	return &res
}

// chargeRecord serializes a gateway response for the purchase ledger,
// falling back to the raw body when the response never parsed.
func chargeRecord(r *gateway.ChargeResponse) string {
	if !r.Parsed && r.Raw != "" {
		return r.Raw
	}
	buf, err := json.Marshal(r)
	if err != nil {
		return r.Raw
	}
	return string(buf)
}
