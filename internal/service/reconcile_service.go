package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meridianhq/portal-backend/internal/account"
	"github.com/meridianhq/portal-backend/internal/gateway"
	"github.com/meridianhq/portal-backend/internal/model"
	"github.com/meridianhq/portal-backend/internal/repository"
	"go.uber.org/zap"
)

// ReconcileService drives the authoritative subscription/add-on updates
// for a verified payment notification. It runs after the webhook HTTP
// response has been sent; nothing here may surface an error to the
// gateway.
type ReconcileService interface {
	Process(ctx context.Context, event *gateway.WebhookEvent)
}

type reconcileService struct {
	purchases   repository.PurchaseRepository
	accounts    account.Client
	notify      NotifyService
	eventPrefix string
}

func NewReconcileService(purchases repository.PurchaseRepository, accounts account.Client, notify NotifyService, eventPrefix string) ReconcileService {
	return &reconcileService{purchases: purchases, accounts: accounts, notify: notify, eventPrefix: eventPrefix}
}

func (s *reconcileService) Process(ctx context.Context, event *gateway.WebhookEvent) {
	log := zap.L().With(zap.String("event_type", event.EventType), zap.String("notification_id", event.NotificationID))

	if !strings.HasPrefix(event.EventType, s.eventPrefix) {
		log.Info("ignoring non-payment webhook event")
		return
	}

	poNumber, ok := event.PONumber()
	if !ok {
		log.Warn("payment webhook carries no merchant reference")
		return
	}
	log = log.With(zap.Uint64("po_number", poNumber))

	p, err := s.purchases.FindByPONumber(ctx, poNumber)
	if err != nil {
		// A payment confirmation we cannot correlate is worth
		// investigating, but the gateway already got its 200.
		log.Error("no purchase found for payment webhook", zap.Error(err))
		return
	}
	log = log.With(zap.String("username", p.Username))

	if body, err := json.Marshal(event); err == nil {
		if err := s.purchases.AddTransactionResponse(ctx, p.ID, string(body)); err != nil {
			log.Error("failed to append webhook transaction response", zap.Error(err))
		}
	}

	if !event.Approved() {
		log.Info("payment not approved, skipping reconciliation")
		return
	}

	var subItem *model.LineItem
	var addonItems []model.LineItem
	for i := range p.LineItems {
		switch p.LineItems[i].ItemType {
		case model.ItemTypeSubscription:
			if subItem == nil {
				subItem = &p.LineItems[i]
			}
		case model.ItemTypeAddon:
			addonItems = append(addonItems, p.LineItems[i])
		}
	}
	if subItem == nil && len(addonItems) == 0 {
		s.notify.NotifyAdmin(
			fmt.Sprintf("Order #%d has no subscription state to reconcile", poNumber),
			fmt.Sprintf("Approved payment for order #%d (%s) contains neither subscription nor add-on line items.", poNumber, p.Username),
		)
		return
	}

	current, err := s.accounts.FetchSubscription(ctx, p.Username)
	if err != nil || current == nil || current.ID == "" {
		log.Error("cannot load current subscription for reconciliation", zap.Error(err))
		s.notify.NotifyAdmin(
			fmt.Sprintf("Reconciliation blocked for order #%d", poNumber),
			fmt.Sprintf("Approved payment for order #%d (%s) but the current subscription could not be loaded; manual follow-up required.", poNumber, p.Username),
		)
		return
	}

	var failures []string
	targetSubID := current.ID

	if subItem != nil {
		res := s.accounts.UpdateSubscription(ctx, current, subItem.Name, subItem.Quantity)
		if !res.Success {
			failures = append(failures, "subscription update: "+res.Error)
		} else if !current.HasPaidPlan() && res.Subscription != nil && res.Subscription.ID != "" {
			// The plan change created the paid subscription; add-ons must
			// attach to it, not to the old unpaid record.
			targetSubID = res.Subscription.ID
		}
	}

	if len(addonItems) > 0 && targetSubID != "" {
		res := s.accounts.UpdateAddons(ctx, targetSubID, account.AddonUpdatesFromLineItems(addonItems))
		if !res.Success {
			failures = append(failures, "addon update: "+res.Error)
		}
	}

	s.notify.SendReceipt(p)

	if len(failures) > 0 {
		log.Error("reconciliation completed with failures", zap.Strings("failures", failures))
		s.notify.NotifyAdmin(
			fmt.Sprintf("Reconciliation failures for order #%d", poNumber),
			fmt.Sprintf("Order #%d (%s): %s", poNumber, p.Username, strings.Join(failures, "; ")),
		)
	}
}
