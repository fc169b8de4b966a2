package pricing

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/meridianhq/portal-backend/internal/account"
	"github.com/meridianhq/portal-backend/internal/clock"
	"github.com/shopspring/decimal"
)

// renewalWindow is how far ahead of the current subscription's end date a
// renewal is allowed. End dates further out than this reject the order.
const renewalWindow = 30 * 24 * time.Hour

var (
	cardNumberRe = regexp.MustCompile(`^[0-9]{13,16}$`)
	expirationRe = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)
	countryRe    = regexp.MustCompile(`^[A-Za-z]{2}$`)
	currencyRe   = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// Engine validates order submissions and recomputes authoritative pricing
// from the upstream plan catalog. Client-submitted prices are never
// trusted.
type Engine struct {
	accounts account.Client
	clock    clock.Clock
}

func NewEngine(accounts account.Client, clk clock.Clock) *Engine {
	return &Engine{accounts: accounts, clock: clk}
}

// ValidateOrder runs the structural checks; the returned *Error joins one
// message per violated field.
func (e *Engine) ValidateOrder(req *OrderRequest) error {
	var problems []string

	if amt, err := decimal.NewFromString(req.Amount); err != nil || !amt.IsPositive() {
		problems = append(problems, "amount must be a positive decimal")
	}
	if !currencyRe.MatchString(req.CurrencyCode) {
		problems = append(problems, "currencyCode must be a 3-letter code")
	}

	cc := req.Payment.CreditCard
	if !cardNumberRe.MatchString(cc.CardNumber) {
		problems = append(problems, "payment.creditCard.cardNumber must be 13-16 digits")
	}
	if !expirationRe.MatchString(cc.ExpirationDate) {
		problems = append(problems, "payment.creditCard.expirationDate must be YYYY-MM")
	}
	if cc.CardCode == "" {
		problems = append(problems, "payment.creditCard.cardCode is required")
	}

	if len(req.LineItems) == 0 {
		problems = append(problems, "lineItems must not be empty")
	}
	for i, ref := range req.LineItems {
		li := ref.LineItem
		if li.ItemID == "" {
			problems = append(problems, fmt.Sprintf("lineItems[%d].itemId is required", i))
		}
		if li.Name == "" {
			problems = append(problems, fmt.Sprintf("lineItems[%d].name is required", i))
		}
		if li.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("lineItems[%d].quantity must be positive", i))
		}
		if price, err := decimal.NewFromString(li.UnitPrice); err != nil || !price.IsPositive() {
			problems = append(problems, fmt.Sprintf("lineItems[%d].unitPrice must be a positive decimal", i))
		}
	}

	bt := req.BillTo
	for _, f := range []struct{ name, val string }{
		{"billTo.firstName", bt.FirstName},
		{"billTo.lastName", bt.LastName},
		{"billTo.address", bt.Address},
		{"billTo.city", bt.City},
		{"billTo.state", bt.State},
		{"billTo.zip", bt.Zip},
	} {
		if strings.TrimSpace(f.val) == "" {
			problems = append(problems, f.name+" is required")
		}
	}
	if !countryRe.MatchString(bt.Country) {
		problems = append(problems, "billTo.country must be a 2-letter code")
	}

	if len(problems) > 0 {
		return badField(strings.Join(problems, "; "))
	}
	return nil
}

// Quote re-derives the authoritative order total from the upstream plan
// catalog and enforces the renewal window. It must run only after
// ValidateOrder has passed.
func (e *Engine) Quote(ctx context.Context, username string, req *OrderRequest) (decimal.Decimal, error) {
	if sub := req.SubscriptionItem(); sub != nil {
		if err := e.checkRenewalWindow(ctx, username); err != nil {
			return decimal.Zero, err
		}
	}

	plans, err := e.accounts.FetchPlans(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch plan catalog: %w", err)
	}
	rates := make(map[string]decimal.Decimal, len(plans))
	for _, p := range plans {
		rate, err := decimal.NewFromString(p.Rate)
		if err != nil {
			return decimal.Zero, fmt.Errorf("plan %q has malformed rate %q: %w", p.Name, p.Rate, err)
		}
		rates[p.Name] = rate
	}

	total := decimal.Zero
	for _, ref := range req.LineItems {
		li := ref.LineItem
		rate, ok := rates[li.Name]
		if !ok {
			return decimal.Zero, notFound(fmt.Sprintf("unknown plan %q", li.Name))
		}
		total = total.Add(rate.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}

	submitted, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return decimal.Zero, badField("amount must be a positive decimal")
	}
	if !total.Equal(submitted) {
		return decimal.Zero, conflict("submitted amount does not match current pricing", total.String())
	}
	return total, nil
}

func (e *Engine) checkRenewalWindow(ctx context.Context, username string) error {
	sub, err := e.accounts.FetchSubscription(ctx, username)
	if err != nil {
		return fmt.Errorf("fetch current subscription: %w", err)
	}
	end := sub.EndDate()
	if end.IsZero() {
		return badRequest("current subscription has no end date")
	}
	if end.After(e.clock.Now().Add(renewalWindow)) {
		return badRequest("subscription renewal window is not open yet")
	}
	return nil
}
