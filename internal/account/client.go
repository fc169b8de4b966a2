package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/meridianhq/portal-backend/internal/clock"
	"github.com/meridianhq/portal-backend/internal/config"
	"github.com/meridianhq/portal-backend/internal/model"
)

const dateLayout = "2006-01-02"

// Subscription is the upstream account service's view of a user's
// current subscription.
type Subscription struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	PlanName string `json:"planName"`
	Paid     bool   `json:"paid"`
	Start    string `json:"startDate"` // YYYY-MM-DD
	End      string `json:"endDate"`   // YYYY-MM-DD
}

// EndDate parses the subscription end date; the zero time means the
// upstream record carries none.
func (s *Subscription) EndDate() time.Time {
	if s == nil || s.End == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s.End)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HasPaidPlan reports whether the subscription is a paid base plan.
// When false, a plan change creates a fresh subscription upstream and
// add-on updates must target the new subscription id, not the old one.
func (s *Subscription) HasPaidPlan() bool {
	return s != nil && s.Paid && s.PlanName != FreePlanName
}

// FreePlanName is the upstream catalog's unpaid base tier.
const FreePlanName = "Free"

// Plan is one entry of the upstream plan catalog.
type Plan struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rate        string `json:"rate"` // decimal string per billing period
}

// AddonUpdate is one add-on quantity mutation.
type AddonUpdate struct {
	AddonID  string `json:"addonId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// UpdateResult is the uniform shape every mutation returns so callers
// never have to distinguish transport failures from business failures.
type UpdateResult struct {
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// Client is the facade over the upstream account-management API.
type Client interface {
	FetchSubscription(ctx context.Context, username string) (*Subscription, error)
	FetchPlans(ctx context.Context) ([]Plan, error)
	FetchUsage(ctx context.Context, username string) (json.RawMessage, error)
	UpdateSubscription(ctx context.Context, current *Subscription, planName string, periods int) UpdateResult
	UpdateAddons(ctx context.Context, subscriptionID string, addons []AddonUpdate) UpdateResult
}

type client struct {
	baseURL string
	http    *http.Client
	tokens  *tokenSource
	clock   clock.Clock
}

func NewClient(cfg *config.Config, clk clock.Clock) Client {
	return &client{
		baseURL: cfg.AccountBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  newTokenSource(cfg.AccountTokenURL, cfg.AccountClientID, cfg.AccountClientSecret, clk),
		clock:   clk,
	}
}

func (c *client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("account service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("account service returned %d: %s", resp.StatusCode, string(text))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode account response: %w", err)
	}
	return nil
}

func (c *client) FetchSubscription(ctx context.Context, username string) (*Subscription, error) {
	var sub Subscription
	path := "/subscriptions?username=" + url.QueryEscape(username)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *client) FetchPlans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := c.doJSON(ctx, http.MethodGet, "/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (c *client) FetchUsage(ctx context.Context, username string) (json.RawMessage, error) {
	var raw json.RawMessage
	path := "/usage?username=" + url.QueryEscape(username)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// UpdateSubscription changes the user's plan. The new period starts at
// whichever is later, the current end date or today, so an early renewal
// extends rather than truncates the remaining term.
func (c *client) UpdateSubscription(ctx context.Context, current *Subscription, planName string, periods int) UpdateResult {
	if current == nil {
		return UpdateResult{Success: false, Error: "no current subscription"}
	}
	start := current.EndDate()
	if today := c.clock.Now().Truncate(24 * time.Hour); start.Before(today) {
		start = today
	}
	body := map[string]any{
		"planName":  planName,
		"periods":   periods,
		"startDate": start.Format(dateLayout),
		"paid":      true,
	}
	var updated Subscription
	if err := c.doJSON(ctx, http.MethodPut, "/subscriptions/"+url.PathEscape(current.ID), body, &updated); err != nil {
		return UpdateResult{Success: false, Error: err.Error()}
	}
	return UpdateResult{Success: true, Subscription: &updated}
}

func (c *client) UpdateAddons(ctx context.Context, subscriptionID string, addons []AddonUpdate) UpdateResult {
	if subscriptionID == "" {
		return UpdateResult{Success: false, Error: "no subscription id for addon update"}
	}
	path := "/subscriptions/" + url.PathEscape(subscriptionID) + "/addons"
	if err := c.doJSON(ctx, http.MethodPut, path, addons, nil); err != nil {
		return UpdateResult{Success: false, Error: err.Error()}
	}
	return UpdateResult{Success: true}
}

// AddonUpdatesFromLineItems converts ledger line items of type addon into
// upstream mutations.
func AddonUpdatesFromLineItems(items []model.LineItem) []AddonUpdate {
	var out []AddonUpdate
	for _, it := range items {
		if it.ItemType != model.ItemTypeAddon {
			continue
		}
		out = append(out, AddonUpdate{AddonID: it.ItemID, Name: it.Name, Quantity: it.Quantity})
	}
	return out
}
