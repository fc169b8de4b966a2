package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/meridianhq/portal-backend/internal/account"
	"github.com/meridianhq/portal-backend/internal/gateway"
	"github.com/meridianhq/portal-backend/internal/model"
	"github.com/meridianhq/portal-backend/internal/repository"
	"gorm.io/gorm"
)

type fakeRepo struct {
	mu        sync.Mutex
	nextPO    uint64
	purchases map[uint64]*model.Purchase
	responses map[string][]string
	addErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextPO:    1000,
		purchases: make(map[uint64]*model.Purchase),
		responses: make(map[string][]string),
	}
}

func (f *fakeRepo) AddPurchaseRecord(ctx context.Context, in repository.AddPurchaseInput) (*model.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.nextPO++
	p := &model.Purchase{
		PONumber:  f.nextPO,
		ID:        "purchase-" + in.Username,
		Username:  in.Username,
		Amount:    in.Amount,
		Currency:  in.Currency,
		LineItems: in.LineItems,
	}
	for i := range p.LineItems {
		p.LineItems[i].PurchaseID = p.ID
	}
	f.purchases[p.PONumber] = p
	return p, nil
}

func (f *fakeRepo) AddTransactionResponse(ctx context.Context, purchaseID string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[purchaseID] = append(f.responses[purchaseID], body)
	return nil
}

func (f *fakeRepo) FindByPONumber(ctx context.Context, poNumber uint64) (*model.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.purchases[poNumber]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepo) FindUserPurchase(ctx context.Context, username string, poNumber uint64) (*model.Purchase, error) {
	p, err := f.FindByPONumber(ctx, poNumber)
	if err != nil || p.Username != username {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListByUsername(ctx context.Context, username, orderColumn, orderDir string) ([]model.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Purchase
	for _, p := range f.purchases {
		if p.Username == username {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetDB(db *gorm.DB) {}

type subscriptionCall struct {
	planName string
	periods  int
	username string
}

type addonCall struct {
	subscriptionID string
	addons         []account.AddonUpdate
}

type fakeAccounts struct {
	mu sync.Mutex

	sub    *account.Subscription
	subErr error
	plans  []account.Plan

	updateResult account.UpdateResult
	addonResult  account.UpdateResult

	subscriptionCalls []subscriptionCall
	addonCalls        []addonCall
}

func (f *fakeAccounts) FetchSubscription(ctx context.Context, username string) (*account.Subscription, error) {
	return f.sub, f.subErr
}

func (f *fakeAccounts) FetchPlans(ctx context.Context) ([]account.Plan, error) {
	return f.plans, nil
}

func (f *fakeAccounts) FetchUsage(ctx context.Context, username string) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeAccounts) UpdateSubscription(ctx context.Context, current *account.Subscription, planName string, periods int) account.UpdateResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptionCalls = append(f.subscriptionCalls, subscriptionCall{planName: planName, periods: periods, username: current.Username})
	return f.updateResult
}

func (f *fakeAccounts) UpdateAddons(ctx context.Context, subscriptionID string, addons []account.AddonUpdate) account.UpdateResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addonCalls = append(f.addonCalls, addonCall{subscriptionID: subscriptionID, addons: addons})
	return f.addonResult
}

type fakeNotify struct {
	mu       sync.Mutex
	receipts []uint64
	admin    []string
}

func (f *fakeNotify) SendReceipt(p *model.Purchase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, p.PONumber)
}

func (f *fakeNotify) NotifyAdmin(subject, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admin = append(f.admin, subject)
}

type fakeGateway struct {
	response *gateway.ChargeResponse
	lastReq  gateway.ChargeRequest
}

func (f *fakeGateway) Charge(ctx context.Context, req gateway.ChargeRequest) *gateway.ChargeResponse {
	f.lastReq = req
	return f.response
}
