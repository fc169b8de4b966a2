package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meridianhq/portal-backend/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddPurchaseInput carries everything needed to record one checkout
// attempt. Line items arrive without a PurchaseID; the repository assigns
// the owner after the purchase row exists.
type AddPurchaseInput struct {
	Username        string
	CustomerIP      string
	Amount          string
	Currency        string
	CardNumberLast4 string
	ExpirationMonth string
	BillTo          model.BillingInformation
	LineItems       []model.LineItem
}

// SortColumns maps API sort field names to their backing columns. Handlers
// must reject anything not present here before calling ListByUsername.
var SortColumns = map[string]string{
	"poNumber":  "po_number",
	"orderDate": "order_date",
	"amount":    "amount",
}

type PurchaseRepository interface {
	AddPurchaseRecord(ctx context.Context, in AddPurchaseInput) (*model.Purchase, error)
	AddTransactionResponse(ctx context.Context, purchaseID string, body string) error
	FindByPONumber(ctx context.Context, poNumber uint64) (*model.Purchase, error)
	FindUserPurchase(ctx context.Context, username string, poNumber uint64) (*model.Purchase, error)
	ListByUsername(ctx context.Context, username, orderColumn, orderDir string) ([]model.Purchase, error)
	SetDB(db *gorm.DB)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

// AddPurchaseRecord runs the whole write set in one transaction: reuse or
// create the card fingerprint, reuse or create the billing row, insert the
// purchase (po_number from the sequence), then bulk-insert line items. Any
// failure rolls the entire set back; a failed rollback is logged but the
// original error is what propagates.
func (r *purchaseRepository) AddPurchaseRecord(ctx context.Context, in AddPurchaseInput) (*model.Purchase, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	payment, err := findOrCreatePayment(tx, in)
	if err != nil {
		return nil, rollback(tx, fmt.Errorf("resolve payment fingerprint: %w", err))
	}

	billing, err := findOrCreateBillingInformation(tx, in.BillTo)
	if err != nil {
		return nil, rollback(tx, fmt.Errorf("resolve billing information: %w", err))
	}

	p := &model.Purchase{
		ID:                   uuid.NewString(),
		Username:             in.Username,
		Amount:               in.Amount,
		Currency:             in.Currency,
		PaymentID:            payment.ID,
		BillingInformationID: billing.ID,
		CustomerIP:           in.CustomerIP,
		OrderDate:            tx.NowFunc(),
	}
	if err := tx.Omit("LineItems", "TransactionResponses").Create(p).Error; err != nil {
		return nil, rollback(tx, fmt.Errorf("insert purchase: %w", err))
	}

	items := make([]model.LineItem, len(in.LineItems))
	copy(items, in.LineItems)
	for i := range items {
		items[i].PurchaseID = p.ID
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return nil, rollback(tx, fmt.Errorf("insert line items: %w", err))
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, rollback(tx, fmt.Errorf("commit purchase: %w", err))
	}
	p.LineItems = items
	return p, nil
}

func rollback(tx *gorm.DB, cause error) error {
	if rbErr := tx.Rollback().Error; rbErr != nil && rbErr != gorm.ErrInvalidTransaction {
		zap.L().Error("purchase transaction rollback failed", zap.Error(rbErr))
	}
	return cause
}

func findOrCreatePayment(tx *gorm.DB, in AddPurchaseInput) (*model.Payment, error) {
	var payment model.Payment
	err := tx.Where("username = ? AND card_number_last4 = ? AND expiration_month = ?",
		in.Username, in.CardNumberLast4, in.ExpirationMonth).
		First(&payment).Error
	if err == nil {
		return &payment, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	payment = model.Payment{
		Username:        in.Username,
		CardNumberLast4: in.CardNumberLast4,
		ExpirationMonth: in.ExpirationMonth,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func findOrCreateBillingInformation(tx *gorm.DB, b model.BillingInformation) (*model.BillingInformation, error) {
	var existing model.BillingInformation
	err := tx.Where(
		"first_name = ? AND last_name = ? AND company = ? AND address = ? AND city = ? AND state = ? AND zip = ? AND country = ?",
		b.FirstName, b.LastName, b.Company, b.Address, b.City, b.State, b.Zip, b.Country).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	b.ID = 0
	if err := tx.Create(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// AddTransactionResponse appends one gateway result to a purchase's
// history. At-least-once semantics: duplicate content appends twice.
func (r *purchaseRepository) AddTransactionResponse(ctx context.Context, purchaseID string, body string) error {
	rec := &model.TransactionResponse{
		PurchaseID: purchaseID,
		Body:       body,
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *purchaseRepository) FindByPONumber(ctx context.Context, poNumber uint64) (*model.Purchase, error) {
	var p model.Purchase
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		Preload("TransactionResponses", func(db *gorm.DB) *gorm.DB {
			return db.Order("id DESC")
		}).
		Where("po_number = ?", poNumber).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepository) FindUserPurchase(ctx context.Context, username string, poNumber uint64) (*model.Purchase, error) {
	var p model.Purchase
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		Preload("TransactionResponses", func(db *gorm.DB) *gorm.DB {
			return db.Order("id DESC")
		}).
		Where("po_number = ? AND username = ?", poNumber, username).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepository) ListByUsername(ctx context.Context, username, orderColumn, orderDir string) ([]model.Purchase, error) {
	if orderColumn == "" {
		orderColumn = "po_number"
	}
	if orderDir != "asc" {
		orderDir = "desc"
	}
	var list []model.Purchase
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("username = ?", username).
		Order(orderColumn + " " + orderDir).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *purchaseRepository) SetDB(db *gorm.DB) {
	r.db = db
}
