package model

import "time"

// TransactionResponse is one payment-gateway result appended to a
// purchase's history. Entries are never deleted; reads return the most
// recent entry first.
type TransactionResponse struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	PurchaseID string    `gorm:"column:purchase_id;size:36;index;not null"`
	Body       string    `gorm:"column:body;type:text;not null"` // raw gateway JSON
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (TransactionResponse) TableName() string {
	return "transaction_responses"
}
