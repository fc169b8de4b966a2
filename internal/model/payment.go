package model

import "time"

// Payment is a card fingerprint: last four digits plus expiration month,
// deduplicated per user. Full card numbers and CVV are never stored.
type Payment struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	Username        string    `gorm:"column:username;size:255;index;not null"`
	CardNumberLast4 string    `gorm:"column:card_number_last4;size:4;not null"`
	ExpirationMonth string    `gorm:"column:expiration_month;size:7;not null"` // YYYY-MM
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
