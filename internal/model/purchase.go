package model

import "time"

// Purchase is one purchase order. The po_number comes from the store's
// auto-increment sequence and is the merchant reference handed to the
// payment gateway; it is never derived from client input.
type Purchase struct {
	PONumber             uint64    `gorm:"column:po_number;primaryKey;autoIncrement"`
	ID                   string    `gorm:"column:id;size:36;uniqueIndex;not null"`
	Username             string    `gorm:"column:username;size:255;index;not null"`
	Amount               string    `gorm:"column:amount;size:32;not null"` // exact decimal string, never float
	Currency             string    `gorm:"column:currency;size:3;not null;default:USD"`
	PaymentID            uint64    `gorm:"column:payment_id;not null"`
	BillingInformationID uint64    `gorm:"column:billing_information_id;not null"`
	CustomerIP           string    `gorm:"column:customer_ip;size:64"`
	OrderDate            time.Time `gorm:"column:order_date;not null"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`

	LineItems            []LineItem            `gorm:"foreignKey:PurchaseID;references:ID"`
	TransactionResponses []TransactionResponse `gorm:"foreignKey:PurchaseID;references:ID"`
}

func (Purchase) TableName() string {
	return "purchases"
}
