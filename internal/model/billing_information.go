package model

import "time"

// BillingInformation is deduplicated by exact match on every field before
// insert; existing rows are reused, never updated.
type BillingInformation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	FirstName string    `gorm:"column:first_name;size:120;not null"`
	LastName  string    `gorm:"column:last_name;size:120;not null"`
	Company   string    `gorm:"column:company;size:255"`
	Address   string    `gorm:"column:address;size:255;not null"`
	City      string    `gorm:"column:city;size:120;not null"`
	State     string    `gorm:"column:state;size:120;not null"`
	Zip       string    `gorm:"column:zip;size:32;not null"`
	Country   string    `gorm:"column:country;size:2;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (BillingInformation) TableName() string {
	return "billing_information"
}
