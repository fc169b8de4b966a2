package model

import "time"

type ItemType string

const (
	ItemTypeSubscription ItemType = "subscription"
	ItemTypeAddon        ItemType = "addon"
)

// LineItem is one purchasable unit within an order, owned exclusively by
// its Purchase and immutable after the purchase transaction commits.
type LineItem struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	PurchaseID  string    `gorm:"column:purchase_id;size:36;index;not null"`
	ItemType    ItemType  `gorm:"column:item_type;size:16;not null"`
	ItemID      string    `gorm:"column:item_id;size:120;not null"`
	Name        string    `gorm:"column:name;size:255;not null"`
	Description string    `gorm:"column:description;type:text"`
	Quantity    int       `gorm:"column:quantity;not null"`
	UnitPrice   string    `gorm:"column:unit_price;size:32;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (LineItem) TableName() string {
	return "line_items"
}
