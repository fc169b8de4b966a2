package pricing

import "github.com/meridianhq/portal-backend/internal/model"

// OrderRequest is the raw checkout submission as posted by the browser.
type OrderRequest struct {
	Amount       string    `json:"amount"`
	CurrencyCode string    `json:"currencyCode"`
	Payment      Payment   `json:"payment"`
	LineItems    []LineRef `json:"lineItems"`
	BillTo       BillTo    `json:"billTo"`
}

type Payment struct {
	CreditCard CreditCard `json:"creditCard"`
}

type CreditCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"` // YYYY-MM
	CardCode       string `json:"cardCode"`
}

type LineRef struct {
	LineItem LineItem `json:"lineItem"`
}

type LineItem struct {
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
}

type BillTo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company,omitempty"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

// ItemType classifies a line item by its catalog identifier.
func (li LineItem) ItemType() model.ItemType {
	if li.ItemID == "subscription" {
		return model.ItemTypeSubscription
	}
	return model.ItemTypeAddon
}

// SubscriptionItem returns the first subscription line item, if any.
func (r *OrderRequest) SubscriptionItem() *LineItem {
	for i := range r.LineItems {
		if r.LineItems[i].LineItem.ItemType() == model.ItemTypeSubscription {
			return &r.LineItems[i].LineItem
		}
	}
	return nil
}
