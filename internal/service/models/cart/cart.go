package cart

import "github.com/shopspring/decimal"

// LineItem is a cart entry as the storefront cart holds it. Checkout only reads it.
type LineItem struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

// LineTotal returns price × quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
