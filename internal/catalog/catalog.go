package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is the catalog view the session core consumes. Price and discount
// authority lives here, never in the wire payload from the cart device.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Store is the keyed product lookup consumed by the cart message filter.
type Store interface {
	Get(ctx context.Context, productID string) (*Product, error)
}
