package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleLineItem snapshots one resolved cart line at sale time.
type SaleLineItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SaleID          uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID       string          `gorm:"column:product_id;not null"`
	Name            string          `gorm:"column:name;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null"`
}
