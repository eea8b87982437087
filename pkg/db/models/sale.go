package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is an append-only record of a completed transaction.
type Sale struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID string           `gorm:"column:transaction_id;uniqueIndex;not null"`
	CartID        string           `gorm:"column:cart_id;not null"`
	UserID        string           `gorm:"column:user_id;not null"`
	Total         decimal.Decimal  `gorm:"column:total;type:numeric(14,2);not null"`
	PaymentMethod string           `gorm:"column:payment_method;not null"`
	CashPaid      *decimal.Decimal `gorm:"column:cash_paid;type:numeric(14,2)"`
	Change        *decimal.Decimal `gorm:"column:change;type:numeric(14,2)"`
	Status        string           `gorm:"column:status;not null"`
	Items         []SaleLineItem   `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
}
