package sales

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smartkasir/pos-backend/pkg/db/models"
)

// Line snapshots one resolved cart entry at sale time.
type Line struct {
	ProductID       string
	Name            string
	UnitPrice       decimal.Decimal
	Quantity        int
	DiscountPercent decimal.Decimal
	Subtotal        decimal.Decimal
}

// Transaction is the append-only record of a completed sale.
type Transaction struct {
	TransactionID string
	CartID        string
	UserID        string
	Items         []Line
	Total         decimal.Decimal
	PaymentMethod string
	CashPaid      *decimal.Decimal
	Change        *decimal.Decimal
	Status        string
}

// Recorder appends sale records. Records are never updated or deleted.
type Recorder interface {
	Record(ctx context.Context, tx Transaction) (string, error)
}

// Service is the full persistence surface exposed to the API.
type Service interface {
	Recorder
	ListRecent(ctx context.Context, limit int) ([]models.Sale, error)
}
