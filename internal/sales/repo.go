package sales

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/smartkasir/pos-backend/pkg/db/models"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
	"gorm.io/gorm"
)

const defaultListLimit = 50

// Repository persists sale records with GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository over the shared connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record appends the transaction and its line items atomically.
func (r *Repository) Record(ctx context.Context, tx Transaction) (string, error) {
	if strings.TrimSpace(tx.TransactionID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if len(tx.Items) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sale must contain at least one line item")
	}

	saleID := uuid.New()
	items := make([]models.SaleLineItem, len(tx.Items))
	for i, line := range tx.Items {
		items[i] = models.SaleLineItem{
			ID:              uuid.New(),
			SaleID:          saleID,
			ProductID:       line.ProductID,
			Name:            line.Name,
			UnitPrice:       line.UnitPrice,
			Quantity:        line.Quantity,
			DiscountPercent: line.DiscountPercent,
			Subtotal:        line.Subtotal,
		}
	}

	record := models.Sale{
		ID:            saleID,
		TransactionID: tx.TransactionID,
		CartID:        tx.CartID,
		UserID:        tx.UserID,
		Total:         tx.Total,
		PaymentMethod: tx.PaymentMethod,
		CashPaid:      tx.CashPaid,
		Change:        tx.Change,
		Status:        tx.Status,
		Items:         items,
	}

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sale")
	}

	return record.TransactionID, nil
}

// ListRecent returns the newest sales first, line items included.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.Sale, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var records []models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return records, nil
}
