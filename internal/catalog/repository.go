package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/smartkasir/pos-backend/pkg/db/models"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository resolves products from the database.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository over the shared connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get loads an active product by id.
func (r *Repository) Get(ctx context.Context, productID string) (*Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var rec models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	return &Product{
		ID:              rec.ID,
		Name:            rec.Name,
		Price:           rec.Price,
		DiscountPercent: rec.DiscountPercent,
	}, nil
}
