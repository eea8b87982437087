package sales

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSalesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache DB keeps the schema visible across pooled
	// connections while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	salesTable := `
CREATE TABLE IF NOT EXISTS sales (
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL UNIQUE,
  cart_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  total TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  cash_paid TEXT,
  change TEXT,
  status TEXT NOT NULL,
  created_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS sale_line_items (
  id TEXT PRIMARY KEY,
  sale_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  discount_percent TEXT NOT NULL,
  subtotal TEXT NOT NULL
);`

	require.NoError(t, db.Exec(salesTable).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	return db
}

func sampleTransaction(txID string) Transaction {
	cash := decimal.NewFromInt(38000)
	change := decimal.NewFromInt(18000)
	return Transaction{
		TransactionID: txID,
		CartID:        "cart-1",
		UserID:        "kasir-1",
		Items: []Line{
			{
				ProductID: "p1",
				Name:      "Kopi Susu",
				UnitPrice: decimal.NewFromInt(10000),
				Quantity:  2,
				Subtotal:  decimal.NewFromInt(20000),
			},
		},
		Total:         decimal.NewFromInt(20000),
		PaymentMethod: "tunai",
		CashPaid:      &cash,
		Change:        &change,
		Status:        "paid",
	}
}

func TestRepositoryRecordAndList(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)

	txID, err := repo.Record(context.Background(), sampleTransaction("TRX1700000000001"))
	require.NoError(t, err)
	assert.Equal(t, "TRX1700000000001", txID)

	records, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	sale := records[0]
	assert.Equal(t, "cart-1", sale.CartID)
	assert.Equal(t, "tunai", sale.PaymentMethod)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(20000)))
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "p1", sale.Items[0].ProductID)
	assert.Equal(t, 2, sale.Items[0].Quantity)
}

func TestRepositoryRecordRejectsEmpty(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)

	tx := sampleTransaction("TRX1700000000002")
	tx.Items = nil
	_, err := repo.Record(context.Background(), tx)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	tx = sampleTransaction("TRX1700000000003")
	tx.TransactionID = "  "
	_, err = repo.Record(context.Background(), tx)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRepositoryRecordDuplicateTransactionID(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Record(context.Background(), sampleTransaction("TRX1700000000004"))
	require.NoError(t, err)

	_, err = repo.Record(context.Background(), sampleTransaction("TRX1700000000004"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestRepositoryListRecentDefaultLimit(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)

	for i := 0; i < 3; i++ {
		tx := sampleTransaction("TRX170000000001" + string(rune('0'+i)))
		_, err := repo.Record(context.Background(), tx)
		require.NoError(t, err)
	}

	records, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = repo.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
