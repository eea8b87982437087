package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartkasir/pos-backend/api/responses"
	"github.com/smartkasir/pos-backend/internal/sales"
	"github.com/smartkasir/pos-backend/pkg/db/models"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
	"github.com/smartkasir/pos-backend/pkg/logger"
)

const maxSalesListLimit = 200

type saleLineResponse struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type saleResponse struct {
	TransactionID string             `json:"transaction_id"`
	CartID        string             `json:"cart_id"`
	UserID        string             `json:"user_id"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	CashPaid      *decimal.Decimal   `json:"cash_paid,omitempty"`
	Change        *decimal.Decimal   `json:"change,omitempty"`
	Status        string             `json:"status"`
	Items         []saleLineResponse `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
}

func newSaleResponse(sale models.Sale) saleResponse {
	items := make([]saleLineResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, saleLineResponse{
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			DiscountPercent: item.DiscountPercent,
			Subtotal:        item.Subtotal,
		})
	}
	return saleResponse{
		TransactionID: sale.TransactionID,
		CartID:        sale.CartID,
		UserID:        sale.UserID,
		Total:         sale.Total,
		PaymentMethod: sale.PaymentMethod,
		CashPaid:      sale.CashPaid,
		Change:        sale.Change,
		Status:        sale.Status,
		Items:         items,
		CreatedAt:     sale.CreatedAt,
	}
}

// SalesList returns recent sale records, newest first.
func SalesList(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > maxSalesListLimit {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "limit must be an integer between 1 and 200"))
				return
			}
			limit = parsed
		}

		records, err := svc.ListRecent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]saleResponse, 0, len(records))
		for _, sale := range records {
			out = append(out, newSaleResponse(sale))
		}
		responses.WriteSuccess(w, out)
	}
}
