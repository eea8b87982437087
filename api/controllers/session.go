package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/smartkasir/pos-backend/api/responses"
	"github.com/smartkasir/pos-backend/api/validators"
	"github.com/smartkasir/pos-backend/internal/session"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
	"github.com/smartkasir/pos-backend/pkg/logger"
)

type startSessionRequest struct {
	CartID string `json:"cart_id" validate:"required,min=1,max=128"`
}

type navigationRequest struct {
	URL string `json:"url" validate:"required"`
}

type checkoutRequest struct {
	Method   string           `json:"method" validate:"required,oneof=transfer tunai"`
	CashPaid *decimal.Decimal `json:"cash_paid,omitempty"`
}

type lineItemResponse struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

type sessionResponse struct {
	State           string             `json:"state"`
	CartID          string             `json:"cart_id,omitempty"`
	Topic           string             `json:"topic,omitempty"`
	UserID          string             `json:"user_id,omitempty"`
	Items           []lineItemResponse `json:"items"`
	Unresolved      []string           `json:"unresolved,omitempty"`
	Total           decimal.Decimal    `json:"total"`
	PaymentMethod   string             `json:"payment_method,omitempty"`
	RedirectURL     string             `json:"redirect_url,omitempty"`
	CashPaid        *decimal.Decimal   `json:"cash_paid,omitempty"`
	Change          *decimal.Decimal   `json:"change,omitempty"`
	TransactionID   string             `json:"transaction_id,omitempty"`
	Persisted       bool               `json:"persisted"`
	MessageAccepted bool               `json:"message_accepted"`
}

type navigationResponse struct {
	Outcome string          `json:"outcome"`
	Session sessionResponse `json:"session"`
}

func newSessionResponse(snap session.Snapshot) sessionResponse {
	items := make([]lineItemResponse, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, lineItemResponse{
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			DiscountPercent: item.DiscountPercent,
			LineTotal:       item.LineTotal(),
		})
	}

	return sessionResponse{
		State:           string(snap.State),
		CartID:          snap.CartID,
		Topic:           snap.Topic,
		UserID:          snap.UserID,
		Items:           items,
		Unresolved:      snap.Unresolved,
		Total:           snap.Total,
		PaymentMethod:   snap.PaymentMethod,
		RedirectURL:     snap.RedirectURL,
		CashPaid:        snap.CashPaid,
		Change:          snap.Change,
		TransactionID:   snap.TransactionID,
		Persisted:       snap.Persisted,
		MessageAccepted: snap.MessageAccepted,
	}
}

// SessionStart pairs the terminal with a cart and begins listening for its
// content message. Starting over an existing session discards it.
func SessionStart(ctrl *session.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctrl == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session controller unavailable"))
			return
		}

		var payload startSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := ctrl.StartSession(r.Context(), payload.CartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(snap))
	}
}

// SessionFetch returns the current session snapshot.
func SessionFetch(ctrl *session.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctrl == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session controller unavailable"))
			return
		}
		responses.WriteSuccess(w, newSessionResponse(ctrl.Snapshot()))
	}
}

// SessionCheckout takes payment for the populated cart. Transfer opens a
// hosted checkout attempt; tunai settles immediately with tendered cash.
func SessionCheckout(ctrl *session.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctrl == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session controller unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch payload.Method {
		case session.MethodTransfer:
			snap, err := ctrl.BeginTransfer(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(snap))

		case session.MethodCash:
			if payload.CashPaid == nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "cash_paid is required for tunai payments"))
				return
			}
			snap, err := ctrl.CompleteCash(r.Context(), *payload.CashPaid)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, newSessionResponse(snap))
		}
	}
}

// SessionNavigation feeds one checkout-page URL through the classifier and
// returns the verdict alongside the resulting session.
func SessionNavigation(ctrl *session.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctrl == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session controller unavailable"))
			return
		}

		var payload navigationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, snap, err := ctrl.Navigation(r.Context(), payload.URL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, navigationResponse{
			Outcome: string(outcome),
			Session: newSessionResponse(snap),
		})
	}
}

// SessionReset clears the session back to idle, persisting an outstanding
// sale record first when one exists.
func SessionReset(ctrl *session.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctrl == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session controller unavailable"))
			return
		}

		if err := ctrl.Reset(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSessionResponse(ctrl.Snapshot()))
	}
}
