package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smartkasir/pos-backend/internal/catalog"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
	"github.com/smartkasir/pos-backend/pkg/logger"
)

const defaultUserID = "unknown"

// rawCartMessage is the untrusted wire payload from the cart device.
type rawCartMessage struct {
	UserID string        `json:"id"`
	Items  []rawCartItem `json:"items"`
}

type rawCartItem struct {
	ProductID string `json:"id"`
	Qty       int    `json:"qty"`
}

// messageFilter validates inbound payloads and resolves item references
// against the catalog. Acceptance policy (latch, unsubscribe) stays with the
// controller; the filter reports errors by code:
//
//	CodeValidation - malformed payload or empty cart, resubmission allowed
//	CodeNotFound   - no item resolved, session should stop listening
type messageFilter struct {
	catalog catalog.Store
	logg    *logger.Logger
}

// Resolve parses raw and resolves each referenced product. Unresolvable
// references are dropped into notFound, never kept.
func (f *messageFilter) Resolve(ctx context.Context, raw []byte) (userID string, items []LineItem, notFound []string, err error) {
	var msg rawCartMessage
	if jsonErr := json.Unmarshal(raw, &msg); jsonErr != nil {
		return "", nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, jsonErr, "malformed cart payload")
	}
	if msg.Items == nil {
		return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed cart payload")
	}
	if len(msg.Items) == 0 {
		return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart message has no items")
	}

	userID = msg.UserID
	if userID == "" {
		userID = defaultUserID
	}

	for _, item := range msg.Items {
		if item.ProductID == "" {
			notFound = append(notFound, "(missing id)")
			continue
		}

		product, lookupErr := f.catalog.Get(ctx, item.ProductID)
		if lookupErr != nil {
			// Lookup failures count as not found for this item; the message
			// as a whole is still processed.
			if typed := pkgerrors.As(lookupErr); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
				if f.logg != nil {
					f.logg.Warn(f.logg.WithField(ctx, "product_id", item.ProductID), "catalog lookup failed")
				}
			}
			notFound = append(notFound, item.ProductID)
			continue
		}

		qty := item.Qty
		if qty < 1 {
			qty = 1
		}

		items = append(items, LineItem{
			ProductID:       product.ID,
			Name:            product.Name,
			UnitPrice:       product.Price,
			Quantity:        qty,
			DiscountPercent: product.DiscountPercent,
		})
	}

	if len(items) == 0 {
		return userID, nil, notFound, pkgerrors.New(pkgerrors.CodeNotFound, "no cart items resolved").
			WithDetails(map[string]any{"not_found": notFound})
	}

	if len(notFound) > 0 && f.logg != nil {
		f.logg.Warn(f.logg.WithField(ctx, "not_found", notFound), fmt.Sprintf("%d cart item(s) not in catalog", len(notFound)))
	}

	return userID, items, notFound, nil
}
