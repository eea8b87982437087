package session

import (
	"time"

	"github.com/shopspring/decimal"
)

// State enumerates the cart-session lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateListening       State = "listening"
	StatePopulated       State = "populated"
	StateAwaitingPayment State = "awaiting_payment"
	StatePaid            State = "paid"
)

// Payment methods as published to the cart device and persisted with sales.
const (
	MethodCash     = "tunai"
	MethodTransfer = "transfer"
)

var hundred = decimal.NewFromInt(100)

// LineItem is a cart entry resolved against the catalog.
type LineItem struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// LineTotal derives unitPrice * quantity * (1 - discount/100).
func (li LineItem) LineTotal() decimal.Decimal {
	qty := decimal.NewFromInt(int64(li.Quantity))
	factor := decimal.NewFromInt(1).Sub(li.DiscountPercent.Div(hundred))
	return li.UnitPrice.Mul(qty).Mul(factor)
}

// CartSession is one cashier-cart pairing. The message-acceptance latch and
// the checkout verdict latch are session state so they reset together.
type CartSession struct {
	CartID          string
	Topic           string
	State           State
	UserID          string
	Items           []LineItem
	Unresolved      []string
	MessageAccepted bool
	VerdictReached  bool
	PaymentMethod   string
	RedirectURL     string
	CashPaid        *decimal.Decimal
	Change          *decimal.Decimal
	TransactionID   string
	Persisted       bool
	StartedAt       time.Time
}

// Total sums the derived line totals.
func (s *CartSession) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Snapshot is an immutable copy of the session handed to callers.
type Snapshot struct {
	State           State
	CartID          string
	Topic           string
	UserID          string
	Items           []LineItem
	Unresolved      []string
	Total           decimal.Decimal
	PaymentMethod   string
	RedirectURL     string
	CashPaid        *decimal.Decimal
	Change          *decimal.Decimal
	TransactionID   string
	Persisted       bool
	MessageAccepted bool
}

func (s *CartSession) snapshot() Snapshot {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	unresolved := make([]string, len(s.Unresolved))
	copy(unresolved, s.Unresolved)

	return Snapshot{
		State:           s.State,
		CartID:          s.CartID,
		Topic:           s.Topic,
		UserID:          s.UserID,
		Items:           items,
		Unresolved:      unresolved,
		Total:           s.Total(),
		PaymentMethod:   s.PaymentMethod,
		RedirectURL:     s.RedirectURL,
		CashPaid:        s.CashPaid,
		Change:          s.Change,
		TransactionID:   s.TransactionID,
		Persisted:       s.Persisted,
		MessageAccepted: s.MessageAccepted,
	}
}
