package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smartkasir/pos-backend/internal/catalog"
	"github.com/smartkasir/pos-backend/internal/sales"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
	"github.com/smartkasir/pos-backend/pkg/logger"
	"github.com/smartkasir/pos-backend/pkg/metrics"
	"go.uber.org/multierr"
)

type checkoutGateway interface {
	CreateCheckoutSession(ctx context.Context, orderID string, amount decimal.Decimal) (string, error)
}

type saleRecorder interface {
	Record(ctx context.Context, tx sales.Transaction) (string, error)
}

// Options tunes controller behavior.
type Options struct {
	// ListenTimeout bounds the Listening state. Zero waits indefinitely.
	ListenTimeout time.Duration
}

// Controller orchestrates the cart-session protocol: topic routing, message
// filtering, checkout classification and the sale side effects. All entry
// points (HTTP handlers, bus callbacks, timers) serialize on one mutex, the
// Go rendition of the single logical control thread the protocol assumes.
type Controller struct {
	router  *TopicRouter
	filter  *messageFilter
	gateway checkoutGateway
	sales   saleRecorder
	logg    *logger.Logger
	metrics *metrics.SessionMetrics
	opts    Options
	now     func() time.Time

	mu      sync.Mutex
	session CartSession
	gen     uint64
	timer   *time.Timer
}

// NewController wires the protocol core.
func NewController(
	router *TopicRouter,
	store catalog.Store,
	gateway checkoutGateway,
	recorder saleRecorder,
	logg *logger.Logger,
	m *metrics.SessionMetrics,
	opts Options,
) (*Controller, error) {
	if router == nil {
		return nil, fmt.Errorf("topic router required")
	}
	if store == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("checkout gateway required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("sale recorder required")
	}
	return &Controller{
		router:  router,
		filter:  &messageFilter{catalog: store, logg: logg},
		gateway: gateway,
		sales:   recorder,
		logg:    logg,
		metrics: m,
		opts:    opts,
		now:     time.Now,
		session: CartSession{State: StateIdle},
	}, nil
}

// StartSession begins listening for the cart's content message, implicitly
// discarding any previous session.
func (c *Controller) StartSession(ctx context.Context, cartID string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()
	c.gen++
	gen := c.gen

	topic, err := c.router.StartSession(cartID, func(payload []byte) {
		c.onMessage(gen, payload)
	})
	if err != nil {
		c.session = CartSession{State: StateIdle}
		return c.session.snapshot(), err
	}

	c.session = CartSession{
		CartID:    strings.TrimSuffix(topic, paymentTopicSuffix),
		Topic:     topic,
		State:     StateListening,
		UserID:    defaultUserID,
		StartedAt: c.now(),
	}

	if c.opts.ListenTimeout > 0 {
		c.timer = time.AfterFunc(c.opts.ListenTimeout, func() {
			c.onListenTimeout(gen)
		})
	}

	c.metrics.IncSessionStarted()
	if c.logg != nil {
		logCtx := c.logg.WithTopic(c.logg.WithCartID(ctx, c.session.CartID), topic)
		c.logg.Info(logCtx, "cart session listening")
	}

	return c.session.snapshot(), nil
}

// onMessage is the bus callback for the subscribed payment topic. Messages
// from a replaced subscription are dropped via the generation check.
func (c *Controller) onMessage(gen uint64, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	if c.session.MessageAccepted || c.session.State != StateListening {
		// Duplicate broker delivery after acceptance: discard silently.
		c.metrics.IncMessage("duplicate")
		return
	}

	ctx := context.Background()
	if c.logg != nil {
		ctx = c.logg.WithTopic(c.logg.WithCartID(ctx, c.session.CartID), c.session.Topic)
	}

	userID, items, notFound, err := c.filter.Resolve(ctx, payload)
	if err != nil {
		typed := pkgerrors.As(err)
		if typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			// Nothing resolved: stop a broken device from retrying into this
			// session, but keep the latch unset so the state stays Listening.
			c.metrics.IncMessage("no_valid_items")
			c.session.Unresolved = notFound
			c.session.Topic = ""
			if endErr := c.router.EndSession(); endErr != nil && c.logg != nil {
				c.logg.Warn(ctx, "failed to unsubscribe after unresolvable cart message")
			}
			if c.logg != nil {
				c.logg.Warn(ctx, "cart message had no resolvable items")
			}
			return
		}

		// Malformed or empty payload: stay subscribed, a corrected
		// resubmission is still accepted.
		c.metrics.IncMessage("rejected")
		if c.logg != nil {
			c.logg.Warn(ctx, "cart message rejected: "+err.Error())
		}
		return
	}

	c.session.MessageAccepted = true
	c.session.UserID = userID
	c.session.Items = items
	c.session.Unresolved = notFound
	c.session.State = StatePopulated
	c.session.Topic = ""
	c.stopTimerLocked()

	// The channel serves exactly one useful delivery per session.
	if endErr := c.router.EndSession(); endErr != nil && c.logg != nil {
		c.logg.Warn(ctx, "failed to unsubscribe after accepting cart message")
	}

	c.metrics.IncMessage("accepted")
	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "item_count", len(items)), "cart message accepted")
	}
}

func (c *Controller) onListenTimeout(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.session.State != StateListening {
		return
	}

	if err := c.router.EndSession(); err != nil && c.logg != nil {
		c.logg.Warn(context.Background(), "failed to unsubscribe on listen timeout")
	}
	if c.logg != nil {
		ctx := c.logg.WithCartID(context.Background(), c.session.CartID)
		c.logg.Warn(ctx, "cart session timed out waiting for cart message")
	}
	c.session = CartSession{State: StateIdle}
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.snapshot()
}

// BeginTransfer creates a hosted checkout session for the cart total and moves
// to AwaitingPayment. On gateway failure the session stays Populated.
func (c *Controller) BeginTransfer(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State != StatePopulated {
		return c.session.snapshot(), pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("checkout requires a populated session, state is %s", c.session.State))
	}

	txID := c.newTransactionID()
	redirectURL, err := c.gateway.CreateCheckoutSession(ctx, txID, c.session.Total())
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return c.session.snapshot(), err
		}
		return c.session.snapshot(), pkgerrors.Wrap(pkgerrors.CodeGateway, err, "create checkout session")
	}

	c.session.State = StateAwaitingPayment
	c.session.PaymentMethod = MethodTransfer
	c.session.RedirectURL = redirectURL
	c.session.TransactionID = txID
	c.session.VerdictReached = false

	if c.logg != nil {
		c.logg.Info(c.logg.WithCartID(ctx, c.session.CartID), "checkout session created")
	}
	return c.session.snapshot(), nil
}

// Navigation feeds one observed checkout-page URL through the classifier.
// After the first verdict further calls are ignored until the next attempt.
func (c *Controller) Navigation(ctx context.Context, url string) (Outcome, Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State != StateAwaitingPayment {
		return OutcomeNone, c.session.snapshot(), pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("no checkout in progress, state is %s", c.session.State))
	}
	if c.session.VerdictReached {
		return OutcomeNone, c.session.snapshot(), nil
	}

	outcome := Classify(url)
	if outcome == OutcomeNone {
		return OutcomeNone, c.session.snapshot(), nil
	}

	c.session.VerdictReached = true
	c.metrics.IncOutcome(string(outcome))

	switch outcome {
	case OutcomeSettled:
		err := c.completePaidLocked(ctx, MethodTransfer, nil, nil)
		return outcome, c.session.snapshot(), err
	case OutcomePending, OutcomeFailed:
		// Items are preserved so the operator can retry or take cash.
		c.session.State = StatePopulated
		c.session.RedirectURL = ""
		c.session.PaymentMethod = ""
		c.session.TransactionID = ""
		if c.logg != nil {
			logCtx := c.logg.WithCartID(ctx, c.session.CartID)
			c.logg.Warn(logCtx, "checkout did not settle: "+string(outcome))
		}
		return outcome, c.session.snapshot(), nil
	default:
		return outcome, c.session.snapshot(), nil
	}
}

// CompleteCash settles the session with tendered cash, bypassing the
// classifier entirely.
func (c *Controller) CompleteCash(ctx context.Context, cashPaid decimal.Decimal) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State != StatePopulated && c.session.State != StateAwaitingPayment {
		return c.session.snapshot(), pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cash payment requires a populated session, state is %s", c.session.State))
	}

	total := c.session.Total()
	if cashPaid.LessThan(total) {
		return c.session.snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "insufficient cash tendered").
			WithDetails(map[string]string{"total": total.String(), "cash_paid": cashPaid.String()})
	}

	change := cashPaid.Sub(total)
	err := c.completePaidLocked(ctx, MethodCash, &cashPaid, &change)
	return c.session.snapshot(), err
}

// completePaidLocked enters Paid: persist first, then publish best-effort.
// A persistence failure is surfaced but the state stays Paid; the sale
// physically happened and Reset retries the write.
func (c *Controller) completePaidLocked(ctx context.Context, method string, cashPaid, change *decimal.Decimal) error {
	c.session.State = StatePaid
	c.session.PaymentMethod = method
	c.session.CashPaid = cashPaid
	c.session.Change = change
	if c.session.TransactionID == "" {
		c.session.TransactionID = c.newTransactionID()
	}

	persistErr := c.persistLocked(ctx)

	event := StatusEvent{
		Status:        "paid",
		UserID:        c.session.UserID,
		CartID:        c.session.CartID,
		TotalAmount:   c.session.Total(),
		PaymentMethod: method,
		Timestamp:     c.now(),
	}
	if pubErr := c.router.PublishStatus(ctx, c.session.CartID, event); pubErr != nil {
		c.metrics.IncPublishFailure()
		if c.logg != nil {
			c.logg.Error(c.logg.WithCartID(ctx, c.session.CartID), "failed to publish payment status", pubErr)
		}
	}

	return persistErr
}

func (c *Controller) persistLocked(ctx context.Context) error {
	lines := make([]sales.Line, len(c.session.Items))
	for i, item := range c.session.Items {
		lines[i] = sales.Line{
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			DiscountPercent: item.DiscountPercent,
			Subtotal:        item.LineTotal(),
		}
	}

	tx := sales.Transaction{
		TransactionID: c.session.TransactionID,
		CartID:        c.session.CartID,
		UserID:        c.session.UserID,
		Items:         lines,
		Total:         c.session.Total(),
		PaymentMethod: c.session.PaymentMethod,
		CashPaid:      c.session.CashPaid,
		Change:        c.session.Change,
		Status:        "paid",
	}

	if _, err := c.sales.Record(ctx, tx); err != nil {
		if c.logg != nil {
			c.logg.Error(c.logg.WithCartID(ctx, c.session.CartID), "failed to record sale", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sale")
	}

	c.session.Persisted = true
	c.metrics.IncSaleRecorded()
	return nil
}

// Reset returns the session to Idle. A Paid session whose sale record never
// landed is persisted first; when that write fails again the session is kept
// so the record is not lost.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State == StatePaid && !c.session.Persisted {
		if err := c.persistLocked(ctx); err != nil {
			return multierr.Append(err, c.router.EndSession())
		}
	}

	c.stopTimerLocked()
	c.gen++
	err := c.router.EndSession()
	c.session = CartSession{State: StateIdle}
	if err != nil && c.logg != nil {
		c.logg.Warn(ctx, "failed to unsubscribe during reset")
	}
	return nil
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) newTransactionID() string {
	return "TRX" + strconv.FormatInt(c.now().UnixMilli(), 10)
}
