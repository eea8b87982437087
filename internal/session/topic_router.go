package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
	"github.com/smartkasir/pos-backend/pkg/logger"
)

const (
	paymentTopicSuffix = "/payment"
	statusTopicSuffix  = "/payment-status"
)

// Bus is the pub/sub transport surface the router depends on. The production
// implementation is pkg/mqtt; tests inject fakes.
type Bus interface {
	Subscribe(topic string, handler func(payload []byte)) error
	Unsubscribe(topic string) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Connected() bool
}

// StatusEvent is the payment-status payload published back to the cart device.
type StatusEvent struct {
	Status        string          `json:"status"`
	UserID        string          `json:"userId"`
	CartID        string          `json:"cartId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
	Timestamp     time.Time       `json:"timestamp"`
}

// TopicRouter owns at most one active cart subscription at a time and derives
// topic names from cart ids.
type TopicRouter struct {
	bus  Bus
	logg *logger.Logger

	mu     sync.Mutex
	active string
}

// NewTopicRouter builds a router over the injected bus.
func NewTopicRouter(bus Bus, logg *logger.Logger) (*TopicRouter, error) {
	if bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "bus required")
	}
	return &TopicRouter{bus: bus, logg: logg}, nil
}

// StartSession subscribes handler on the cart's payment topic, tearing down
// any previous subscription first so at most one topic is ever active.
func (r *TopicRouter) StartSession(cartID string, handler func(payload []byte)) (string, error) {
	id := strings.TrimSpace(cartID)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		if err := r.bus.Unsubscribe(r.active); err != nil && r.logg != nil {
			ctx := r.logg.WithTopic(context.Background(), r.active)
			r.logg.Warn(ctx, "failed to unsubscribe previous cart topic")
		}
		r.active = ""
	}

	if !r.bus.Connected() {
		return "", pkgerrors.New(pkgerrors.CodeTransport, "message bus disconnected")
	}

	topic := id + paymentTopicSuffix
	if err := r.bus.Subscribe(topic, handler); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeTransport, err, "subscribe cart topic")
	}

	r.active = topic
	return topic, nil
}

// EndSession unsubscribes the active topic if any. Calling it twice is a no-op.
func (r *TopicRouter) EndSession() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == "" {
		return nil
	}

	topic := r.active
	r.active = ""
	if err := r.bus.Unsubscribe(topic); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "unsubscribe cart topic")
	}
	return nil
}

// ActiveTopic reports the currently subscribed topic, empty when none.
func (r *TopicRouter) ActiveTopic() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// PublishStatus sends the payment-status event to the cart's status topic.
// The event is best-effort: callers log failures but never roll back the sale.
func (r *TopicRouter) PublishStatus(ctx context.Context, cartID string, event StatusEvent) error {
	id := strings.TrimSpace(cartID)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode status event")
	}

	if !r.bus.Connected() {
		return pkgerrors.New(pkgerrors.CodeTransport, "message bus disconnected")
	}

	if err := r.bus.Publish(ctx, id+statusTopicSuffix, payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "publish status event")
	}
	return nil
}
