package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const (
	OrderCreated     = "order.created"
	OrderConfirmed   = "order.confirmed"
	OrderCancelled   = "order.cancelled"
	PaymentCompleted = "payment.completed"
	PaymentCancelled = "payment.cancelled"
	ReviewCreated    = "review.created"
	RefundRequested  = "refund.requested"
	RefundApproved   = "refund.approved"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	OrderID    uint      `json:"order_id,omitempty"`
	ProductID  uint      `json:"product_id,omitempty"`
	PaymentID  uint      `json:"payment_id,omitempty"`
	ReviewID   uint      `json:"review_id,omitempty"`
	RefundID   uint      `json:"refund_id,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key is the partition key: the aggregate the event belongs to.
func (e Event) Key() string {
	switch {
	case e.OrderID != 0:
		return fmt.Sprintf("order:%d", e.OrderID)
	case e.ProductID != 0:
		return fmt.Sprintf("product:%d", e.ProductID)
	default:
		return fmt.Sprintf("user:%d", e.UserID)
	}
}

type Handler func(ctx context.Context, ev Event) error

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Bus delivers events to in-process handlers and forwards them to the broker.
// Callers dispatch after their transaction committed.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pub      Publisher
	timeout  time.Duration
}

func NewBus(pub Publisher) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		pub:      pub,
		timeout:  5 * time.Second,
	}
}

func (b *Bus) Subscribe(typ string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[typ] = append(b.handlers[typ], h)
}

func (b *Bus) Dispatch(ctx context.Context, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	ctx = context.WithoutCancel(ctx)
	l := logging.FromContext(ctx).With("event", ev.Type, "event_id", ev.ID)

	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[ev.Type]...)
	b.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, ev); err != nil {
			l.Error("event_handler_error", "error", err)
		}
	}

	if b.pub == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := b.pub.Publish(pctx, ev); err != nil {
		l.Error("event_publish_error", "error", err)
	}
}

func (b *Bus) Close() error {
	if b.pub == nil {
		return nil
	}
	return b.pub.Close()
}
