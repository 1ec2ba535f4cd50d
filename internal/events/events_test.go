package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []Event
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestBus_DispatchRunsHandlersAndPublishes(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	bus := NewBus(pub)

	var got []string
	bus.Subscribe(OrderConfirmed, func(ctx context.Context, ev Event) error {
		got = append(got, "first")
		return errors.New("handler failed")
	})
	bus.Subscribe(OrderConfirmed, func(ctx context.Context, ev Event) error {
		got = append(got, "second")
		return nil
	})
	bus.Subscribe(ReviewCreated, func(ctx context.Context, ev Event) error {
		got = append(got, "other")
		return nil
	})

	bus.Dispatch(context.Background(), Event{Type: OrderConfirmed, OrderID: 3, UserID: 1})

	assert.Equal(t, []string{"first", "second"}, got)
	require.Len(t, pub.sent, 1)
	assert.NotEmpty(t, pub.sent[0].ID)
	assert.False(t, pub.sent[0].OccurredAt.IsZero())
	assert.Equal(t, "order:3", pub.sent[0].Key())
}

func TestBus_CancelledContextStillDelivers(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen error
	bus.Subscribe(RefundApproved, func(ctx context.Context, ev Event) error {
		seen = ctx.Err()
		return nil
	})
	bus.Dispatch(ctx, Event{Type: RefundApproved, RefundID: 1})

	assert.NoError(t, seen)
}

func TestEvent_Key(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "order:1", Event{OrderID: 1, ProductID: 2}.Key())
	assert.Equal(t, "product:2", Event{ProductID: 2, UserID: 9}.Key())
	assert.Equal(t, "user:9", Event{UserID: 9}.Key())
}

func TestKafkaPublisher_DoesNotWaitForFullBatch(t *testing.T) {
	t.Parallel()

	p := NewKafkaPublisher([]string{"localhost:9092"}, "shop-events")
	t.Cleanup(func() { _ = p.Close() })

	assert.Equal(t, "shop-events", p.w.Topic)
	assert.LessOrEqual(t, p.w.BatchTimeout, 10*time.Millisecond)
	assert.NotZero(t, p.w.BatchTimeout, "zero falls back to the one second default")
}
