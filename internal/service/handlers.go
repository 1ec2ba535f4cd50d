package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/marketplace/internal/events"
)

// Subscriber is the part of the event bus the side effects register on.
type Subscriber interface {
	Subscribe(typ string, h events.Handler)
}

// RegisterEventHandlers wires the side effects of orders, reviews and refunds.
func RegisterEventHandlers(bus Subscriber, points *PointService, catalog *CatalogService, payments *PaymentService, orders *OrderService) {
	bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, ev events.Event) error {
		_, err := points.EarnForOrder(ctx, ev.UserID, ev.OrderID, ev.Amount)
		return err
	})

	bus.Subscribe(events.ReviewCreated, func(ctx context.Context, ev events.Event) error {
		if points.ReviewPoints <= 0 {
			return nil
		}
		_, err := points.Earn(ctx, ev.UserID, points.ReviewPoints, fmt.Sprintf("review #%d", ev.ReviewID), nil)
		return err
	})

	bus.Subscribe(events.RefundApproved, func(ctx context.Context, ev events.Event) error {
		o, err := orders.Repo.GetOrder(ctx, ev.OrderID)
		if err != nil {
			return err
		}
		return catalog.Restock(ctx, o.Items)
	})
	bus.Subscribe(events.RefundApproved, func(ctx context.Context, ev events.Event) error {
		_, err := points.RestoreForOrder(ctx, ev.UserID, ev.OrderID)
		return err
	})
	bus.Subscribe(events.RefundApproved, func(ctx context.Context, ev events.Event) error {
		return payments.CancelForRefund(ctx, ev.OrderID)
	})
}
