package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/lock"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type OrderService struct {
	Repo     *repo.GormRepo
	Locker   Locker
	Bus      Dispatcher
	Notifier Notifier
	Catalog  *CatalogService
}

func sortUints(ids []uint) { slices.Sort(ids) }

// sortedItems returns the items ordered by product id so row locks are taken
// in the same order by every writer.
func sortedItems(items []models.OrderProduct) []models.OrderProduct {
	out := slices.Clone(items)
	slices.SortFunc(out, func(a, b models.OrderProduct) int { return cmp.Compare(a.ProductID, b.ProductID) })
	return out
}

func (s *OrderService) Create(ctx context.Context, userID uint, req transport.CreateOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "user_id", userID)

	wanted, err := s.collectLines(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sortUints(ids)

	addr, err := s.shippingAddress(ctx, userID, req.AddressID)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber: uuid.NewString(),
		UserID:      userID,
		Status:      models.OrderPending,
	}
	if addr != nil {
		order.Recipient, order.Phone = addr.Recipient, addr.Phone
		order.ZipCode, order.Line1, order.Line2 = addr.ZipCode, addr.Line1, addr.Line2
	}

	place := func(ctx context.Context) error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			for _, pid := range ids {
				p, err := DecreaseStock(ctx, tx, pid, wanted[pid])
				if err != nil {
					return err
				}
				order.Items = append(order.Items, models.OrderProduct{
					ProductID:   p.ID,
					ProductName: p.Name,
					Price:       p.Price,
					Quantity:    wanted[pid],
				})
				order.TotalAmount += p.Price * wanted[pid]
			}
			order.PayAmount = order.TotalAmount
			if err := tx.CreateOrder(ctx, order); err != nil {
				return err
			}
			if req.FromCart {
				return tx.DeleteCartItems(ctx, userID, ids)
			}
			return nil
		})
	}

	if req.FromCart {
		err = s.Locker.WithLock(ctx, lock.Key("cart", userID), place)
	} else {
		err = place(ctx)
	}
	if err != nil {
		return nil, err
	}

	if s.Catalog != nil {
		for _, pid := range ids {
			s.Catalog.invalidate(ctx, pid)
		}
	}
	l.Info("order_created", "order_id", order.ID, "total", order.TotalAmount)
	s.notify(ctx, fmt.Sprintf("New order %s: %d item(s), total %d", order.OrderNumber, len(order.Items), order.TotalAmount))
	s.dispatch(ctx, events.Event{Type: events.OrderCreated, UserID: userID, OrderID: order.ID, Amount: order.TotalAmount})
	return order, nil
}

func (s *OrderService) collectLines(ctx context.Context, userID uint, req transport.CreateOrderRequest) (map[uint]int64, error) {
	wanted := make(map[uint]int64)
	for _, it := range req.Items {
		if it.ProductID == 0 || it.Quantity < 1 {
			return nil, validationf("each item needs product_id and quantity >= 1")
		}
		wanted[it.ProductID] += it.Quantity
	}

	if req.FromCart {
		cart, err := s.Repo.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		only := len(wanted) > 0
		picked := make(map[uint]int64, len(cart))
		for _, it := range cart {
			if only {
				if _, ok := wanted[it.ProductID]; !ok {
					continue
				}
			}
			picked[it.ProductID] = it.Quantity
		}
		wanted = picked
	}

	if len(wanted) == 0 {
		return nil, validationf("order has no items")
	}
	return wanted, nil
}

func (s *OrderService) shippingAddress(ctx context.Context, userID, addressID uint) (*models.Address, error) {
	if addressID != 0 {
		a, err := s.Repo.GetAddress(ctx, userID, addressID)
		if err != nil {
			return nil, mapRepoErr(err, "address")
		}
		return a, nil
	}
	a, err := s.Repo.GetDefaultAddress(ctx, userID)
	if err != nil {
		if isNotFound(mapRepoErr(err, "address")) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (s *OrderService) Get(ctx context.Context, userID uint, admin bool, id uint) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "order")
	}
	if !admin && o.UserID != userID {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, f repo.OrderFilter, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, f, repo.Page{Offset: offset, Limit: limit})
}

// Cancel cancels an unpaid order and returns its stock.
func (s *OrderService) Cancel(ctx context.Context, userID uint, admin bool, id uint) (*models.Order, error) {
	var order *models.Order
	err := s.Locker.WithLock(ctx, lock.Key("order", id), func(ctx context.Context) error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			o, err := tx.LockOrder(ctx, id)
			if err != nil {
				return mapRepoErr(err, "order")
			}
			if !admin && o.UserID != userID {
				return fmt.Errorf("%w: not your order", ErrForbidden)
			}
			if o.Status != models.OrderPending {
				return fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
			}
			if _, err := tx.UpdateOrderStatus(ctx, id, models.OrderPending, models.OrderCancelled, nil); err != nil {
				return err
			}
			o.Status = models.OrderCancelled
			order = o
			return restockItems(ctx, tx, o.Items)
		})
	})
	if err != nil {
		return nil, err
	}
	s.invalidateItems(ctx, order.Items)
	s.dispatch(ctx, events.Event{Type: events.OrderCancelled, UserID: order.UserID, OrderID: order.ID})
	return order, nil
}

// Confirm marks a paid order as received; this triggers point accrual.
func (s *OrderService) Confirm(ctx context.Context, userID uint, admin bool, id uint) (*models.Order, error) {
	var order *models.Order
	err := s.Locker.WithLock(ctx, lock.Key("order", id), func(ctx context.Context) error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			o, err := tx.LockOrder(ctx, id)
			if err != nil {
				return mapRepoErr(err, "order")
			}
			if !admin && o.UserID != userID {
				return fmt.Errorf("%w: not your order", ErrForbidden)
			}
			ok, err := tx.UpdateOrderStatus(ctx, id, models.OrderPaid, models.OrderConfirmed, nil)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
			}
			o.Status = models.OrderConfirmed
			order = o
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, events.Event{Type: events.OrderConfirmed, UserID: order.UserID, OrderID: order.ID, Amount: order.PayAmount})
	return order, nil
}

func (s *OrderService) invalidateItems(ctx context.Context, items []models.OrderProduct) {
	if s.Catalog == nil {
		return
	}
	for _, it := range items {
		s.Catalog.invalidate(ctx, it.ProductID)
	}
}

func (s *OrderService) notify(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, text); err != nil {
		logging.FromContext(ctx).Warn("slack_notify_error", "error", err)
	}
}

func (s *OrderService) dispatch(ctx context.Context, ev events.Event) {
	if s.Bus != nil {
		s.Bus.Dispatch(ctx, ev)
	}
}
