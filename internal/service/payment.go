package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/lock"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// PaymentService drives READY -> PAID|FAILED and PAID -> CANCELLED.
// Every payment operation holds the order:<orderID> lock.
type PaymentService struct {
	Repo    *repo.GormRepo
	Locker  Locker
	Points  *PointService
	Gateway PaymentGateway
	Bus     Dispatcher
	Catalog *CatalogService
	Now     func() time.Time
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Pay charges a pending order. On gateway failure the payment is stored as
// FAILED, used points are restored and the returned error wraps ErrPaymentFailed.
func (s *PaymentService) Pay(ctx context.Context, userID, orderID uint, req transport.PayRequest) (*models.Payment, error) {
	l := logging.FromContext(ctx).With("svc", "payment.pay", "order_id", orderID)
	if req.UsePoints < 0 {
		return nil, validationf("use_points must be >= 0")
	}
	if req.Method == "" {
		return nil, validationf("method is required")
	}

	var payment *models.Payment
	var payErr error
	err := s.Locker.WithLock(ctx, lock.Key("order", orderID), func(ctx context.Context) error {
		order, err := s.Repo.GetOrder(ctx, orderID)
		if err != nil {
			return mapRepoErr(err, "order")
		}
		if order.UserID != userID {
			return fmt.Errorf("%w: not your order", ErrForbidden)
		}
		if order.Status != models.OrderPending {
			return fmt.Errorf("%w: order is %s", ErrInvalidState, order.Status)
		}
		if req.UsePoints > order.TotalAmount {
			return validationf("use_points exceeds order total")
		}

		if req.UsePoints > 0 {
			if _, err := s.Points.Use(ctx, userID, req.UsePoints, &orderID); err != nil {
				return err
			}
		}

		payment = &models.Payment{
			OrderID:     orderID,
			UserID:      userID,
			MerchantUID: uuid.NewString(),
			Method:      req.Method,
			Amount:      order.TotalAmount - req.UsePoints,
			Status:      models.PaymentReady,
		}
		if err := s.Repo.CreatePayment(ctx, payment); err != nil {
			s.restorePoints(ctx, userID, orderID, req.UsePoints)
			return err
		}

		chargeErr := s.Gateway.Charge(ctx, ChargeRequest{
			MerchantUID: payment.MerchantUID,
			OrderNumber: order.OrderNumber,
			Method:      payment.Method,
			Amount:      payment.Amount,
		})
		if chargeErr != nil {
			l.Warn("payment_declined", "payment_id", payment.ID, "error", chargeErr)
			payment.Status = models.PaymentFailed
			payment.FailureReason = chargeErr.Error()
			if err := s.Repo.SavePayment(ctx, payment); err != nil {
				return err
			}
			s.restorePoints(ctx, userID, orderID, req.UsePoints)
			payErr = fmt.Errorf("%w: %v", ErrPaymentFailed, chargeErr)
			return nil
		}

		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			p, err := tx.LockPayment(ctx, payment.ID)
			if err != nil {
				return err
			}
			if p.Status != models.PaymentReady {
				return fmt.Errorf("%w: payment is %s", ErrInvalidState, p.Status)
			}
			paidAt := s.now()
			p.Status = models.PaymentPaid
			p.PaidAt = &paidAt
			if err := tx.SavePayment(ctx, p); err != nil {
				return err
			}
			ok, err := tx.UpdateOrderStatus(ctx, orderID, models.OrderPending, models.OrderPaid, map[string]any{
				"used_points": req.UsePoints,
				"pay_amount":  p.Amount,
			})
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: order is no longer pending", ErrInvalidState)
			}
			payment = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if payErr != nil {
		return payment, payErr
	}

	l.Info("payment_completed", "payment_id", payment.ID, "amount", payment.Amount)
	s.dispatch(ctx, events.Event{
		Type:      events.PaymentCompleted,
		UserID:    userID,
		OrderID:   orderID,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
	})
	return payment, nil
}

func (s *PaymentService) restorePoints(ctx context.Context, userID, orderID uint, used int64) {
	if used <= 0 {
		return
	}
	if _, err := s.Points.RestoreForOrder(ctx, userID, orderID); err != nil {
		logging.FromContext(ctx).Error("restore_points_error", "order_id", orderID, "error", err)
	}
}

func (s *PaymentService) Get(ctx context.Context, userID uint, admin bool, id uint) (*models.Payment, error) {
	p, err := s.Repo.GetPayment(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "payment")
	}
	if !admin && p.UserID != userID {
		return nil, fmt.Errorf("%w: not your payment", ErrForbidden)
	}
	return p, nil
}

func (s *PaymentService) ListForOrder(ctx context.Context, userID uint, admin bool, orderID uint) ([]models.Payment, error) {
	o, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapRepoErr(err, "order")
	}
	if !admin && o.UserID != userID {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	return s.Repo.ListPayments(ctx, orderID)
}

// Cancel refunds a paid payment before confirmation: the order is cancelled,
// stock returned and used points restored.
func (s *PaymentService) Cancel(ctx context.Context, userID uint, admin bool, paymentID uint) (*models.Payment, error) {
	p, err := s.Get(ctx, userID, admin, paymentID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.Locker.WithLock(ctx, lock.Key("order", p.OrderID), func(ctx context.Context) error {
		if err := s.checkCancellable(ctx, p.ID, p.OrderID); err != nil {
			return err
		}
		if err := s.Gateway.Cancel(ctx, p.MerchantUID, p.Amount); err != nil {
			return fmt.Errorf("%w: gateway cancel: %v", ErrUpstream, err)
		}
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			locked, err := tx.LockPayment(ctx, p.ID)
			if err != nil {
				return err
			}
			if err := s.markCancelled(ctx, tx, locked); err != nil {
				return err
			}
			o, err := tx.LockOrder(ctx, p.OrderID)
			if err != nil {
				return err
			}
			ok, err := tx.UpdateOrderStatus(ctx, o.ID, models.OrderPaid, models.OrderCancelled, nil)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
			}
			o.Status = models.OrderCancelled
			order = o
			p = locked
			return restockItems(ctx, tx, o.Items)
		})
	})
	if err != nil {
		return nil, err
	}

	if s.Catalog != nil {
		for _, it := range order.Items {
			s.Catalog.invalidate(ctx, it.ProductID)
		}
	}
	s.restorePoints(ctx, order.UserID, order.ID, order.UsedPoints)
	s.dispatch(ctx, events.Event{Type: events.PaymentCancelled, UserID: order.UserID, OrderID: order.ID, PaymentID: p.ID, Amount: p.Amount})
	return p, nil
}

func (s *PaymentService) checkCancellable(ctx context.Context, paymentID, orderID uint) error {
	p, err := s.Repo.GetPayment(ctx, paymentID)
	if err != nil {
		return mapRepoErr(err, "payment")
	}
	if p.Status != models.PaymentPaid {
		return fmt.Errorf("%w: payment is %s", ErrInvalidState, p.Status)
	}
	o, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return mapRepoErr(err, "order")
	}
	if o.Status != models.OrderPaid {
		return fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
	}
	return nil
}

func (s *PaymentService) markCancelled(ctx context.Context, tx *repo.GormRepo, p *models.Payment) error {
	if p.Status != models.PaymentPaid {
		return fmt.Errorf("%w: payment is %s", ErrInvalidState, p.Status)
	}
	at := s.now()
	p.Status = models.PaymentCancelled
	p.CancelledAt = &at
	return tx.SavePayment(ctx, p)
}

// CancelForRefund cancels the paid payment of an order without touching the
// order status; the refund flow owns that.
func (s *PaymentService) CancelForRefund(ctx context.Context, orderID uint) error {
	return s.Locker.WithLock(ctx, lock.Key("order", orderID), func(ctx context.Context) error {
		paid, err := s.Repo.GetPaidPayment(ctx, orderID)
		if err != nil {
			if errors.Is(mapRepoErr(err, "payment"), ErrNotFound) {
				return nil
			}
			return err
		}
		if err := s.Gateway.Cancel(ctx, paid.MerchantUID, paid.Amount); err != nil {
			return fmt.Errorf("%w: gateway cancel: %v", ErrUpstream, err)
		}
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			p, err := tx.LockPayment(ctx, paid.ID)
			if err != nil {
				return err
			}
			return s.markCancelled(ctx, tx, p)
		})
	})
}

func (s *PaymentService) dispatch(ctx context.Context, ev events.Event) {
	if s.Bus != nil {
		s.Bus.Dispatch(ctx, ev)
	}
}
