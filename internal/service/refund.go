package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/lock"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// RefundService drives REQUESTED -> APPROVED|REJECTED and APPROVED -> COMPLETED.
type RefundService struct {
	Repo     *repo.GormRepo
	Locker   Locker
	Bus      Dispatcher
	Notifier Notifier
	Now      func() time.Time
}

func (s *RefundService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *RefundService) Request(ctx context.Context, userID, orderID uint, reason string) (*models.Refund, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf("reason is required")
	}

	var rf *models.Refund
	err := s.Locker.WithLock(ctx, lock.Key("order", orderID), func(ctx context.Context) error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			o, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return mapRepoErr(err, "order")
			}
			if o.UserID != userID {
				return fmt.Errorf("%w: not your order", ErrForbidden)
			}
			open, err := tx.OpenRefundExists(ctx, orderID)
			if err != nil {
				return err
			}
			if open {
				return fmt.Errorf("%w: refund already requested", ErrConflict)
			}
			ok, err := tx.UpdateOrderStatus(ctx, orderID, models.OrderPaid, models.OrderRefundRequested, nil)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
			}
			rf = &models.Refund{
				OrderID: orderID,
				UserID:  userID,
				Reason:  reason,
				Amount:  o.PayAmount,
				Status:  models.RefundRequested,
			}
			return tx.CreateRefund(ctx, rf)
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, fmt.Sprintf("Refund #%d requested for order %d: %s", rf.ID, orderID, reason))
	s.dispatch(ctx, events.Event{Type: events.RefundRequested, UserID: userID, OrderID: orderID, RefundID: rf.ID, Amount: rf.Amount})
	return rf, nil
}

// Approve publishes RefundApproved; its handlers restock, restore points and
// cancel the payment.
func (s *RefundService) Approve(ctx context.Context, refundID uint) (*models.Refund, error) {
	rf, err := s.transition(ctx, refundID, models.RefundRequested, models.RefundApproved, func(*repo.GormRepo, *models.Refund) error { return nil })
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, events.Event{Type: events.RefundApproved, UserID: rf.UserID, OrderID: rf.OrderID, RefundID: rf.ID, Amount: rf.Amount})
	return rf, nil
}

func (s *RefundService) Reject(ctx context.Context, refundID uint, reason string) (*models.Refund, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf("reason is required")
	}
	return s.transition(ctx, refundID, models.RefundRequested, models.RefundRejected, func(tx *repo.GormRepo, rf *models.Refund) error {
		rf.RejectReason = reason
		return s.moveOrder(ctx, tx, rf.OrderID, models.OrderRefundRequested, models.OrderPaid)
	})
}

func (s *RefundService) Complete(ctx context.Context, refundID uint) (*models.Refund, error) {
	return s.transition(ctx, refundID, models.RefundApproved, models.RefundCompleted, func(tx *repo.GormRepo, rf *models.Refund) error {
		return s.moveOrder(ctx, tx, rf.OrderID, models.OrderRefundRequested, models.OrderRefunded)
	})
}

func (s *RefundService) transition(ctx context.Context, refundID uint, from, to models.RefundStatus, also func(tx *repo.GormRepo, rf *models.Refund) error) (*models.Refund, error) {
	l := logging.FromContext(ctx).With("svc", "refund.transition", "refund_id", refundID)

	var out *models.Refund
	err := s.Locker.WithLock(ctx, lock.Key("refund", refundID), func(ctx context.Context) error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			rf, err := tx.LockRefund(ctx, refundID)
			if err != nil {
				return mapRepoErr(err, "refund")
			}
			if rf.Status != from {
				return fmt.Errorf("%w: refund is %s", ErrInvalidState, rf.Status)
			}
			rf.Status = to
			at := s.now()
			rf.ProcessedAt = &at
			if err := also(tx, rf); err != nil {
				return err
			}
			out = rf
			return tx.SaveRefund(ctx, rf)
		})
	})
	if err != nil {
		return nil, err
	}
	l.Info("refund_transition", "from", from, "to", to)
	return out, nil
}

func (s *RefundService) moveOrder(ctx context.Context, tx *repo.GormRepo, orderID uint, from, to models.OrderStatus) error {
	ok, err := tx.UpdateOrderStatus(ctx, orderID, from, to, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: order %d is not %s", ErrInvalidState, orderID, from)
	}
	return nil
}

func (s *RefundService) Get(ctx context.Context, userID uint, admin bool, id uint) (*models.Refund, error) {
	rf, err := s.Repo.GetRefund(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "refund")
	}
	if !admin && rf.UserID != userID {
		return nil, fmt.Errorf("%w: not your refund", ErrForbidden)
	}
	return rf, nil
}

func (s *RefundService) List(ctx context.Context, f repo.RefundFilter, offset, limit int) (int64, []models.Refund, error) {
	return s.Repo.ListRefunds(ctx, f, repo.Page{Offset: offset, Limit: limit})
}

func (s *RefundService) notify(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, text); err != nil {
		logging.FromContext(ctx).Warn("slack_notify_error", "error", err)
	}
}

func (s *RefundService) dispatch(ctx context.Context, ev events.Event) {
	if s.Bus != nil {
		s.Bus.Dispatch(ctx, ev)
	}
}
