package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/lock"
)

// PointService owns every balance change. Each change holds the point:<userID>
// lock and the row lock on Point inside one transaction.
type PointService struct {
	Repo         *repo.GormRepo
	Locker       Locker
	AccrualRate  decimal.Decimal
	ReviewPoints int64
}

// Accrual is floor(amount * rate).
func (s *PointService) Accrual(amount int64) int64 {
	if amount <= 0 || s.AccrualRate.IsZero() {
		return 0
	}
	return decimal.NewFromInt(amount).Mul(s.AccrualRate).Floor().IntPart()
}

func (s *PointService) Balance(ctx context.Context, userID uint) (int64, error) {
	p, err := s.Repo.GetPoint(ctx, userID)
	if err != nil {
		if isNotFound(mapRepoErr(err, "point")) {
			return 0, nil
		}
		return 0, err
	}
	return p.Balance, nil
}

func (s *PointService) History(ctx context.Context, userID uint, offset, limit int) (int64, []models.PointHistory, error) {
	return s.Repo.ListPointHistory(ctx, userID, repo.Page{Offset: offset, Limit: limit})
}

func (s *PointService) Earn(ctx context.Context, userID uint, amount int64, reason string, orderID *uint) (*models.PointHistory, error) {
	if amount <= 0 {
		return nil, validationf("amount must be positive")
	}
	return s.apply(ctx, userID, amount, models.PointEarn, reason, orderID)
}

func (s *PointService) Use(ctx context.Context, userID uint, amount int64, orderID *uint) (*models.PointHistory, error) {
	if amount <= 0 {
		return nil, validationf("amount must be positive")
	}
	return s.apply(ctx, userID, -amount, models.PointUse, "used for order", orderID)
}

func (s *PointService) Revoke(ctx context.Context, userID uint, amount int64, reason string, orderID *uint) (*models.PointHistory, error) {
	if amount <= 0 {
		return nil, validationf("amount must be positive")
	}
	return s.apply(ctx, userID, -amount, models.PointRevoke, reason, orderID)
}

// Adjust is the admin correction: positive amounts earn, negative ones revoke.
func (s *PointService) Adjust(ctx context.Context, userID uint, amount int64, reason string) (*models.PointHistory, error) {
	switch {
	case amount > 0:
		return s.Earn(ctx, userID, amount, reason, nil)
	case amount < 0:
		return s.Revoke(ctx, userID, -amount, reason, nil)
	default:
		return nil, validationf("amount must not be zero")
	}
}

// RestoreForOrder gives back the points spent on an order that were not
// restored yet. It returns the restored amount.
func (s *PointService) RestoreForOrder(ctx context.Context, userID, orderID uint) (int64, error) {
	var restored int64
	err := s.Locker.WithLock(ctx, lock.Key("point", userID), func(ctx context.Context) error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			used, err := tx.SumPointsByOrder(ctx, orderID, models.PointUse)
			if err != nil {
				return err
			}
			back, err := tx.SumPointsByOrder(ctx, orderID, models.PointRestore)
			if err != nil {
				return err
			}
			restored = -used - back
			if restored <= 0 {
				restored = 0
				return nil
			}
			_, err = applyTx(ctx, tx, userID, restored, models.PointRestore, "order points restored", &orderID)
			return err
		})
	})
	return restored, err
}

// EarnForOrder accrues points for a confirmed order once.
func (s *PointService) EarnForOrder(ctx context.Context, userID, orderID uint, payAmount int64) (int64, error) {
	amount := s.Accrual(payAmount)
	if amount == 0 {
		return 0, nil
	}
	err := s.Locker.WithLock(ctx, lock.Key("point", userID), func(ctx context.Context) error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			earned, err := tx.SumPointsByOrder(ctx, orderID, models.PointEarn)
			if err != nil {
				return err
			}
			if earned > 0 {
				amount = 0
				return nil
			}
			_, err = applyTx(ctx, tx, userID, amount, models.PointEarn, "order confirmed", &orderID)
			return err
		})
	})
	return amount, err
}

func (s *PointService) apply(ctx context.Context, userID uint, delta int64, typ models.PointType, reason string, orderID *uint) (*models.PointHistory, error) {
	var h *models.PointHistory
	err := s.Locker.WithLock(ctx, lock.Key("point", userID), func(ctx context.Context) error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			var err error
			h, err = applyTx(ctx, tx, userID, delta, typ, reason, orderID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func applyTx(ctx context.Context, tx *repo.GormRepo, userID uint, delta int64, typ models.PointType, reason string, orderID *uint) (*models.PointHistory, error) {
	p, err := tx.LockPoint(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := p.Balance + delta
	if next < 0 {
		return nil, fmt.Errorf("%w: balance %d, need %d", ErrInsufficientPoints, p.Balance, -delta)
	}
	if err := tx.SetPointBalance(ctx, p, next); err != nil {
		return nil, err
	}
	h := &models.PointHistory{
		UserID:       userID,
		Amount:       delta,
		Type:         typ,
		Reason:       reason,
		OrderID:      orderID,
		BalanceAfter: next,
	}
	if err := tx.AddPointHistory(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}
