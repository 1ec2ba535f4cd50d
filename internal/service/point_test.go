package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/testutil"
)

func TestPoints_Accrual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rate   string
		amount int64
		want   int64
	}{
		{"0.01", 700, 7},
		{"0.01", 799, 7},
		{"0.05", 1999, 99},
		{"0", 1000, 0},
		{"0.01", -5, 0},
	}
	for _, tt := range tests {
		s := &PointService{AccrualRate: decimal.RequireFromString(tt.rate)}
		assert.Equal(t, tt.want, s.Accrual(tt.amount), "rate=%s amount=%d", tt.rate, tt.amount)
	}
}

func TestPoints_NeverNegative(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, e.DB, "pt@example.com", "user")

	bal, err := e.Points.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, bal)

	_, err = e.Points.Use(ctx, u.ID, 1, nil)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	h, err := e.Points.Adjust(ctx, u.ID, 40, "goodwill")
	require.NoError(t, err)
	assert.Equal(t, models.PointEarn, h.Type)
	assert.EqualValues(t, 40, h.BalanceAfter)

	h, err = e.Points.Adjust(ctx, u.ID, -15, "correction")
	require.NoError(t, err)
	assert.Equal(t, models.PointRevoke, h.Type)
	assert.EqualValues(t, -15, h.Amount)

	_, err = e.Points.Adjust(ctx, u.ID, 0, "noop")
	assert.ErrorIs(t, err, ErrValidation)

	total, items, err := e.Points.History(ctx, u.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.EqualValues(t, 25, items[0].BalanceAfter)
}

func TestPoints_ConcurrentUse(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, e.DB, "pc@example.com", "user")

	_, err := e.Points.Earn(ctx, u.ID, 100, "seed", nil)
	require.NoError(t, err)

	const workers = 10
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Points.Use(ctx, u.ID, 20, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrInsufficientPoints):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, rejected)
	bal, err := e.Points.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, bal)
}
