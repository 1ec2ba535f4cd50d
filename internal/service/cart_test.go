package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/testutil"
)

func TestCart_UserLines(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "c@example.com", "user")
	p := testutil.CreateProduct(t, e.DB, "mug", 500, 5)
	owner := CartOwner{UserID: u.ID}

	require.NoError(t, e.Cart.Add(ctx, owner, p.ID, 2))
	require.NoError(t, e.Cart.Add(ctx, owner, p.ID, 1))

	view, err := e.Cart.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.EqualValues(t, 3, view.Items[0].Quantity)
	assert.EqualValues(t, 1500, view.Total)

	assert.ErrorIs(t, e.Cart.Add(ctx, owner, p.ID, 3), ErrOutOfStock)
	assert.ErrorIs(t, e.Cart.SetQuantity(ctx, owner, p.ID, 0), ErrValidation)
	require.NoError(t, e.Cart.SetQuantity(ctx, owner, p.ID, 5))
	assert.ErrorIs(t, e.Cart.Add(ctx, owner, 9999, 1), ErrNotFound)

	require.NoError(t, e.Cart.Remove(ctx, owner, p.ID))
	assert.ErrorIs(t, e.Cart.Remove(ctx, owner, p.ID), ErrNotFound)
	assert.ErrorIs(t, e.Cart.SetQuantity(ctx, owner, p.ID, 1), ErrNotFound)

	_, err = e.Cart.Get(ctx, CartOwner{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCart_GuestAndMerge(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "m@example.com", "user")
	mug := testutil.CreateProduct(t, e.DB, "mug", 500, 4)
	pen := testutil.CreateProduct(t, e.DB, "pen", 100, 10)
	gone := testutil.CreateProduct(t, e.DB, "gone", 100, 10)
	guest := CartOwner{GuestID: "g-1"}

	require.NoError(t, e.Cart.Add(ctx, guest, mug.ID, 3))
	require.NoError(t, e.Cart.Add(ctx, guest, pen.ID, 2))
	require.NoError(t, e.Cart.Add(ctx, guest, gone.ID, 1))
	assert.True(t, e.MR.Exists("cart:guest:g-1"))
	assert.Greater(t, e.MR.TTL("cart:guest:g-1").Hours(), float64(24*6))

	view, err := e.Cart.Get(ctx, guest)
	require.NoError(t, err)
	assert.Len(t, view.Items, 3)

	require.NoError(t, e.Cart.Add(ctx, CartOwner{UserID: u.ID}, mug.ID, 2))
	require.NoError(t, e.DB.Delete(&models.Product{}, gone.ID).Error)

	merged, err := e.Cart.Merge(ctx, u.ID, "g-1")
	require.NoError(t, err)
	assert.Equal(t, 2, merged)
	assert.False(t, e.MR.Exists("cart:guest:g-1"))

	view, err = e.Cart.Get(ctx, CartOwner{UserID: u.ID})
	require.NoError(t, err)
	qty := map[uint]int64{}
	for _, it := range view.Items {
		qty[it.ProductID] = it.Quantity
	}
	assert.EqualValues(t, 4, qty[mug.ID], "2 + 3 capped at stock")
	assert.EqualValues(t, 2, qty[pen.ID])
	assert.NotContains(t, qty, gone.ID)

	again, err := e.Cart.Merge(ctx, u.ID, "g-1")
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestCart_ConcurrentAddsAreSerialized(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "cc@example.com", "user")
	p := testutil.CreateProduct(t, e.DB, "mug", 500, 100)
	owner := CartOwner{UserID: u.ID}

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- e.Cart.Add(ctx, owner, p.ID, 1)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := e.Cart.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.EqualValues(t, n, view.Items[0].Quantity)
}

func TestCart_ConcurrentGuestAddsAreSerialized(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	p := testutil.CreateProduct(t, e.DB, "mug", 500, 100)
	guest := CartOwner{GuestID: "g-race"}

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- e.Cart.Add(ctx, guest, p.ID, 1)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := e.Cart.Get(ctx, guest)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.EqualValues(t, n, view.Items[0].Quantity)
}
