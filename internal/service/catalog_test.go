package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/testutil"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

type fakeIndex struct {
	docs      map[uint]models.Product
	searchErr error
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	if f.docs == nil {
		f.docs = map[uint]models.Product{}
	}
	f.docs[p.ID] = *p
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uint) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []models.Product, error) {
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	out := make([]models.Product, 0, len(f.docs))
	for _, p := range f.docs {
		out = append(out, p)
	}
	return int64(len(out)), out, nil
}

func TestCatalog_CRUDKeepsIndexInSync(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	idx := &fakeIndex{}
	e.Catalog.Index = idx

	p, err := e.Catalog.CreateProduct(ctx, transport.CreateProductRequest{Name: " Desk lamp ", Description: "warm light", Category: "home", Price: 2500, Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", p.Name)
	assert.Contains(t, idx.docs, p.ID)

	got, err := e.Catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2500, got.Price)
	assert.True(t, e.MR.Exists(productCacheKey(p.ID)))

	price := int64(1999)
	patched, err := e.Catalog.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Price: &price})
	require.NoError(t, err)
	assert.EqualValues(t, 1999, patched.Price)
	assert.False(t, e.MR.Exists(productCacheKey(p.ID)))
	assert.EqualValues(t, 1999, idx.docs[p.ID].Price)

	neg := int64(-1)
	_, err = e.Catalog.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Stock: &neg})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, e.Catalog.DeleteProduct(ctx, p.ID))
	assert.NotContains(t, idx.docs, p.ID)
	_, err = e.Catalog.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, e.Catalog.DeleteProduct(ctx, p.ID), ErrNotFound)
}

func TestCatalog_ListAndSearchFallback(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	testutil.CreateProduct(t, e.DB, "red mug", 500, 1)
	testutil.CreateProduct(t, e.DB, "blue mug", 300, 1)
	testutil.CreateProduct(t, e.DB, "pen", 100, 1)

	total, items, err := e.Catalog.ListProducts(ctx, repo.ProductFilter{Sort: "price_asc"}, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "pen", items[0].Name)

	e.Catalog.Index = &fakeIndex{searchErr: errors.New("cluster down")}
	total, items, err = e.Catalog.Search(ctx, "MUG", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	total, _, err = e.Catalog.Search(ctx, "  ", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCatalog_Reindex(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.Catalog.Reindex(ctx)
	assert.ErrorIs(t, err, ErrUpstream)

	idx := &fakeIndex{}
	e.Catalog.Index = idx
	for _, name := range []string{"a", "b", "c"} {
		testutil.CreateProduct(t, e.DB, name, 1, 1)
	}
	n, err := e.Catalog.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, idx.docs, 3)
}

func TestViews_RecordAndFlush(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "v@example.com", "user")
	mug := testutil.CreateProduct(t, e.DB, "mug", 500, 1)
	pen := testutil.CreateProduct(t, e.DB, "pen", 100, 1)

	for range 3 {
		_, err := e.Catalog.ViewProduct(ctx, mug.ID, 0)
		require.NoError(t, err)
	}
	_, err := e.Catalog.ViewProduct(ctx, pen.ID, u.ID)
	require.NoError(t, err)

	n, err := e.Views.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var got models.Product
	require.NoError(t, e.DB.First(&got, mug.ID).Error)
	assert.EqualValues(t, 3, got.ViewCount)

	stats, err := e.Views.Stats(ctx, mug.ID, "2026-03-01", "2026-03-01")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.EqualValues(t, 3, stats[0].Count)

	_, err = e.Catalog.ViewProduct(ctx, mug.ID, 0)
	require.NoError(t, err)
	_, err = e.Views.Flush(ctx)
	require.NoError(t, err)
	stats, err = e.Views.Stats(ctx, mug.ID, "", "")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.EqualValues(t, 4, stats[0].Count, "same day upserts into one row")

	n, err = e.Views.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	total, hist, err := e.Views.History(ctx, u.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, pen.ID, hist[0].ProductID)

	_, err = e.Views.Stats(ctx, mug.ID, "March", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestViews_FailedFlushKeepsEveryPoppedID(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	want := map[uint]string{}
	for i, name := range []string{"mug", "pen", "cup", "bag", "hat"} {
		p := testutil.CreateProduct(t, e.DB, name, 100, 1)
		for range i + 1 {
			require.NoError(t, e.Views.Record(ctx, p.ID, 0))
		}
		want[p.ID] = strconv.Itoa(i + 1)
	}

	require.NoError(t, e.DB.Migrator().DropTable(&models.VisitStat{}))
	_, err := e.Views.Flush(ctx)
	require.Error(t, err)

	dirty, err := e.MR.Members(viewDirtySet)
	require.NoError(t, err)
	assert.Len(t, dirty, len(want))
	for id, count := range want {
		assert.Contains(t, dirty, strconv.FormatUint(uint64(id), 10))
		got, err := e.MR.Get(viewKey(id))
		require.NoError(t, err)
		assert.Equal(t, count, got, "product %d keeps its buffered views", id)
	}

	require.NoError(t, e.DB.AutoMigrate(&models.VisitStat{}))
	n, err := e.Views.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	for id, count := range want {
		var p models.Product
		require.NoError(t, e.DB.First(&p, id).Error)
		assert.Equal(t, count, strconv.FormatInt(p.ViewCount, 10))
	}
}
