// Package testutil builds throwaway sqlite and redis backends for tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/lock"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory sqlite database with every model migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	gdb, err := db.Open(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func NewLocker(rdb *redis.Client) *lock.Locker {
	return lock.New(rdb, 2*time.Second, 5*time.Second)
}

func CreateUser(t *testing.T, gdb *gorm.DB, email, role string) *models.User {
	t.Helper()

	u := &models.User{Email: email, Name: "Test", PasswordHash: "x", Role: role}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func CreateProduct(t *testing.T, gdb *gorm.DB, name string, price, stock int64) *models.Product {
	t.Helper()

	p := &models.Product{Name: name, Description: name + " description", Category: "misc", Price: price, Stock: stock}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func Stock(t *testing.T, gdb *gorm.DB, productID uint) int64 {
	t.Helper()

	var p models.Product
	require.NoError(t, gdb.Unscoped().First(&p, productID).Error)
	return p.Stock
}
