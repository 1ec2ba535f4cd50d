package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/testutil"
	"github.com/Skotchmaster/marketplace/pkg/cache"
)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *fakeNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, text)
	return nil
}

func (n *fakeNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

type fakeAI struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (a *fakeAI) Complete(_ context.Context, _, _ string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.reply, a.err
}

func (a *fakeAI) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type fakeGateway struct {
	mu        sync.Mutex
	charged   map[string]int64
	cancelled []string
}

func (g *fakeGateway) Charge(_ context.Context, req ChargeRequest) error {
	if req.Method == "fail" {
		return errors.New("card declined")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.charged == nil {
		g.charged = map[string]int64{}
	}
	g.charged[req.MerchantUID] = req.Amount
	return nil
}

func (g *fakeGateway) Cancel(_ context.Context, merchantUID string, _ int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, merchantUID)
	return nil
}

type env struct {
	DB    *gorm.DB
	MR    *miniredis.Miniredis
	Redis *redis.Client
	Repo  *repo.GormRepo
	Bus   *events.Bus
	Slack *fakeNotifier
	AI    *fakeAI
	PG    *fakeGateway
	Now   time.Time

	Auth     *AuthService
	Users    *UserService
	Views    *ViewService
	Catalog  *CatalogService
	Cart     *CartService
	Wishlist *WishlistService
	Address  *AddressService
	Points   *PointService
	Orders   *OrderService
	Payments *PaymentService
	Refunds  *RefundService
	Reviews  *ReviewService
	QnA      *QnAService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	gdb := testutil.NewDB(t)
	mr, rdb := testutil.NewRedis(t)
	locker := testutil.NewLocker(rdb)
	r := repo.New(gdb)

	e := &env{
		DB:    gdb,
		MR:    mr,
		Redis: rdb,
		Repo:  r,
		Bus:   events.NewBus(nil),
		Slack: &fakeNotifier{},
		AI:    &fakeAI{reply: "Solid product."},
		PG:    &fakeGateway{},
		Now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return e.Now }

	e.Auth = &AuthService{Repo: r, AccessSecret: []byte("access"), RefreshSecret: []byte("refresh")}
	e.Users = &UserService{Repo: r}
	e.Views = &ViewService{Repo: r, Redis: rdb, Now: clock}
	e.Catalog = &CatalogService{Repo: r, Cache: cache.New(rdb), Views: e.Views}
	e.Cart = &CartService{Repo: r, Redis: rdb, Locker: locker}
	e.Wishlist = &WishlistService{Repo: r}
	e.Address = &AddressService{Repo: r, Locker: locker}
	e.Points = &PointService{Repo: r, Locker: locker, AccrualRate: decimal.RequireFromString("0.01"), ReviewPoints: 100}
	e.Orders = &OrderService{Repo: r, Locker: locker, Bus: e.Bus, Notifier: e.Slack, Catalog: e.Catalog}
	e.Payments = &PaymentService{Repo: r, Locker: locker, Points: e.Points, Gateway: e.PG, Bus: e.Bus, Catalog: e.Catalog, Now: clock}
	e.Refunds = &RefundService{Repo: r, Locker: locker, Bus: e.Bus, Notifier: e.Slack, Now: clock}
	e.Reviews = &ReviewService{Repo: r, AI: e.AI, Bus: e.Bus, TTL: 24 * time.Hour, Now: clock}
	e.QnA = &QnAService{Repo: r, Notifier: e.Slack}

	RegisterEventHandlers(e.Bus, e.Points, e.Catalog, e.Payments, e.Orders)
	return e
}
