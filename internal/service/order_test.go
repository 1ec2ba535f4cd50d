package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/testutil"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/lock"
)

func orderOf(productID uint, qty int64) transport.CreateOrderRequest {
	return transport.CreateOrderRequest{Items: []transport.CreateOrderItem{{ProductID: productID, Quantity: qty}}}
}

func TestOrder_CreateDecrementsStockAndSnapshots(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "o@example.com", "user")
	mug := testutil.CreateProduct(t, e.DB, "mug", 500, 5)
	pen := testutil.CreateProduct(t, e.DB, "pen", 120, 10)
	_, err := e.Address.Create(ctx, u.ID, transport.AddressRequest{Name: "home", Recipient: "O", Phone: "1", ZipCode: "00100", Line1: "Main 1"})
	require.NoError(t, err)

	o, err := e.Orders.Create(ctx, u.ID, transport.CreateOrderRequest{Items: []transport.CreateOrderItem{
		{ProductID: pen.ID, Quantity: 2},
		{ProductID: mug.ID, Quantity: 1},
		{ProductID: pen.ID, Quantity: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, o.Status)
	assert.EqualValues(t, 500+3*120, o.TotalAmount)
	assert.Equal(t, "Main 1", o.Line1)
	assert.Len(t, o.OrderNumber, 36)
	require.Len(t, o.Items, 2)
	assert.Equal(t, mug.ID, o.Items[0].ProductID)

	assert.EqualValues(t, 4, testutil.Stock(t, e.DB, mug.ID))
	assert.EqualValues(t, 7, testutil.Stock(t, e.DB, pen.ID))
	assert.Equal(t, 1, e.Slack.Count())

	_, err = e.Orders.Create(ctx, u.ID, transport.CreateOrderRequest{Items: []transport.CreateOrderItem{
		{ProductID: pen.ID, Quantity: 1},
		{ProductID: mug.ID, Quantity: 50},
	}})
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.EqualValues(t, 7, testutil.Stock(t, e.DB, pen.ID), "failed order rolls back every decrement")

	_, err = e.Orders.Create(ctx, u.ID, transport.CreateOrderRequest{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.Orders.Create(ctx, u.ID, transport.CreateOrderRequest{Items: orderOf(mug.ID, 1).Items, AddressID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrder_FromCartRemovesLines(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "fc@example.com", "user")
	mug := testutil.CreateProduct(t, e.DB, "mug", 500, 5)
	pen := testutil.CreateProduct(t, e.DB, "pen", 100, 5)
	owner := CartOwner{UserID: u.ID}
	require.NoError(t, e.Cart.Add(ctx, owner, mug.ID, 2))
	require.NoError(t, e.Cart.Add(ctx, owner, pen.ID, 1))

	o, err := e.Orders.Create(ctx, u.ID, transport.CreateOrderRequest{FromCart: true, Items: []transport.CreateOrderItem{{ProductID: mug.ID, Quantity: 1}}})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.EqualValues(t, 2, o.Items[0].Quantity, "cart quantity wins")

	view, err := e.Cart.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, pen.ID, view.Items[0].ProductID)
}

func TestOrder_CancelRestocksOnlyPending(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "x@example.com", "user")
	other := testutil.CreateUser(t, e.DB, "y@example.com", "user")
	p := testutil.CreateProduct(t, e.DB, "mug", 500, 5)

	o, err := e.Orders.Create(ctx, u.ID, orderOf(p.ID, 2))
	require.NoError(t, err)

	_, err = e.Orders.Cancel(ctx, other.ID, false, o.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := e.Orders.Cancel(ctx, u.ID, false, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.EqualValues(t, 5, testutil.Stock(t, e.DB, p.ID))

	_, err = e.Orders.Cancel(ctx, u.ID, false, o.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = e.Orders.Confirm(ctx, u.ID, false, o.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPayment_WithPointsThenConfirmAccrues(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "p@example.com", "user")
	p := testutil.CreateProduct(t, e.DB, "lamp", 1000, 3)
	_, err := e.Points.Earn(ctx, u.ID, 300, "welcome", nil)
	require.NoError(t, err)

	o, err := e.Orders.Create(ctx, u.ID, orderOf(p.ID, 1))
	require.NoError(t, err)

	_, err = e.Payments.Pay(ctx, u.ID, o.ID, transport.PayRequest{Method: "card", UsePoints: 5000})
	assert.ErrorIs(t, err, ErrValidation)

	pay, err := e.Payments.Pay(ctx, u.ID, o.ID, transport.PayRequest{Method: "card", UsePoints: 300})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, pay.Status)
	assert.EqualValues(t, 700, pay.Amount)
	require.NotNil(t, pay.PaidAt)

	bal, err := e.Points.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, bal)

	got, err := e.Orders.Get(ctx, u.ID, false, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, got.Status)
	assert.EqualValues(t, 300, got.UsedPoints)
	assert.EqualValues(t, 700, got.PayAmount)

	_, err = e.Payments.Pay(ctx, u.ID, o.ID, transport.PayRequest{Method: "card"})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = e.Orders.Confirm(ctx, u.ID, false, o.ID)
	require.NoError(t, err)
	bal, err = e.Points.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 7, bal, "floor(700 * 0.01)")

	// accrual runs once per order
	_, err = e.Points.EarnForOrder(ctx, u.ID, o.ID, 700)
	require.NoError(t, err)
	bal, _ = e.Points.Balance(ctx, u.ID)
	assert.EqualValues(t, 7, bal)
}

func TestPayment_DeclinedRestoresPoints(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "d@example.com", "user")
	p := testutil.CreateProduct(t, e.DB, "lamp", 1000, 3)
	_, err := e.Points.Earn(ctx, u.ID, 300, "welcome", nil)
	require.NoError(t, err)
	o, err := e.Orders.Create(ctx, u.ID, orderOf(p.ID, 1))
	require.NoError(t, err)

	pay, err := e.Payments.Pay(ctx, u.ID, o.ID, transport.PayRequest{Method: "fail", UsePoints: 200})
	assert.ErrorIs(t, err, ErrPaymentFailed)
	require.NotNil(t, pay)
	assert.Equal(t, models.PaymentFailed, pay.Status)
	assert.NotEmpty(t, pay.FailureReason)

	bal, _ := e.Points.Balance(ctx, u.ID)
	assert.EqualValues(t, 300, bal)
	got, _ := e.Orders.Get(ctx, u.ID, false, o.ID)
	assert.Equal(t, models.OrderPending, got.Status)

	pay, err = e.Payments.Pay(ctx, u.ID, o.ID, transport.PayRequest{Method: "card", UsePoints: 200})
	require.NoError(t, err)
	assert.EqualValues(t, 800, pay.Amount)

	payments, err := e.Payments.ListForOrder(ctx, u.ID, false, o.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestPayment_CancelRestocksAndRestores(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "pc@example.com", "user")
	other := testutil.CreateUser(t, e.DB, "pc2@example.com", "user")
	p := testutil.CreateProduct(t, e.DB, "lamp", 1000, 3)
	_, err := e.Points.Earn(ctx, u.ID, 100, "welcome", nil)
	require.NoError(t, err)
	o, err := e.Orders.Create(ctx, u.ID, orderOf(p.ID, 2))
	require.NoError(t, err)
	pay, err := e.Payments.Pay(ctx, u.ID, o.ID, transport.PayRequest{Method: "card", UsePoints: 100})
	require.NoError(t, err)

	_, err = e.Payments.Cancel(ctx, other.ID, false, pay.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := e.Payments.Cancel(ctx, u.ID, false, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	got, _ := e.Orders.Get(ctx, u.ID, false, o.ID)
	assert.Equal(t, models.OrderCancelled, got.Status)
	assert.EqualValues(t, 3, testutil.Stock(t, e.DB, p.ID))
	bal, _ := e.Points.Balance(ctx, u.ID)
	assert.EqualValues(t, 100, bal)
	assert.Contains(t, e.PG.cancelled, pay.MerchantUID)

	_, err = e.Payments.Cancel(ctx, u.ID, false, pay.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPayment_LockNotAcquired(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "l@example.com", "user")
	p := testutil.CreateProduct(t, e.DB, "lamp", 1000, 3)
	o, err := e.Orders.Create(ctx, u.ID, orderOf(p.ID, 1))
	require.NoError(t, err)

	short := lock.New(e.Redis, 100*time.Millisecond, 5*time.Second)
	e.Payments.Locker = short

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = short.WithLock(ctx, lock.Key("order", o.ID), func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	_, err = e.Payments.Pay(ctx, u.ID, o.ID, transport.PayRequest{Method: "card"})
	assert.ErrorIs(t, err, lock.ErrNotAcquired)
	close(release)
}

func TestRefund_ApproveCompleteAndReject(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u := testutil.CreateUser(t, e.DB, "r@example.com", "user")
	p := testutil.CreateProduct(t, e.DB, "lamp", 1000, 5)
	_, err := e.Points.Earn(ctx, u.ID, 50, "welcome", nil)
	require.NoError(t, err)

	paidOrder := func(usePoints int64) (*models.Order, *models.Payment) {
		o, err := e.Orders.Create(ctx, u.ID, orderOf(p.ID, 1))
		require.NoError(t, err)
		pay, err := e.Payments.Pay(ctx, u.ID, o.ID, transport.PayRequest{Method: "card", UsePoints: usePoints})
		require.NoError(t, err)
		return o, pay
	}

	o, pay := paidOrder(50)
	assert.EqualValues(t, 4, testutil.Stock(t, e.DB, p.ID))

	_, err = e.Refunds.Request(ctx, u.ID, o.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)

	rf, err := e.Refunds.Request(ctx, u.ID, o.ID, "broken on arrival")
	require.NoError(t, err)
	assert.Equal(t, models.RefundRequested, rf.Status)
	assert.EqualValues(t, 950, rf.Amount)

	_, err = e.Refunds.Request(ctx, u.ID, o.ID, "again")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.Refunds.Complete(ctx, rf.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	approved, err := e.Refunds.Approve(ctx, rf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundApproved, approved.Status)

	assert.EqualValues(t, 5, testutil.Stock(t, e.DB, p.ID))
	bal, _ := e.Points.Balance(ctx, u.ID)
	assert.EqualValues(t, 50, bal)
	gotPay, err := e.Payments.Get(ctx, u.ID, false, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCancelled, gotPay.Status)
	got, _ := e.Orders.Get(ctx, u.ID, false, o.ID)
	assert.Equal(t, models.OrderRefundRequested, got.Status)

	done, err := e.Refunds.Complete(ctx, rf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundCompleted, done.Status)
	got, _ = e.Orders.Get(ctx, u.ID, false, o.ID)
	assert.Equal(t, models.OrderRefunded, got.Status)

	o2, _ := paidOrder(0)
	rf2, err := e.Refunds.Request(ctx, u.ID, o2.ID, "changed my mind")
	require.NoError(t, err)
	rejected, err := e.Refunds.Reject(ctx, rf2.ID, "used item")
	require.NoError(t, err)
	assert.Equal(t, models.RefundRejected, rejected.Status)
	assert.Equal(t, "used item", rejected.RejectReason)
	got, _ = e.Orders.Get(ctx, u.ID, false, o2.ID)
	assert.Equal(t, models.OrderPaid, got.Status)

	_, err = e.Refunds.Approve(ctx, rf2.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	total, mine, err := e.Refunds.List(ctx, repo.RefundFilter{UserID: u.ID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, mine, 2)
}
