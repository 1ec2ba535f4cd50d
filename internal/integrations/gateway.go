package integrations

import (
	"context"
	"errors"
	"sync"

	"github.com/Skotchmaster/marketplace/internal/service"
)

// FailMethod makes the mock gateway decline the charge.
const FailMethod = "fail"

var (
	ErrDeclined       = errors.New("payment declined")
	ErrUnknownPayment = errors.New("missing merchant uid")
	ErrNegativeAmount = errors.New("negative amount")
)

// MockGateway approves every non-negative charge except those paid with FailMethod.
// Its ledger lives in memory, so Cancel accepts merchant uids it has not seen:
// the payments table is the record of what was charged.
type MockGateway struct {
	mu      sync.Mutex
	charged map[string]int64
}

func NewMockGateway() *MockGateway {
	return &MockGateway{charged: make(map[string]int64)}
}

func (g *MockGateway) Charge(ctx context.Context, req service.ChargeRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Amount < 0 {
		return ErrNegativeAmount
	}
	if req.Method == FailMethod {
		return ErrDeclined
	}
	g.mu.Lock()
	g.charged[req.MerchantUID] = req.Amount
	g.mu.Unlock()
	return nil
}

func (g *MockGateway) Cancel(ctx context.Context, merchantUID string, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if merchantUID == "" {
		return ErrUnknownPayment
	}
	g.mu.Lock()
	delete(g.charged, merchantUID)
	g.mu.Unlock()
	return nil
}
