package service

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
)

type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev events.Event)
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Completer is a chat-completion backend.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
}

type ChargeRequest struct {
	MerchantUID string
	OrderNumber string
	Method      string
	Amount      int64
}

type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) error
	Cancel(ctx context.Context, merchantUID string, amount int64) error
}
