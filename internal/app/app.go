// Package app wires the configured backends into the service layer.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/httpserver"
	"github.com/Skotchmaster/marketplace/internal/integrations"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/scheduler"
	"github.com/Skotchmaster/marketplace/internal/search"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/cache"
	"github.com/Skotchmaster/marketplace/pkg/config"
	"github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/lock"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
	"github.com/Skotchmaster/marketplace/pkg/middleware/ratelimit"
)

const rateLimitIdle = 30 * time.Minute

type App struct {
	Config config.Config
	Log    *slog.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	Bus    *events.Bus
	Repo   *repo.GormRepo

	Limiter *ratelimit.IPRateLimiter

	Auth     *service.AuthService
	Users    *service.UserService
	Views    *service.ViewService
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Wishlist *service.WishlistService
	Address  *service.AddressService
	Points   *service.PointService
	Orders   *service.OrderService
	Payments *service.PaymentService
	Refunds  *service.RefundService
	Reviews  *service.ReviewService
	QnA      *service.QnAService
	Mail     *service.MailService
	Chatbot  *service.ChatbotService
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: log, DB: gdb, Repo: repo.New(gdb)}
	a.Limiter = ratelimit.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	a.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		a.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	pub, err := publisher(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Bus = events.NewBus(pub)

	accrual, err := decimal.NewFromString(cfg.PointAccrualRate)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("POINT_ACCRUAL_RATE: %w", err)
	}

	index := a.productIndex(ctx)
	locker := lock.New(a.Redis, cfg.LockWait, cfg.LockLease)
	slack := integrations.NewSlack(cfg.SlackWebhookURL)

	var ai service.Completer
	if c := integrations.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL); c != nil {
		ai = c
	} else {
		log.Warn("openai_disabled", "reason", "OPENAI_API_KEY is empty")
	}

	var mailer service.Mailer
	if m := integrations.NewMailer(integrations.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}); m.Enabled() {
		mailer = m
	}

	a.Auth = &service.AuthService{Repo: a.Repo, AccessSecret: cfg.JWTAccessSecret, RefreshSecret: cfg.JWTRefreshSecret, Mailer: mailer}
	a.Users = &service.UserService{Repo: a.Repo}
	a.Views = &service.ViewService{Repo: a.Repo, Redis: a.Redis}
	a.Catalog = &service.CatalogService{Repo: a.Repo, Index: index, Cache: cache.New(a.Redis), Views: a.Views}
	a.Cart = &service.CartService{Repo: a.Repo, Redis: a.Redis, Locker: locker}
	a.Wishlist = &service.WishlistService{Repo: a.Repo}
	a.Address = &service.AddressService{Repo: a.Repo, Locker: locker}
	a.Points = &service.PointService{Repo: a.Repo, Locker: locker, AccrualRate: accrual, ReviewPoints: cfg.ReviewPoints}
	a.Orders = &service.OrderService{Repo: a.Repo, Locker: locker, Bus: a.Bus, Notifier: slack, Catalog: a.Catalog}
	a.Payments = &service.PaymentService{
		Repo:    a.Repo,
		Locker:  locker,
		Points:  a.Points,
		Gateway: integrations.NewMockGateway(),
		Bus:     a.Bus,
		Catalog: a.Catalog,
	}
	a.Refunds = &service.RefundService{Repo: a.Repo, Locker: locker, Bus: a.Bus, Notifier: slack}
	a.Reviews = &service.ReviewService{Repo: a.Repo, AI: ai, Bus: a.Bus, TTL: cfg.ReviewSummaryTTL}
	a.QnA = &service.QnAService{Repo: a.Repo, Notifier: slack}
	a.Mail = &service.MailService{Mailer: mailer}
	a.Chatbot = &service.ChatbotService{AI: ai}

	service.RegisterEventHandlers(a.Bus, a.Points, a.Catalog, a.Payments, a.Orders)
	return a, nil
}

func publisher(cfg config.Config) (events.Publisher, error) {
	switch cfg.EventBroker {
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, nil
		}
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "amqp", "rabbitmq":
		if cfg.AMQPURL == "" {
			return nil, nil
		}
		return events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported EVENT_BROKER %q", cfg.EventBroker)
	}
}

// productIndex returns nil when Elasticsearch is not configured; search
// then runs against the database.
func (a *App) productIndex(ctx context.Context) service.ProductIndex {
	if a.Config.ESURL == "" {
		a.Log.Warn("elasticsearch_disabled", "reason", "ES_URL is empty")
		return nil
	}
	client, err := search.NewClient(search.Config{
		URL:      a.Config.ESURL,
		User:     a.Config.ESUser,
		Password: a.Config.ESPassword,
		Index:    a.Config.ESIndex,
	})
	if err != nil {
		a.Log.Warn("elasticsearch_disabled", "error", err)
		return nil
	}
	idx := search.New(client, a.Config.ESIndex)
	if err := idx.Ping(ctx); err != nil {
		a.Log.Warn("elasticsearch_unreachable", "error", err)
	}
	return idx
}

func (a *App) Migrate() error {
	return a.DB.AutoMigrate(models.All()...)
}

// Routes builds the HTTP dependency set over the wired services.
func (a *App) Routes() *httpserver.Deps {
	return &httpserver.Deps{
		DB:             a.DB,
		Redis:          a.Redis,
		Auth:           authmw.NewAuthMiddleware(a.Config.JWTAccessSecret),
		Limiter:        a.Limiter,

		AuthHandler:     &httpserver.AuthHTTP{Svc: a.Auth, Cart: a.Cart},
		UserHandler:     &httpserver.UserHTTP{Svc: a.Users, Views: a.Views},
		CatalogHandler:  &httpserver.CatalogHTTP{Svc: a.Catalog, Views: a.Views},
		CartHandler:     &httpserver.CartHTTP{Svc: a.Cart},
		WishlistHandler: &httpserver.WishlistHTTP{Svc: a.Wishlist},
		AddressHandler:  &httpserver.AddressHTTP{Svc: a.Address},
		OrderHandler:    &httpserver.OrderHTTP{Svc: a.Orders, Payments: a.Payments},
		RefundHandler:   &httpserver.RefundHTTP{Svc: a.Refunds},
		PointHandler:    &httpserver.PointHTTP{Svc: a.Points},
		ReviewHandler:   &httpserver.ReviewHTTP{Svc: a.Reviews},
		QnAHandler:      &httpserver.QnAHTTP{Svc: a.QnA},
		NotifyHandler:   &httpserver.NotifyHTTP{Mail: a.Mail, Chatbot: a.Chatbot},
	}
}

// Jobs are the periodic maintenance tasks run next to the HTTP server.
func (a *App) Jobs() []scheduler.Job {
	return []scheduler.Job{
		{
			Name:     "flush_product_views",
			Interval: a.Config.ViewFlushInterval,
			Run: func(ctx context.Context) error {
				n, err := a.Views.Flush(ctx)
				if n > 0 {
					a.Log.Info("product_views_flushed", "products", n)
				}
				return err
			},
		},
		{
			Name:     "purge_refresh_tokens",
			Interval: time.Hour,
			Run: func(ctx context.Context) error {
				n, err := a.Repo.PurgeExpiredRefreshTokens(ctx, time.Now().UTC())
				if n > 0 {
					a.Log.Info("refresh_tokens_purged", "count", n)
				}
				return err
			},
		},
		{
			Name:     "prune_rate_limits",
			Interval: 10 * time.Minute,
			Run: func(ctx context.Context) error {
				if n := a.Limiter.CleanupStaleIPs(rateLimitIdle); n > 0 {
					a.Log.Debug("rate_limits_pruned", "ips", n)
				}
				return nil
			},
		},
	}
}

func (a *App) Close() {
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Error("event_bus_close_error", "error", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Error("redis_close_error", "error", err)
		}
	}
	if err := db.Close(a.DB); err != nil {
		a.Log.Error("db_close_error", "error", err)
	}
}
