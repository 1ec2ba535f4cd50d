package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/pkg/e"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
	"github.com/Skotchmaster/marketplace/pkg/middleware/ratelimit"
)

type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client
	Auth  *authmw.AuthMiddleware

	// Limiter is shared with the pruning job; when nil one is built from
	// RateLimit and RateLimitBurst.
	Limiter        *ratelimit.IPRateLimiter
	RateLimit      rate.Limit
	RateLimitBurst int

	AuthHandler     *AuthHTTP
	UserHandler     *UserHTTP
	CatalogHandler  *CatalogHTTP
	CartHandler     *CartHTTP
	WishlistHandler *WishlistHTTP
	AddressHandler  *AddressHTTP
	OrderHandler    *OrderHTTP
	RefundHandler   *RefundHTTP
	PointHandler    *PointHTTP
	ReviewHandler   *ReviewHTTP
	QnAHandler      *QnAHTTP
	NotifyHandler   *NotifyHTTP
}

func Register(ec *echo.Echo, d *Deps) {
	ec.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	ec.GET("/health/ready", d.ready)

	limiter := d.Limiter
	if limiter == nil {
		limiter = ratelimit.NewIPRateLimiter(d.RateLimit, d.RateLimitBurst)
	}
	limit := limiter.Middleware()
	requireAuth := d.Auth.RequireAuth
	optionalAuth := d.Auth.OptionalAuth

	auth := ec.Group("/auth", limit)
	auth.POST("/signup", d.AuthHandler.Signup)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	users := ec.Group("/users/me", requireAuth)
	users.GET("", d.UserHandler.Me)
	users.PATCH("", d.UserHandler.Update)
	users.PATCH("/password", d.UserHandler.ChangePassword)
	users.DELETE("", d.UserHandler.Delete)
	users.GET("/history", d.UserHandler.History)

	products := ec.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.Search)
	products.GET("/:id", d.CatalogHandler.GetProduct, optionalAuth)
	products.GET("/:id/reviews", d.ReviewHandler.List)
	products.GET("/:id/questions", d.QnAHandler.List, optionalAuth)
	products.POST("/:id/questions", d.QnAHandler.Ask, requireAuth)

	cart := ec.Group("/cart", optionalAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.POST("/merge", d.CartHandler.MergeCart, requireAuth)
	cart.PATCH("/:productId", d.CartHandler.SetQuantity)
	cart.DELETE("/:productId", d.CartHandler.RemoveFromCart)
	cart.DELETE("", d.CartHandler.ClearCart)

	wishlist := ec.Group("/wishlist", requireAuth)
	wishlist.GET("", d.WishlistHandler.List)
	wishlist.POST("", d.WishlistHandler.Add)
	wishlist.DELETE("/:productId", d.WishlistHandler.Remove)

	addresses := ec.Group("/addresses", requireAuth)
	addresses.GET("", d.AddressHandler.List)
	addresses.POST("", d.AddressHandler.Create)
	addresses.PATCH("/:id", d.AddressHandler.Update)
	addresses.POST("/:id/default", d.AddressHandler.SetDefault)
	addresses.DELETE("/:id", d.AddressHandler.Delete)

	orders := ec.Group("/orders", requireAuth)
	orders.POST("", d.OrderHandler.Create)
	orders.GET("", d.OrderHandler.List)
	orders.GET("/:id", d.OrderHandler.Get)
	orders.POST("/:id/cancel", d.OrderHandler.Cancel)
	orders.POST("/:id/confirm", d.OrderHandler.Confirm)
	orders.POST("/:id/pay", d.OrderHandler.Pay)
	orders.GET("/:id/payments", d.OrderHandler.ListPayments)
	orders.POST("/:id/refund", d.RefundHandler.Request)

	payments := ec.Group("/payments", requireAuth)
	payments.GET("/:id", d.OrderHandler.GetPayment)
	payments.POST("/:id/cancel", d.OrderHandler.CancelPayment)

	refunds := ec.Group("/refunds", requireAuth)
	refunds.GET("", d.RefundHandler.List)
	refunds.GET("/:id", d.RefundHandler.Get)

	points := ec.Group("/points", requireAuth)
	points.GET("", d.PointHandler.Balance)
	points.GET("/history", d.PointHandler.History)

	ec.POST("/reviews", d.ReviewHandler.Create, requireAuth)
	ec.DELETE("/reviews/:id", d.ReviewHandler.Delete, requireAuth)
	ec.DELETE("/questions/:id", d.QnAHandler.Delete, requireAuth)

	ec.POST("/mail/send", d.NotifyHandler.SendMail, d.Auth.RequireAdmin)

	api := ec.Group("/api")
	api.GET("/reviews/summary", d.ReviewHandler.Summary)
	api.POST("/chatbot/chat", d.NotifyHandler.Chat, limit)

	admin := ec.Group("/admin", d.Auth.RequireAdmin)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
	admin.POST("/products/reindex", d.CatalogHandler.Reindex)
	admin.GET("/stats/visits", d.CatalogHandler.VisitStats)
	admin.GET("/orders", d.OrderHandler.AdminList)
	admin.GET("/refunds", d.RefundHandler.AdminList)
	admin.POST("/refunds/:id/approve", d.RefundHandler.Approve)
	admin.POST("/refunds/:id/reject", d.RefundHandler.Reject)
	admin.POST("/refunds/:id/complete", d.RefundHandler.Complete)
	admin.POST("/users/:id/points", d.PointHandler.Adjust)
	admin.POST("/questions/:id/answer", d.QnAHandler.Answer)
}

func (d *Deps) ready(c echo.Context) error {
	ctx := c.Request().Context()
	sqlDB, err := d.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err == nil && d.Redis != nil {
		err = d.Redis.Ping(ctx).Err()
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, e.NewBody(e.ERROR_UPSTREAM, "not ready"))
	}
	return c.NoContent(http.StatusOK)
}
