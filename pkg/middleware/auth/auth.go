package middleware

import (
	"net/http"
	"strconv"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/pkg/e"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

const (
	claimsKey = "claims"
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type AuthMiddleware struct {
	JWTSecret []byte

	required echo.MiddlewareFunc
	optional echo.MiddlewareFunc
}

func NewAuthMiddleware(secret []byte) *AuthMiddleware {
	m := &AuthMiddleware{JWTSecret: secret}
	m.required = echojwt.WithConfig(m.config(false))
	m.optional = echojwt.WithConfig(m.config(true))
	return m
}

func (m *AuthMiddleware) config(optional bool) echojwt.Config {
	return echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:Authorization:Bearer ,cookie:accessToken",
		ParseTokenFunc: func(c echo.Context, auth string) (any, error) {
			return tokens.AccessClaimsFromToken(auth, m.JWTSecret)
		},
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get(claimsKey).(*tokens.AccessClaims); ok {
				setUserContext(c, claims)
			}
		},
		ContinueOnIgnoredError: optional,
		ErrorHandler: func(c echo.Context, err error) error {
			if optional {
				return nil
			}
			return echo.NewHTTPError(http.StatusUnauthorized, e.NewBody(e.ERROR_AUTH_TOKEN_INVALID, ""))
		},
	}
}

// RequireAuth rejects requests without a valid access token.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.required(next)
}

// OptionalAuth sets the principal when a valid token is present and
// lets anonymous requests through.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.optional(next)
}

func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.required(func(c echo.Context) error {
		if role, _ := c.Get("role").(string); role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, e.NewBody(e.ERROR_FORBIDDEN, "admin access required"))
		}
		return next(c)
	})
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set("user_id", claims.Subject)
	c.Set("role", claims.Role)
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(c echo.Context) uint {
	s, _ := c.Get("user_id").(string)
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == RoleAdmin
}
