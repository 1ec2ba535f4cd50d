package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

var secret = []byte("test-secret")

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(sub, role, time.Now().Add(time.Minute), secret)
	require.NoError(t, err)
	return tok
}

func newServer() *echo.Echo {
	m := NewAuthMiddleware(secret)
	e := echo.New()
	whoami := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": UserID(c), "admin": IsAdmin(c)})
	}
	e.GET("/me", whoami, m.RequireAuth)
	e.GET("/admin", whoami, m.RequireAdmin)
	e.GET("/maybe", whoami, m.OptionalAuth)
	return e
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	e := newServer()
	userTok := token(t, "5", RoleUser)
	adminTok := token(t, "1", RoleAdmin)

	tests := []struct {
		name   string
		path   string
		header string
		cookie string
		status int
		body   string
	}{
		{name: "bearer ok", path: "/me", header: "Bearer " + userTok, status: http.StatusOK, body: `"user_id":5`},
		{name: "cookie ok", path: "/me", cookie: userTok, status: http.StatusOK, body: `"user_id":5`},
		{name: "missing token", path: "/me", status: http.StatusUnauthorized},
		{name: "bad token", path: "/me", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "admin forbidden for user", path: "/admin", header: "Bearer " + userTok, status: http.StatusForbidden},
		{name: "admin ok", path: "/admin", header: "Bearer " + adminTok, status: http.StatusOK, body: `"admin":true`},
		{name: "optional anonymous", path: "/maybe", status: http.StatusOK, body: `"user_id":0`},
		{name: "optional with token", path: "/maybe", header: "Bearer " + userTok, status: http.StatusOK, body: `"user_id":5`},
		{name: "optional with bad token", path: "/maybe", header: "Bearer nope", status: http.StatusOK, body: `"user_id":0`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "accessToken", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Contains(t, rec.Body.String(), tt.body)
			}
		})
	}
}
