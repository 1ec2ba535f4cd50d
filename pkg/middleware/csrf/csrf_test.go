package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{Secure: false}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/cart", ok)
	e.POST("/cart", ok)
	return e
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	e := newServer()

	do := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("anonymous passes", func(t *testing.T) {
		rec := do(httptest.NewRequest(http.MethodPost, "/cart", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bearer passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cart", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer x")
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: "x"})
		assert.Equal(t, http.StatusOK, do(req).Code)
	})

	t.Run("cookie session needs token", func(t *testing.T) {
		get := httptest.NewRequest(http.MethodGet, "/cart", nil)
		get.AddCookie(&http.Cookie{Name: "accessToken", Value: "x"})
		rec := do(get)
		require.Equal(t, http.StatusOK, rec.Code)

		var token string
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == "XSRF-TOKEN" {
				token = ck.Value
			}
		}
		require.NotEmpty(t, token)

		post := httptest.NewRequest(http.MethodPost, "/cart", nil)
		post.AddCookie(&http.Cookie{Name: "accessToken", Value: "x"})
		post.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
		assert.NotEqual(t, http.StatusOK, do(post).Code)

		post = httptest.NewRequest(http.MethodPost, "/cart", nil)
		post.AddCookie(&http.Cookie{Name: "accessToken", Value: "x"})
		post.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
		post.Header.Set("X-CSRF-Token", token)
		assert.Equal(t, http.StatusOK, do(post).Code)
	})
}
