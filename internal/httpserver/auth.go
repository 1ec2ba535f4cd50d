package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	jwthelp "github.com/Skotchmaster/marketplace/pkg/jwt"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

type AuthHTTP struct {
	Svc  *service.AuthService
	Cart *service.CartService
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "signup_error", "invalid body", err)
	}

	user, err := h.Svc.Signup(ctx, req)
	if err != nil {
		return fail(l, "signup_error", err)
	}

	l.Info("signup_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

// Login issues a token pair and merges the guest cart named by X-Guest-Id.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}

	if guestID := c.Request().Header.Get(guestHeader); guestID != "" && h.Cart != nil {
		if n, err := h.Cart.Merge(ctx, res.User.ID, guestID); err != nil {
			l.Warn("cart_merge_error", "user_id", res.User.ID, "error", err)
		} else if n > 0 {
			l.Info("cart_merged", "user_id", res.User.ID, "lines", n)
		}
	}

	setAuthCookies(c, res)
	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	token := refreshTokenFrom(c)
	if token == "" {
		return fail(l, "refresh_error", service.ErrInvalidRefreshToken)
	}

	res, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		return fail(l, "refresh_error", err)
	}

	setAuthCookies(c, res)
	l.Info("refresh_success")
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if err := h.Svc.LogOut(ctx, refreshTokenFrom(c)); err != nil {
		return fail(l, "logout_error", err)
	}

	c.SetCookie(jwthelp.DeleteCookie(accessCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(refreshCookie, "/"))
	l.Info("logout_success")
	return c.NoContent(http.StatusNoContent)
}

// refreshTokenFrom reads the token from the JSON body, falling back to the cookie.
func refreshTokenFrom(c echo.Context) string {
	var req transport.RefreshRequest
	if c.Request().ContentLength > 0 {
		_ = c.Bind(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if ck, err := c.Cookie(refreshCookie); err == nil {
		return ck.Value
	}
	return ""
}

func setAuthCookies(c echo.Context, res *transport.LoginResult) {
	c.SetCookie(jwthelp.CreateCookie(accessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(refreshCookie, res.RefreshToken, "/", res.RefreshExp))
}
