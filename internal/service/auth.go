package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	pkghash "github.com/Skotchmaster/marketplace/pkg/hash"
	jwthelp "github.com/Skotchmaster/marketplace/pkg/jwt"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

type AuthService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	Mailer        Mailer
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *AuthService) Signup(ctx context.Context, req transport.SignupRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return nil, validationf("email, password and name are required")
	}
	if n := len(req.Password); n < 8 || n > 64 {
		return nil, validationf("password must be 8..64 characters")
	}

	pwHash, err := pkghash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		PasswordHash: pwHash,
		Role:         "user",
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, mapRepoErr(err, "email already registered")
	}

	if s.Mailer != nil {
		if err := s.Mailer.Send(ctx, user.Email, "Welcome", "Hello "+user.Name+", your account is ready."); err != nil {
			l.Warn("welcome_mail_error", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*transport.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationf("email and password are required")
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if err := mapRepoErr(err, "user"); errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return nil, err
	}
	if !pkghash.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	res, err := s.issue(ctx, s.Repo, user)
	if err != nil {
		return nil, err
	}
	res.User = user
	return res, nil
}

func (s *AuthService) issue(ctx context.Context, r *repo.GormRepo, user *models.User) (*transport.LoginResult, error) {
	now := time.Now()
	sub := strconv.FormatUint(uint64(user.ID), 10)

	accessExp := now.Add(accessTTL)
	access, err := tokens.NewAccessToken(sub, user.Role, accessExp, s.AccessSecret)
	if err != nil {
		return nil, err
	}

	refreshExp := now.Add(refreshTTL)
	jti := jwthelp.NewJTI()
	refresh, err := tokens.NewRefreshToken(sub, jti, refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, err
	}

	if err := r.AddRefreshToken(ctx, &models.RefreshToken{
		Token:     jwthelp.Sha256Hex(refresh),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}); err != nil {
		return nil, err
	}

	return &transport.LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new pair issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*transport.LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	var res *transport.LoginResult
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		stored, err := tx.FindRefreshByJTI(ctx, claims.ID)
		if err != nil {
			return ErrInvalidRefreshToken
		}
		if stored.Revoked || stored.ExpiresAt < time.Now().Unix() || stored.Token != jwthelp.Sha256Hex(refreshToken) {
			return ErrInvalidRefreshToken
		}
		ok, err := tx.RevokeRefreshByJTI(ctx, claims.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidRefreshToken
		}

		user, err := tx.GetUserByID(ctx, uint(userID))
		if err != nil {
			return ErrInvalidRefreshToken
		}
		res, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshByHash(ctx, jwthelp.Sha256Hex(refreshToken))
}
