package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	pkghash "github.com/Skotchmaster/marketplace/pkg/hash"
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) Me(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	return u, nil
}

func (s *UserService) Update(ctx context.Context, userID uint, req transport.UpdateUserRequest) (*models.User, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationf("name must not be empty")
		}
		fields["name"] = name
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if len(fields) > 0 {
		if err := s.Repo.UpdateUser(ctx, userID, fields); err != nil {
			return nil, mapRepoErr(err, "user")
		}
	}
	return s.Me(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, req transport.ChangePasswordRequest) error {
	if n := len(req.NewPassword); n < 8 || n > 64 {
		return validationf("password must be 8..64 characters")
	}
	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !pkghash.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		return fmt.Errorf("%w: current password does not match", ErrValidation)
	}
	h, err := pkghash.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.UpdateUser(ctx, userID, map[string]any{"password_hash": h}); err != nil {
			return mapRepoErr(err, "user")
		}
		return tx.RevokeUserRefreshTokens(ctx, userID)
	})
}

// Delete soft-deletes the account and revokes its sessions.
func (s *UserService) Delete(ctx context.Context, userID uint) error {
	return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.DeleteUser(ctx, userID); err != nil {
			return mapRepoErr(err, "user")
		}
		return tx.RevokeUserRefreshTokens(ctx, userID)
	})
}

// EnsureAdmin promotes an existing account to admin, or creates one with
// the given password when the email is unknown.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) (*models.User, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, validationf("email is required")
	}

	u, err := s.Repo.GetUserByEmail(ctx, email)
	if err == nil {
		if err := s.Repo.UpdateUser(ctx, u.ID, map[string]any{"role": "admin"}); err != nil {
			return nil, false, mapRepoErr(err, "user")
		}
		u.Role = "admin"
		return u, false, nil
	}
	if !isNotFound(mapRepoErr(err, "user")) {
		return nil, false, err
	}

	if n := len(password); n < 8 || n > 64 {
		return nil, false, validationf("password must be 8..64 characters")
	}
	pwHash, err := pkghash.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	u = &models.User{Email: email, Name: strings.TrimSpace(name), PasswordHash: pwHash, Role: "admin"}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		return nil, false, mapRepoErr(err, "email already registered")
	}
	return u, true, nil
}
