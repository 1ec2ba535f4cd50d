package transport

import (
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type SignupRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=64"`
	Name     string `json:"name"     validate:"required,max=100"`
	Phone    string `json:"phone"    validate:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LoginResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	AccessExp    time.Time    `json:"access_exp"`
	RefreshExp   time.Time    `json:"refresh_exp"`
	User         *models.User `json:"user,omitempty"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name"  validate:"omitempty,min=1,max=100"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=64"`
}
