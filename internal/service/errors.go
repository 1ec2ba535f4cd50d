package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/repo"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrUnauthorized       = errors.New("unauthorized")        // 401
	ErrForbidden          = errors.New("forbidden")           // 403
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
	ErrInvalidState       = errors.New("invalid state")       // 409
	ErrOutOfStock         = errors.New("out of stock")        // 409
	ErrInsufficientPoints = errors.New("insufficient points") // 409
	ErrPaymentFailed      = errors.New("payment failed")      // 402
	ErrUpstream           = errors.New("upstream failure")    // 502
)

// mapRepoErr translates storage errors into service errors.
func mapRepoErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repo.ErrDuplicate), errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	default:
		return err
	}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
