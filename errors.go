package premium

import (
	"errors"
	"fmt"

	"github.com/xraph/premium/giftcode"
	"github.com/xraph/premium/types"
	"github.com/xraph/premium/user"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("premium: not found")
	ErrInvalidInput = errors.New("premium: invalid input")

	// Configuration errors
	ErrConfigInvalid = errors.New("premium: invalid configuration")

	// Tier and feature errors
	ErrTierInvalid    = errors.New("premium: invalid tier")
	ErrFeatureInvalid = errors.New("premium: invalid feature")

	// Duration errors. ErrDurationInvalid aliases the types package sentinel
	// so callers can match either.
	ErrDurationInvalid = types.ErrDurationFormat

	// User errors. ErrUserNotFound aliases the user package sentinel
	// that stores return.
	ErrUserNotFound = user.ErrNotFound

	// Gift code errors, aliasing the giftcode package sentinels.
	ErrCodeNotFound = giftcode.ErrNotFound
	ErrCodeExists   = giftcode.ErrExists

	// Store errors
	ErrStoreNotReady     = errors.New("premium: store not ready")
	ErrStoreClosed       = errors.New("premium: store is closed")
	ErrMigrationFailed   = errors.New("premium: migration failed")
	ErrTransactionFailed = errors.New("premium: transaction failed")

	// Cache errors
	ErrCacheMiss = errors.New("premium: cache miss")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("premium: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCodeNotFound)
}

// IsValidation returns true if the error reflects rejected caller input
// rather than a system malfunction.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.Is(err, ErrTierInvalid) ||
		errors.Is(err, ErrFeatureInvalid) ||
		errors.Is(err, ErrDurationInvalid) ||
		errors.Is(err, ErrConfigInvalid) ||
		errors.As(err, &ve)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
