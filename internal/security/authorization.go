package security

import (
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
)

// Authorize is the Role Gate: the identity passes only when its role equals
// the required one. It has no side effects.
func Authorize(identity domain.Identity, required domain.Role) error {
	if identity.Role != required {
		return fmt.Errorf("%w: role %q required", domain.ErrForbidden, required)
	}
	return nil
}

// AuthorizationService wraps the Role Gate with denial logging
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// Require checks the identity against the required role and logs denials
func (as *AuthorizationService) Require(identity domain.Identity, required domain.Role) error {
	if err := Authorize(identity, required); err != nil {
		as.logger.Warn("permission denied",
			slog.Int64("user_id", identity.UserID),
			slog.String("username", identity.Username),
			slog.String("role", string(identity.Role)),
			slog.String("required", string(required)),
		)
		return err
	}
	return nil
}
