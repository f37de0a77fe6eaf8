package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
	"github.com/aryan0dhankhar/memberledger/internal/observability/metrics"
	"github.com/aryan0dhankhar/memberledger/internal/security"
	"github.com/aryan0dhankhar/memberledger/internal/security/audit"
	"github.com/aryan0dhankhar/memberledger/internal/security/auth"
)

// CreateUserInput is the payload for a new account
type CreateUserInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"`
}

// UserService is the admin-only user directory. Every method runs the Role
// Gate on the acting identity before touching storage.
type UserService struct {
	repo   domain.UserRepository
	authz  *security.AuthorizationService
	audit  *audit.Logger
	logger *slog.Logger
}

// NewUserService creates a new user directory service
func NewUserService(repo domain.UserRepository, authz *security.AuthorizationService, auditLog *audit.Logger, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	if authz == nil {
		authz = security.NewAuthorizationService(logger)
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &UserService{repo: repo, authz: authz, audit: auditLog, logger: logger}
}

// List returns every account without password hashes
func (s *UserService) List(ctx context.Context, actor domain.Identity) ([]*domain.User, error) {
	if err := s.authz.Require(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}

// Create adds an account with a bcrypt-hashed password. An omitted role
// means member.
func (s *UserService) Create(ctx context.Context, actor domain.Identity, in CreateUserInput) (*domain.User, error) {
	if err := s.authz.Require(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	role := domain.RoleMember
	if in.Role != "" {
		r, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Username: in.Username, PasswordHash: hash, Role: role}
	err = s.repo.Create(ctx, user)
	metrics.ObserveWrite("user", "create", err)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username %q is taken", domain.ErrDuplicate, in.Username)
		}
		return nil, err
	}

	s.audit.LogAction(ctx, actor, "create", "user", strconv.FormatInt(user.ID, 10), "success", "role="+string(role))
	user.PasswordHash = ""
	return user, nil
}

// Delete removes an account. Unknown ids succeed; the actor's own account
// cannot be removed.
func (s *UserService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	if err := s.authz.Require(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if err := requireID(id, "user"); err != nil {
		return err
	}
	if id == actor.UserID {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrInvalidInput)
	}

	err := s.repo.Delete(ctx, id)
	metrics.ObserveWrite("user", "delete", err)
	if err != nil {
		return err
	}

	s.audit.LogAction(ctx, actor, "delete", "user", strconv.FormatInt(id, 10), "success", "")
	return nil
}

// UpdateRole changes an account's role and returns the updated account.
// Admins cannot demote themselves, so the directory always keeps the
// admin making changes.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.Identity, id int64, roleName string) (*domain.User, error) {
	if err := s.authz.Require(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := requireID(id, "user"); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	if id == actor.UserID && role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: cannot remove your own admin role", domain.ErrInvalidInput)
	}

	err = s.repo.UpdateRole(ctx, id, role)
	metrics.ObserveWrite("user", "update_role", err)
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, actor, "update_role", "user", strconv.FormatInt(id, 10), "success", "role="+string(role))

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}
