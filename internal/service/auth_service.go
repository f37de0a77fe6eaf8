package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
	"github.com/aryan0dhankhar/memberledger/internal/observability/metrics"
	"github.com/aryan0dhankhar/memberledger/internal/security/audit"
	"github.com/aryan0dhankhar/memberledger/internal/security/auth"
)

// AuthService handles login and token verification
type AuthService struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	audit  *audit.Logger
	logger *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	tokens *auth.TokenManager,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	return &AuthService{
		users:  users,
		tokens: tokens,
		audit:  auditLog,
		logger: logger,
	}
}

// LoginResult is returned on a successful login
type LoginResult struct {
	Token    string      `json:"token"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Login checks the credentials of exactly one account and issues a token.
// Unknown usernames and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		auth.DummyCheck(password)
		metrics.ObserveLogin("invalid")
		s.audit.LogLogin(ctx, username, "denied")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		metrics.ObserveLogin("error")
		s.logger.Error("failed to load user for login",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("login: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		metrics.ObserveLogin("invalid")
		s.audit.LogLogin(ctx, username, "denied")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(domain.Identity{UserID: user.ID, Username: user.Username, Role: user.Role})
	if err != nil {
		metrics.ObserveLogin("error")
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.ObserveLogin("success")
	s.audit.LogLogin(ctx, username, "success")
	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &LoginResult{Token: token, Username: user.Username, Role: user.Role}, nil
}

// Validate verifies a bearer token and returns its identity
func (s *AuthService) Validate(token string) (domain.Identity, error) {
	return s.tokens.Validate(token)
}

// Bootstrap creates an admin account when the directory is empty. It reports
// whether an account was created.
func (s *AuthService) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	n, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	user := &domain.User{Username: username, PasswordHash: hash, Role: domain.RoleAdmin}
	if err := s.users.Create(ctx, user); err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", slog.String("username", username))
	return true, nil
}
