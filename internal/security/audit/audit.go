package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
)

type requestIDKey struct{}

// WithRequestID stores the request id for audit records
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored by WithRequestID
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("component", "audit"))}
}

func (al *Logger) LogAction(ctx context.Context, actor domain.Identity, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.Int64("actor_id", actor.UserID),
		slog.String("actor", actor.Username),
		slog.String("actor_role", string(actor.Role)),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogDenied(ctx context.Context, actor domain.Identity, resource, reason string) {
	al.LogAction(ctx, actor, "access_denied", resource, "", "denied", reason)
}

func (al *Logger) LogLogin(ctx context.Context, username, status string) {
	al.LogAction(ctx, domain.Identity{Username: username}, "login", "session", "", status, "")
}
