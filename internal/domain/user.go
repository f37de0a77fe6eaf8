package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Role is the access tier carried by a user account and its tokens.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Roles lists every recognised tier. New tiers are added here.
var Roles = []Role{RoleAdmin, RoleMember}

// ParseRole validates a role name against the closed set of tiers.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// User is a staff login account
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the request-scoped view of a verified token.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// UserRepository defines data access for login accounts
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateRole(ctx context.Context, id int64, role Role) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
