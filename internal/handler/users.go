package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
	"github.com/aryan0dhankhar/memberledger/internal/security/middleware"
	"github.com/aryan0dhankhar/memberledger/internal/service"
)

// UserHandler serves the admin-only /users routes
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new user directory handler
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

// UpdateRoleRequest is the body of PUT /users/{id}/role
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func actor(r *http.Request) (domain.Identity, error) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	who, err := actor(r)
	if err != nil {
		handleError(w, r, h.logger, "list users", err)
		return
	}

	users, err := h.users.List(r.Context(), who)
	if err != nil {
		handleError(w, r, h.logger, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	who, err := actor(r)
	if err != nil {
		handleError(w, r, h.logger, "create user", err)
		return
	}

	var in service.CreateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleError(w, r, h.logger, "create user", err)
		return
	}

	user, err := h.users.Create(r.Context(), who, in)
	if err != nil {
		handleError(w, r, h.logger, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Delete handles DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	who, err := actor(r)
	if err != nil {
		handleError(w, r, h.logger, "delete user", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, h.logger, "delete user", err)
		return
	}

	if err := h.users.Delete(r.Context(), who, id); err != nil {
		handleError(w, r, h.logger, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateRole handles PUT /users/{id}/role
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	who, err := actor(r)
	if err != nil {
		handleError(w, r, h.logger, "update user role", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, h.logger, "update user role", err)
		return
	}

	var req UpdateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, "update user role", err)
		return
	}

	user, err := h.users.UpdateRole(r.Context(), who, id, req.Role)
	if err != nil {
		handleError(w, r, h.logger, "update user role", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
