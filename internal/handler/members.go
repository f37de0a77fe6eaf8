package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
	"github.com/aryan0dhankhar/memberledger/internal/service"
)

// MemberHandler serves /members
type MemberHandler struct {
	members *service.MemberService
	logger  *slog.Logger
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(members *service.MemberService, logger *slog.Logger) *MemberHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemberHandler{members: members, logger: logger}
}

// CountResponse is the body of GET /members/count
type CountResponse struct {
	Count int64 `json:"count"`
}

// List handles GET /members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context())
	if err != nil {
		handleError(w, r, h.logger, "list members", err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// Count handles GET /members/count
func (h *MemberHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.members.Count(r.Context())
	if err != nil {
		handleError(w, r, h.logger, "count members", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// Create handles POST /members
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var m domain.Member
	if err := decodeJSON(w, r, &m); err != nil {
		handleError(w, r, h.logger, "create member", err)
		return
	}

	if err := h.members.Create(r.Context(), &m); err != nil {
		handleError(w, r, h.logger, "create member", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// Update handles PUT /members/{id}. Every field is overwritten.
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, h.logger, "update member", err)
		return
	}

	var m domain.Member
	if err := decodeJSON(w, r, &m); err != nil {
		handleError(w, r, h.logger, "update member", err)
		return
	}
	m.ID = id

	if err := h.members.Update(r.Context(), &m); err != nil {
		handleError(w, r, h.logger, "update member", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Delete handles DELETE /members/{id}
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, h.logger, "delete member", err)
		return
	}

	if err := h.members.Delete(r.Context(), id); err != nil {
		handleError(w, r, h.logger, "delete member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
