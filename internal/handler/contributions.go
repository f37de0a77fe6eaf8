package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
	"github.com/aryan0dhankhar/memberledger/internal/service"
)

// ContributionHandler serves /contributions
type ContributionHandler struct {
	contributions *service.ContributionService
	logger        *slog.Logger
}

// NewContributionHandler creates a new contribution handler
func NewContributionHandler(contributions *service.ContributionService, logger *slog.Logger) *ContributionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContributionHandler{contributions: contributions, logger: logger}
}

// UpdateContributionRequest is the body of PUT /contributions/{id}
type UpdateContributionRequest struct {
	Amount float64   `json:"amount"`
	PaidAt time.Time `json:"paidAt"`
}

// List handles GET /contributions
func (h *ContributionHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.contributions.List(r.Context())
	if err != nil {
		handleError(w, r, h.logger, "list contributions", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListByMember handles GET /contributions/member/{id}
func (h *ContributionHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, h.logger, "list member contributions", err)
		return
	}

	list, err := h.contributions.ListByMember(r.Context(), memberID)
	if err != nil {
		handleError(w, r, h.logger, "list member contributions", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /contributions
func (h *ContributionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c domain.Contribution
	if err := decodeJSON(w, r, &c); err != nil {
		handleError(w, r, h.logger, "create contribution", err)
		return
	}

	if err := h.contributions.Create(r.Context(), &c); err != nil {
		handleError(w, r, h.logger, "create contribution", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Update handles PUT /contributions/{id}; only amount and paidAt change
func (h *ContributionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, h.logger, "update contribution", err)
		return
	}

	var req UpdateContributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, "update contribution", err)
		return
	}

	c, err := h.contributions.Update(r.Context(), id, req.Amount, req.PaidAt)
	if err != nil {
		handleError(w, r, h.logger, "update contribution", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /contributions/{id}
func (h *ContributionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, h.logger, "delete contribution", err)
		return
	}

	if err := h.contributions.Delete(r.Context(), id); err != nil {
		handleError(w, r, h.logger, "delete contribution", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
