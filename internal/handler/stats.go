package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/memberledger/internal/service"
)

// StatsHandler serves GET /stats
type StatsHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

// NewStatsHandler creates a new statistics handler
func NewStatsHandler(stats *service.StatsService, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{stats: stats, logger: logger}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Compute(r.Context())
	if err != nil {
		handleError(w, r, h.logger, "compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
