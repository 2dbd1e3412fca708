package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/argus/internal/finsig"
	"github.com/wonny/argus/pkg/logger"
)

// SignalHandler handles financial signal API endpoints
// ⭐ SSOT: signal API handlers live in this struct only
type SignalHandler struct {
	aggregator *finsig.Aggregator
	logger     *logger.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(aggregator *finsig.Aggregator, log *logger.Logger) *SignalHandler {
	return &SignalHandler{
		aggregator: aggregator,
		logger:     log,
	}
}

// RefreshRequest represents a signal refresh request
type RefreshRequest struct {
	AsOf       string `json:"as_of"`       // Optional: YYYY-MM-DD, defaults to today
	WindowDays int    `json:"window_days"` // Optional: defaults to 7
}

// Refresh runs one signal aggregation and returns the run report
// POST /api/signals/refresh
func (h *SignalHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	asOf := time.Now().UTC()
	if req.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'as_of' date format (expected YYYY-MM-DD)")
			return
		}
		asOf = parsed
	}

	report, err := h.aggregator.Run(ctx, asOf, req.WindowDays)
	if err != nil {
		h.logger.WithError(err).Error("Failed to refresh financial signals")
		respondError(w, statusFor(err), "Failed to refresh financial signals")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
