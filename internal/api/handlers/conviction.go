package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/argus/internal/conviction"
	"github.com/wonny/argus/pkg/logger"
)

// ConvictionHandler handles conviction scoring API endpoints
// ⭐ SSOT: conviction API handlers live in this struct only
type ConvictionHandler struct {
	engine *conviction.Engine
	repo   conviction.Repository
	logger *logger.Logger
}

// NewConvictionHandler creates a new conviction handler
func NewConvictionHandler(engine *conviction.Engine, repo conviction.Repository, log *logger.Logger) *ConvictionHandler {
	return &ConvictionHandler{
		engine: engine,
		repo:   repo,
		logger: log,
	}
}

// ScoreRequest represents a conviction scoring request
type ScoreRequest struct {
	EntityID string `json:"entity_id"`
	AsOf     string `json:"as_of"` // Optional: YYYY-MM-DD, defaults to today
}

// Score assesses one entity as of a date
// POST /api/conviction/score
func (h *ConvictionHandler) Score(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EntityID == "" {
		respondError(w, http.StatusBadRequest, "'entity_id' is required")
		return
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

	assessment, err := h.engine.Score(ctx, req.EntityID, asOf)
	if err != nil {
		h.logger.WithError(err).Error("Failed to score conviction")
		respondError(w, statusFor(err), "Failed to score conviction")
		return
	}

	respondJSON(w, http.StatusOK, assessment)
}

// History returns an entity's past assessments, newest first
// GET /api/conviction/history/{entity_id}
func (h *ConvictionHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID := mux.Vars(r)["entity_id"]

	assessments, err := h.repo.History(ctx, entityID, 50)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load assessment history")
		respondError(w, http.StatusInternalServerError, "Failed to load assessment history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entity_id":   entityID,
		"assessments": assessments,
	})
}
