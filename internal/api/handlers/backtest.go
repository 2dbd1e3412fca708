package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/argus/internal/backtest"
	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/pkg/logger"
)

// BacktestHandler handles backtest API endpoints
// ⭐ SSOT: backtest API handlers live in this struct only
type BacktestHandler struct {
	engine          *backtest.Engine
	groundTruthPath string
	logger          *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(engine *backtest.Engine, groundTruthPath string, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		engine:          engine,
		groundTruthPath: groundTruthPath,
		logger:          log,
	}
}

// BacktestRequest represents a backtest request
type BacktestRequest struct {
	PredictionDate string `json:"prediction_date"` // YYYY-MM-DD
	ValidationDate string `json:"validation_date"` // YYYY-MM-DD
	TopK           int    `json:"top_k"`           // Optional: defaults to 10
}

// BacktestResponse pairs the run with its scorecard
type BacktestResponse struct {
	Run       *contracts.BacktestRun `json:"run"`
	Scorecard contracts.Scorecard    `json:"scorecard"`
}

// Run replays the pipeline at a historical date and scores the result
// POST /api/backtest/run
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	predictionDate, err := time.Parse("2006-01-02", req.PredictionDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'prediction_date' format (expected YYYY-MM-DD)")
		return
	}
	validationDate, err := time.Parse("2006-01-02", req.ValidationDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'validation_date' format (expected YYYY-MM-DD)")
		return
	}

	groundTruth, err := backtest.LoadGroundTruth(h.groundTruthPath)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load ground truth")
		respondError(w, http.StatusInternalServerError, "Failed to load ground truth")
		return
	}

	run, err := h.engine.Run(ctx, predictionDate, validationDate, req.TopK)
	if err != nil {
		h.logger.WithError(err).Error("Failed to run backtest")
		respondError(w, statusFor(err), "Failed to run backtest")
		return
	}

	respondJSON(w, http.StatusOK, BacktestResponse{
		Run:       run,
		Scorecard: backtest.GenerateScorecard(run, groundTruth),
	})
}
