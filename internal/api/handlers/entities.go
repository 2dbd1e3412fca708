package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/internal/registry"
	"github.com/wonny/argus/internal/snapshot"
	"github.com/wonny/argus/internal/validation"
	"github.com/wonny/argus/pkg/logger"
	"github.com/wonny/argus/pkg/metrics"
)

// EntityHandler handles entity resolution API endpoints
// ⭐ SSOT: entity API handlers live in this struct only
type EntityHandler struct {
	registry  *registry.Handle
	snapshots *snapshot.Service
	validator *validation.Validator
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(
	handle *registry.Handle,
	snapshots *snapshot.Service,
	validator *validation.Validator,
	m *metrics.Metrics,
	log *logger.Logger,
) *EntityHandler {
	return &EntityHandler{
		registry:  handle,
		snapshots: snapshots,
		validator: validator,
		metrics:   m,
		logger:    log,
	}
}

// Mention is one raw name to resolve
type Mention struct {
	RawName  string   `json:"raw_name"`
	Category string   `json:"category"`
	Context  []string `json:"context,omitempty"`
}

// ResolveRequest represents an entity resolution request
type ResolveRequest struct {
	AsOf     string    `json:"as_of"` // Optional: YYYY-MM-DD, validates against this snapshot
	Mentions []Mention `json:"mentions"`
}

// ResolvedMention pairs a resolution with its validation result
type ResolvedMention struct {
	Resolution contracts.EntityResolution  `json:"resolution"`
	Validation *contracts.ValidationResult `json:"validation,omitempty"`
}

// ResolveResponse represents an entity resolution response
type ResolveResponse struct {
	RegistryVersion string            `json:"registry_version"`
	Results         []ResolvedMention `json:"results"`
	Warnings        []string          `json:"warnings,omitempty"`
	OverallStatus   contracts.Status  `json:"overall_status"`
}

// Resolve resolves raw mentions and validates them against a snapshot
// POST /api/entities/resolve
func (h *EntityHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Mentions) == 0 {
		respondError(w, http.StatusBadRequest, "At least one mention is required")
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

	snap, err := h.snapshots.GetSnapshot(ctx, asOf)
	if err != nil {
		var noSnap *contracts.NoSnapshotError
		if errors.As(err, &noSnap) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to load snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to load snapshot")
		return
	}

	reg := h.registry.Current()
	resp := ResolveResponse{
		RegistryVersion: reg.Version,
		OverallStatus:   contracts.StatusOK,
	}

	for _, mention := range req.Mentions {
		res := registry.ResolveAgainst(reg, mention.RawName, contracts.SourceCategory(mention.Category), mention.Context)
		h.metrics.Resolutions.WithLabelValues(string(res.Path)).Inc()

		entry := ResolvedMention{Resolution: res}
		if res.Resolved() {
			result, verr := h.validator.Compute(res, reg, snap)
			if verr != nil {
				var insufficient *contracts.ValidationInsufficientDataError
				if !errors.As(verr, &insufficient) {
					h.logger.WithError(verr).Error("Failed to validate entity")
					respondError(w, http.StatusInternalServerError, "Failed to validate entity")
					return
				}
				resp.Warnings = append(resp.Warnings, verr.Error())
				resp.OverallStatus = contracts.StatusDegraded
			}
			entry.Validation = &result
		}
		for _, flag := range res.AmbiguityFlags {
			resp.Warnings = append(resp.Warnings, flag)
		}
		resp.Results = append(resp.Results, entry)
	}

	respondJSON(w, http.StatusOK, resp)
}
