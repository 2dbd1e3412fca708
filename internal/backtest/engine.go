package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/internal/conviction"
	"github.com/wonny/argus/internal/registry"
	"github.com/wonny/argus/internal/snapshot"
	"github.com/wonny/argus/internal/validation"
	"github.com/wonny/argus/pkg/logger"
)

// DefaultTopK is the prediction list size when the caller does not pick one
const DefaultTopK = 10

// Engine replays the resolve-validate-score pipeline at a historical
// date. The replay is genuine: it runs the same stages production runs,
// over a snapshot the store has already clamped to the prediction date,
// so nothing after that date can influence the ranking.
type Engine struct {
	registry  *registry.Handle
	snapshots *snapshot.Service
	validator *validation.Validator
	log       *logger.Logger
}

// NewEngine wires the backtest engine
func NewEngine(handle *registry.Handle, snapshots *snapshot.Service, validator *validation.Validator, log *logger.Logger) *Engine {
	return &Engine{
		registry:  handle,
		snapshots: snapshots,
		validator: validator,
		log:       log.WithComponent("backtest.engine"),
	}
}

// Run ranks the top K entities using only data visible as of the
// prediction date
func (e *Engine) Run(ctx context.Context, predictionDate, validationDate time.Time, topK int) (*contracts.BacktestRun, error) {
	if validationDate.Before(predictionDate) {
		return nil, fmt.Errorf("validation date %s precedes prediction date %s",
			validationDate.Format("2006-01-02"), predictionDate.Format("2006-01-02"))
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	snap, err := e.snapshots.GetSnapshot(ctx, predictionDate)
	if err != nil {
		return nil, err
	}

	reg := e.registry.Current()
	run := &contracts.BacktestRun{
		PredictionDate: predictionDate,
		ValidationDate: validationDate,
		TopK:           topK,
		OverallStatus:  contracts.StatusOK,
	}

	type candidate struct {
		entityID   string
		conviction float64
		validation float64
		rec        contracts.Recommendation
	}

	var candidates []candidate
	for _, entity := range reg.Entities() {
		res := registryResolution(reg, entity)

		result, verr := e.validator.Compute(res, reg, snap)
		if verr != nil {
			var insufficient *contracts.ValidationInsufficientDataError
			if !errors.As(verr, &insufficient) {
				return nil, verr
			}
			run.Warnings = append(run.Warnings, verr.Error())
			run.OverallStatus = contracts.StatusDegraded
		}
		if len(result.Matches) == 0 {
			run.Warnings = append(run.Warnings,
				fmt.Sprintf("entity %s: no corroborating evidence at %s, excluded from ranking",
					entity.ID, predictionDate.Format("2006-01-02")))
			run.OverallStatus = contracts.StatusDegraded
			continue
		}

		growthIn, riskIn := conviction.ExtractInputs(reg, &entity, snap)
		assessment := conviction.Arbitrate(entity.ID, predictionDate,
			conviction.AssessGrowth(growthIn), conviction.AssessRisk(riskIn))

		candidates = append(candidates, candidate{
			entityID:   entity.ID,
			conviction: assessment.ConvictionScore,
			validation: result.Score,
			rec:        assessment.Recommendation,
		})
	}

	// deterministic ranking: conviction, then validation, then id
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].conviction != candidates[j].conviction {
			return candidates[i].conviction > candidates[j].conviction
		}
		if candidates[i].validation != candidates[j].validation {
			return candidates[i].validation > candidates[j].validation
		}
		return candidates[i].entityID < candidates[j].entityID
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	for i, c := range candidates {
		run.Predictions = append(run.Predictions, contracts.BacktestPrediction{
			Rank:            i + 1,
			EntityID:        c.entityID,
			ConvictionScore: c.conviction,
			ValidationScore: c.validation,
			Recommendation:  c.rec,
		})
	}

	e.log.WithFields(map[string]interface{}{
		"prediction_date": predictionDate.Format("2006-01-02"),
		"validation_date": validationDate.Format("2006-01-02"),
		"candidates":      len(candidates),
	}).Info("backtest replay completed")

	return run, nil
}

// registryResolution builds the identity resolution for an entity that
// comes straight from the registry, pinned to the registry version the
// replay runs under
func registryResolution(reg *registry.Registry, entity contracts.CanonicalEntity) contracts.EntityResolution {
	return contracts.EntityResolution{
		RawName:        entity.CanonicalName,
		SourceCategory: contracts.CategoryTechnical,
		PrimaryMatch: &contracts.MatchCandidate{
			EntityID:   entity.ID,
			Name:       entity.CanonicalName,
			Type:       entity.Type,
			Tier:       1,
			Confidence: 1,
		},
		PrimaryType:     entity.Type,
		Confidence:      1,
		Path:            contracts.PathRegistry,
		RegistryVersion: reg.Version,
	}
}
