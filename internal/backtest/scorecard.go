package backtest

import (
	"sort"

	"github.com/wonny/argus/internal/contracts"
)

const daysPerWeek = 7

// GenerateScorecard classifies every prediction of a run against the
// ground truth. The partition is total: each prediction is exactly one
// of hit or false_positive, and each qualifying ground-truth event is
// exactly one of hit or miss.
func GenerateScorecard(run *contracts.BacktestRun, groundTruth []contracts.GroundTruthEvent) contracts.Scorecard {
	card := contracts.Scorecard{
		PredictionDate: run.PredictionDate,
		ValidationDate: run.ValidationDate,
	}

	// earliest qualifying breakout per entity; later breakouts for the
	// same entity do not count twice
	qualifying := make(map[string]contracts.GroundTruthEvent)
	for _, event := range groundTruth {
		if event.BreakoutDate.After(run.ValidationDate) {
			continue
		}
		if existing, ok := qualifying[event.EntityID]; !ok || event.BreakoutDate.Before(existing.BreakoutDate) {
			qualifying[event.EntityID] = event
		}
	}
	card.QualifyingEvents = len(qualifying)

	hitEntities := make(map[string]bool)
	var leadTimeSum float64
	var leadTimeCount int

	for i := range run.Predictions {
		prediction := &run.Predictions[i]
		event, ok := qualifying[prediction.EntityID]
		if !ok {
			prediction.Outcome = contracts.OutcomeFalsePositive
			card.FalsePositives++
			continue
		}

		prediction.Outcome = contracts.OutcomeHit
		card.Hits++
		hitEntities[prediction.EntityID] = true

		// lead time is recorded only when the prediction actually led
		// the breakout
		weeks := event.BreakoutDate.Sub(run.PredictionDate).Hours() / 24 / daysPerWeek
		if weeks > 0 {
			prediction.LeadTimeWeeks = &weeks
			leadTimeSum += weeks
			leadTimeCount++
		}
	}

	for entityID := range qualifying {
		if !hitEntities[entityID] {
			card.Misses++
			card.MissedEntityIDs = append(card.MissedEntityIDs, entityID)
		}
	}
	sort.Strings(card.MissedEntityIDs)

	if len(run.Predictions) > 0 {
		card.PrecisionAtK = float64(card.Hits) / float64(len(run.Predictions))
	}
	if card.QualifyingEvents > 0 {
		card.Recall = float64(card.Hits) / float64(card.QualifyingEvents)
		card.MissRate = float64(card.Misses) / float64(card.QualifyingEvents)
	}
	if leadTimeCount > 0 {
		card.AvgLeadTimeWeeks = leadTimeSum / float64(leadTimeCount)
	}

	return card
}
