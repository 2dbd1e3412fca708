package conviction

import (
	"time"

	"github.com/wonny/argus/internal/contracts"
)

// arbiter weights per entity class: OSS adoption is the leading signal,
// commercial vendors are graded half on maturity
var classWeights = map[contracts.EntityClass]struct{ technical, commercial float64 }{
	contracts.ClassOSSProject:     {technical: 0.7, commercial: 0.3},
	contracts.ClassCommercialSaaS: {technical: 0.5, commercial: 0.5},
}

const (
	exponentialBonus   = 10.0
	brandPenaltyFactor = 0.1

	alertThreshold   = 80.0
	monitorThreshold = 40.0

	conflictHighGap   = 40.0
	conflictMediumGap = 20.0
)

// Arbitrate synthesizes the final assessment from the two sub-cases.
// Pure and deterministic: the same inputs always yield the same output.
func Arbitrate(entityID string, analysisDate time.Time, growth GrowthAssessment, risk RiskAssessment) contracts.ConvictionAssessment {
	weights := classWeights[risk.EntityClass]
	weightedSum := weights.technical*growth.TechnicalVelocityScore +
		weights.commercial*risk.CommercialMaturityScore

	var momentumBonus float64
	if growth.MomentumTrend == TrendExponential {
		momentumBonus = exponentialBonus
	}

	// never positive: a clean brand contributes zero, not a bonus
	riskPenalty := (risk.BrandSafetyScore - 100) * brandPenaltyFactor

	score := clipScore(weightedSum+momentumBonus+riskPenalty, 100)
	conflict := conflictBand(growth.TechnicalVelocityScore, risk.CommercialMaturityScore)

	return contracts.ConvictionAssessment{
		EntityID:     entityID,
		AnalysisDate: analysisDate,
		EntityClass:  risk.EntityClass,

		TechnicalVelocityScore:  growth.TechnicalVelocityScore,
		CommercialMaturityScore: risk.CommercialMaturityScore,
		BrandSafetyScore:        risk.BrandSafetyScore,

		ConvictionScore:   round2(score),
		ConflictIntensity: conflict,
		Recommendation:    recommend(score, conflict),

		MomentumTrend: growth.MomentumTrend,

		BullThesis:             growth.BullThesis,
		BearThesis:             risk.BearThesis,
		RedFlags:               risk.RedFlags,
		MissingCriticalSignals: risk.MissingCriticalSignals,
	}
}

// conflictBand buckets the gap between the two sub-scores. Bands are
// exhaustive and mutually exclusive on the absolute gap.
func conflictBand(technical, commercial float64) contracts.ConflictIntensity {
	gap := technical - commercial
	if gap < 0 {
		gap = -gap
	}
	switch {
	case gap > conflictHighGap:
		return contracts.ConflictHigh
	case gap > conflictMediumGap:
		return contracts.ConflictMedium
	default:
		return contracts.ConflictLow
	}
}

// recommend applies the fixed priority order. The order matters: a
// high-conviction, high-conflict case satisfies both the ALERT and
// INVESTIGATE rules, and ALERT wins.
func recommend(score float64, conflict contracts.ConflictIntensity) contracts.Recommendation {
	switch {
	case score > alertThreshold:
		return contracts.RecommendAlert
	case conflict == contracts.ConflictHigh:
		return contracts.RecommendInvestigate
	case score >= monitorThreshold:
		return contracts.RecommendMonitor
	default:
		return contracts.RecommendIgnore
	}
}
