package conviction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/argus/internal/contracts"
)

func TestArbitrate_HotOSSProjectWithWeakCommercials(t *testing.T) {
	// the canonical worked example: technical 95, commercial 40,
	// exponential momentum, one brand incident down to 80
	growth := GrowthAssessment{
		TechnicalVelocityScore: 95,
		MomentumTrend:          TrendExponential,
	}
	risk := RiskAssessment{
		EntityClass:             contracts.ClassOSSProject,
		CommercialMaturityScore: 40,
		BrandSafetyScore:        80,
	}

	out := Arbitrate("deepseek", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), growth, risk)

	// 0.7*95 + 0.3*40 + 10 - (100-80)*0.1 = 86.5
	assert.Equal(t, 86.5, out.ConvictionScore)
	assert.Equal(t, contracts.ConflictHigh, out.ConflictIntensity)
	assert.Equal(t, contracts.RecommendAlert, out.Recommendation,
		"a score above the alert bar outranks high conflict")
}

func TestArbitrate_WeightsFollowEntityClass(t *testing.T) {
	growth := GrowthAssessment{TechnicalVelocityScore: 90, MomentumTrend: TrendFlat}
	risk := RiskAssessment{CommercialMaturityScore: 30, BrandSafetyScore: 100}

	risk.EntityClass = contracts.ClassOSSProject
	oss := Arbitrate("x", time.Time{}, growth, risk)
	// 0.7*90 + 0.3*30
	assert.Equal(t, 72.0, oss.ConvictionScore)

	risk.EntityClass = contracts.ClassCommercialSaaS
	saas := Arbitrate("x", time.Time{}, growth, risk)
	// 0.5*90 + 0.5*30
	assert.Equal(t, 60.0, saas.ConvictionScore)
}

func TestArbitrate_CleanBrandIsNeverABonus(t *testing.T) {
	growth := GrowthAssessment{TechnicalVelocityScore: 50, MomentumTrend: TrendFlat}
	risk := RiskAssessment{
		EntityClass:             contracts.ClassOSSProject,
		CommercialMaturityScore: 50,
		BrandSafetyScore:        100,
	}

	out := Arbitrate("x", time.Time{}, growth, risk)
	assert.Equal(t, 50.0, out.ConvictionScore)
}

func TestArbitrate_ScoreClipsToHundred(t *testing.T) {
	growth := GrowthAssessment{TechnicalVelocityScore: 100, MomentumTrend: TrendExponential}
	risk := RiskAssessment{
		EntityClass:             contracts.ClassCommercialSaaS,
		CommercialMaturityScore: 100,
		BrandSafetyScore:        100,
	}

	out := Arbitrate("x", time.Time{}, growth, risk)
	assert.Equal(t, 100.0, out.ConvictionScore)
}

func TestConflictBand(t *testing.T) {
	tests := []struct {
		name                  string
		technical, commercial float64
		want                  contracts.ConflictIntensity
	}{
		{"no gap", 50, 50, contracts.ConflictLow},
		{"gap at medium boundary", 70, 50, contracts.ConflictLow},
		{"gap just inside medium", 70.5, 50, contracts.ConflictMedium},
		{"gap at high boundary", 90, 50, contracts.ConflictMedium},
		{"gap just inside high", 90.5, 50, contracts.ConflictHigh},
		{"direction is irrelevant", 20, 75, contracts.ConflictHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conflictBand(tt.technical, tt.commercial))
		})
	}
}

func TestRecommend_PriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		conflict contracts.ConflictIntensity
		want     contracts.Recommendation
	}{
		{"high score low conflict", 85, contracts.ConflictLow, contracts.RecommendAlert},
		{"high score high conflict still alerts", 85, contracts.ConflictHigh, contracts.RecommendAlert},
		{"score exactly at alert bar does not alert", 80, contracts.ConflictLow, contracts.RecommendMonitor},
		{"score at alert bar with high conflict investigates", 80, contracts.ConflictHigh, contracts.RecommendInvestigate},
		{"high conflict below alert bar", 70, contracts.ConflictHigh, contracts.RecommendInvestigate},
		{"mid score", 55, contracts.ConflictMedium, contracts.RecommendMonitor},
		{"score at monitor bar", 40, contracts.ConflictLow, contracts.RecommendMonitor},
		{"low score", 20, contracts.ConflictLow, contracts.RecommendIgnore},
		{"low score high conflict investigates", 20, contracts.ConflictHigh, contracts.RecommendInvestigate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recommend(tt.score, tt.conflict))
		})
	}
}

func TestArbitrate_Deterministic(t *testing.T) {
	growth := AssessGrowth(GrowthInputs{
		Stars: 12000, Forks: 900, StarVelocity: 300,
		Downloads: 250_000, Mentions: 60,
		WeeklyStars: []float64{100, 180, 300},
	})
	risk := AssessRisk(RiskInputs{
		EntityType:          contracts.EntityRepo,
		HasPublicRepo:       true,
		DaysSinceLastCommit: intPtr(3),
	})

	first := Arbitrate("deepseek", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), growth, risk)
	for i := 0; i < 10; i++ {
		again := Arbitrate("deepseek", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), growth, risk)
		assert.Equal(t, first, again)
	}
}
