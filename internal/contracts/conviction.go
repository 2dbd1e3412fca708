package contracts

import "time"

// EntityClass sets the grading curve for the risk stage
type EntityClass string

const (
	ClassOSSProject     EntityClass = "OSS_PROJECT"
	ClassCommercialSaaS EntityClass = "COMMERCIAL_SAAS"
)

// ConflictIntensity measures disagreement between the growth and risk
// sub-scores. Bands are exhaustive and mutually exclusive on the gap.
type ConflictIntensity string

const (
	ConflictLow    ConflictIntensity = "LOW"
	ConflictMedium ConflictIntensity = "MEDIUM"
	ConflictHigh   ConflictIntensity = "HIGH"
)

// Recommendation is the terminal action label for an assessment
type Recommendation string

const (
	RecommendAlert       Recommendation = "ALERT"
	RecommendInvestigate Recommendation = "INVESTIGATE"
	RecommendMonitor     Recommendation = "MONITOR"
	RecommendIgnore      Recommendation = "IGNORE"
)

// RedFlag is one ranked risk finding from the bear case
type RedFlag struct {
	Label    string  `json:"label"`
	Severity float64 `json:"severity"` // 0-1, ranking key
}

// ConvictionAssessment is the synthesized output of the three-stage
// engine, keyed by (entity_id, analysis_date). Append-only: a new
// analysis for the same key is stored as a new row, never overwritten.
type ConvictionAssessment struct {
	EntityID     string    `json:"entity_id"`
	AnalysisDate time.Time `json:"analysis_date"`

	EntityClass EntityClass `json:"entity_type_classification"`

	TechnicalVelocityScore  float64 `json:"technical_velocity_score"`  // 0-100
	CommercialMaturityScore float64 `json:"commercial_maturity_score"` // 0-100
	BrandSafetyScore        float64 `json:"brand_safety_score"`        // 0-100

	ConvictionScore   float64           `json:"conviction_score"` // 0-100
	ConflictIntensity ConflictIntensity `json:"conflict_intensity"`
	Recommendation    Recommendation    `json:"recommendation"`

	MomentumTrend string `json:"momentum_trend"` // flat | linear | exponential

	BullThesis []string `json:"bull_thesis,omitempty"`
	BearThesis []string `json:"bear_thesis,omitempty"`

	RedFlags               []RedFlag `json:"red_flags,omitempty"`
	MissingCriticalSignals []string  `json:"missing_critical_signals,omitempty"`
}
