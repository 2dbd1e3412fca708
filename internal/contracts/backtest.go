package contracts

import "time"

// GroundTruthEvent is one curated, append-only breakout record used to
// score backtest predictions
type GroundTruthEvent struct {
	EntityID            string    `json:"entity_id" yaml:"entity_id"`
	Category            string    `json:"category" yaml:"category"`
	EarlySignalDate     time.Time `json:"early_signal_date" yaml:"early_signal_date"`
	BreakoutDate        time.Time `json:"breakout_date" yaml:"breakout_date"`
	MainstreamSources   []string  `json:"mainstream_sources" yaml:"mainstream_sources"`
	ExpectedSignalTypes []string  `json:"expected_signal_types" yaml:"expected_signal_types"`
}

// PredictionOutcome classifies one backtest prediction
type PredictionOutcome string

const (
	OutcomeHit           PredictionOutcome = "hit"
	OutcomeFalsePositive PredictionOutcome = "false_positive"
)

// BacktestPrediction is one ranked entity from a historical replay
type BacktestPrediction struct {
	Rank            int               `json:"rank"`
	EntityID        string            `json:"entity_id"`
	ConvictionScore float64           `json:"conviction_score"`
	ValidationScore float64           `json:"validation_score"`
	Recommendation  Recommendation    `json:"recommendation"`
	Outcome         PredictionOutcome `json:"outcome,omitempty"`
	LeadTimeWeeks   *float64          `json:"lead_time_weeks,omitempty"`
}

// BacktestRun captures one replay of the pipeline at a historical date
type BacktestRun struct {
	PredictionDate time.Time            `json:"prediction_date"`
	ValidationDate time.Time            `json:"validation_date"`
	TopK           int                  `json:"top_k"`
	Predictions    []BacktestPrediction `json:"predictions"`
	Warnings       []string             `json:"warnings,omitempty"`
	OverallStatus  Status               `json:"overall_status"`
}

// Scorecard summarizes prediction accuracy against ground truth
type Scorecard struct {
	PredictionDate time.Time `json:"prediction_date"`
	ValidationDate time.Time `json:"validation_date"`

	Hits           int `json:"hits"`
	FalsePositives int `json:"false_positives"`
	Misses         int `json:"misses"`

	QualifyingEvents int      `json:"qualifying_events"` // ground truth with breakout <= validation date
	MissedEntityIDs  []string `json:"missed_entity_ids,omitempty"`

	PrecisionAtK     float64 `json:"precision_at_k"`
	Recall           float64 `json:"recall"`
	AvgLeadTimeWeeks float64 `json:"avg_lead_time_weeks"`
	MissRate         float64 `json:"miss_rate"`
}
