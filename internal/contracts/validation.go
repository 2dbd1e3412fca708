package contracts

import "time"

// ValidationStatus summarizes cross-source corroboration strength
type ValidationStatus string

const (
	ValidationHighConfidence   ValidationStatus = "high_confidence"
	ValidationValidated        ValidationStatus = "validated"
	ValidationUnvalidated      ValidationStatus = "unvalidated"
	ValidationInsufficientData ValidationStatus = "insufficient_data"
)

// SourceMatch is one corroborating hit for an entity in a snapshot category
type SourceMatch struct {
	Category         SourceCategory `json:"category"`
	Identifier       string         `json:"identifier"`
	Tier             int            `json:"tier"`
	Weight           float64        `json:"weight"`
	ObservedAt       time.Time      `json:"observed_at"`
	ContextQualified bool           `json:"context_qualified"`
}

// ValidationResult holds coverage and strength of corroboration for one
// resolved entity against one snapshot
type ValidationResult struct {
	EntityID string `json:"entity_id"`

	Coverage float64 `json:"coverage"` // [0,1]
	Strength float64 `json:"strength"` // [0,1]
	Score    float64 `json:"validation_score"`

	Status    ValidationStatus `json:"status"`
	Validated bool             `json:"validated"` // boolean gate used downstream

	Matches          []SourceMatch    `json:"matches"`
	SourcesChecked   []SourceCategory `json:"sources_checked"`
	SourcesMissing   []SourceCategory `json:"sources_missing"`
	SourcesNoData    []SourceCategory `json:"sources_no_data"`
	TierDistribution map[int]int      `json:"tier_distribution"`
	FailReasons      []string         `json:"fail_reasons,omitempty"`
}
