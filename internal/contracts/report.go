package contracts

import "time"

// ReportSchema identifies the run report document format. Consumers must
// reject documents whose schema name or major version they do not know.
const (
	ReportSchemaName    = "argus.financial_signals"
	ReportSchemaVersion = "2.1.0"
)

// SourceStatus is the per-source health entry of a run report
type SourceStatus struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Expected int    `json:"expected_instruments"`
	Present  int    `json:"present_instruments"`
	Note     string `json:"note,omitempty"`
}

// Methodology records the parameters a run actually used, so results are
// interpretable after defaults change
type Methodology struct {
	WindowDays     int    `json:"window_days"`
	Weighting      string `json:"weighting"`
	Transform      string `json:"transform"`
	MinMacroPoints int    `json:"min_macro_points"`
}

// RunReport is the self-describing structured document produced by one
// financial signal aggregation run
type RunReport struct {
	Schema        string    `json:"schema"`
	SchemaVersion string    `json:"schema_version"`
	RunID         string    `json:"run_id"`
	GeneratedAt   time.Time `json:"generated_at"`
	AsOf          time.Time `json:"as_of"`

	Methodology Methodology `json:"methodology"`

	Sources       []SourceStatus `json:"sources"`
	Warnings      []string       `json:"warnings,omitempty"`
	OverallStatus Status         `json:"overall_status"`

	Observations []RawMarketObservation  `json:"observations"`
	Macro        *MacroRegimeSignal      `json:"macro_regime,omitempty"`
	Buckets      []BucketFinancialSignal `json:"buckets"`
}
