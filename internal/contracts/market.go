package contracts

import "time"

// InstrumentKind distinguishes where a market observation came from
type InstrumentKind string

const (
	InstrumentEquity InstrumentKind = "equity"
	InstrumentToken  InstrumentKind = "token"
	InstrumentMacro  InstrumentKind = "macro"
)

// RawMarketObservation is one instrument's state for the analysis window
type RawMarketObservation struct {
	Symbol      string         `json:"symbol"`
	Kind        InstrumentKind `json:"kind"`
	Timestamp   time.Time      `json:"timestamp"`
	Value       float64        `json:"value"`
	Change1D    float64        `json:"change_1d_pct"`
	Change7D    float64        `json:"change_7d_pct"`
	Change30D   float64        `json:"change_30d_pct"`
	VolumeRatio *float64       `json:"volume_ratio,omitempty"` // equities only
	ZScore      *float64       `json:"z_score,omitempty"`      // macro only
}

// SignalCoverage records how much of a bucket's mapped instrument set was
// actually present for a run
type SignalCoverage struct {
	Expected int `json:"expected"`
	Present  int `json:"present"`
}

// Contributor is one instrument's share of a bucket signal, ranked by
// absolute window change
type Contributor struct {
	Symbol       string  `json:"symbol"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"` // signed, pct change x weight
}

// BucketFinancialSignal carries the public-market (PMS) and crypto (CSS)
// percentile signals for one thematic bucket. A nil score means the bucket
// had no present instruments; it is never defaulted to a neutral 50.
type BucketFinancialSignal struct {
	BucketID string `json:"bucket_id"`

	PMS             *float64       `json:"pms,omitempty"` // 0-100 percentile
	PMSCoverage     SignalCoverage `json:"pms_coverage"`
	PMSContributors []Contributor  `json:"pms_contributors,omitempty"`

	CSS             *float64       `json:"css,omitempty"` // 0-100 percentile
	CSSCoverage     SignalCoverage `json:"css_coverage"`
	CSSContributors []Contributor  `json:"css_contributors,omitempty"`
}

// MacroComponent is one series' contribution to the macro regime signal
type MacroComponent struct {
	SeriesID string  `json:"series_id"`
	ZScore   float64 `json:"z_score"`
	Weight   float64 `json:"weight"`
	Inverted bool    `json:"inverted"`
}

// MacroRegimeSignal is a weighted z-score composite in [-1,1]. Context
// only: it is never multiplied into a bucket's composite score.
type MacroRegimeSignal struct {
	Score          float64          `json:"score"`
	Components     []MacroComponent `json:"components"`
	Excluded       []string         `json:"excluded,omitempty"` // series without enough history
	Interpretation string           `json:"interpretation"`
}

// InterpretMacro buckets an MRS score into a coarse regime label
func InterpretMacro(score float64) string {
	switch {
	case score >= 0.5:
		return "strong_risk_on"
	case score >= 0.15:
		return "risk_on"
	case score > -0.15:
		return "neutral"
	case score > -0.5:
		return "risk_off"
	default:
		return "strong_risk_off"
	}
}
