package finsig

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/pkg/logger"
	"github.com/wonny/argus/pkg/metrics"
)

// DefaultWindowDays is the analysis window when the caller does not pick one
const DefaultWindowDays = 7

// degradedCoverage marks a source degraded when it returns less than
// this share of its expected instrument set
const degradedCoverage = 0.8

// Aggregator runs the three market fetchers and folds their output into
// bucket percentile signals plus the macro regime composite
// ⭐ SSOT: financial signal aggregation runs happen here only
type Aggregator struct {
	mappings *Mappings
	equities EquityFetcher
	tokens   TokenFetcher
	macro    MacroFetcher

	metrics      *metrics.Metrics
	log          *logger.Logger
	fetchTimeout time.Duration
}

// NewAggregator wires the aggregator together
func NewAggregator(mappings *Mappings, equities EquityFetcher, tokens TokenFetcher, macro MacroFetcher, m *metrics.Metrics, log *logger.Logger) *Aggregator {
	return &Aggregator{
		mappings:     mappings,
		equities:     equities,
		tokens:       tokens,
		macro:        macro,
		metrics:      m,
		log:          log.WithComponent("finsig.aggregator"),
		fetchTimeout: 2 * time.Minute,
	}
}

// WithFetchTimeout overrides the per-fetcher timeout
func (a *Aggregator) WithFetchTimeout(d time.Duration) *Aggregator {
	a.fetchTimeout = d
	return a
}

// Run executes one aggregation as of a date. The three fetchers run
// concurrently, each behind its own timeout; one failing or timing out
// never cancels the siblings, it only degrades that source. Percentiles
// are computed after the join because a bucket's rank needs the complete
// cross-bucket distribution.
func (a *Aggregator) Run(ctx context.Context, asOf time.Time, windowDays int) (*contracts.RunReport, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	equitySymbols := a.mappings.EquitySymbols()
	tokenIDs := a.mappings.TokenIDs()

	a.log.WithFields(map[string]interface{}{
		"as_of":   asOf.Format("2006-01-02"),
		"window":  windowDays,
		"tickers": len(equitySymbols),
		"tokens":  len(tokenIDs),
	}).Info("starting signal aggregation run")

	var (
		equityObs []contracts.RawMarketObservation
		equityErr error
		tokenObs  []contracts.RawMarketObservation
		tokenErr  error
		histories map[string][]float64
		macroErr  error
	)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		fctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
		start := time.Now()
		equityObs, equityErr = a.equities.FetchAll(fctx, equitySymbols, asOf)
		a.metrics.FetchDuration.WithLabelValues(a.equities.Name()).Observe(time.Since(start).Seconds())
	}()

	go func() {
		defer wg.Done()
		fctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
		start := time.Now()
		tokenObs, tokenErr = a.tokens.FetchAll(fctx, tokenIDs, asOf)
		a.metrics.FetchDuration.WithLabelValues(a.tokens.Name()).Observe(time.Since(start).Seconds())
	}()

	go func() {
		defer wg.Done()
		fctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
		start := time.Now()
		histories, macroErr = a.macro.FetchAll(fctx, a.mappings.MacroSeries, asOf)
		a.metrics.FetchDuration.WithLabelValues(a.macro.Name()).Observe(time.Since(start).Seconds())
	}()

	// barrier: nothing below may run before every fetcher settled
	wg.Wait()

	report := &contracts.RunReport{
		Schema:        contracts.ReportSchemaName,
		SchemaVersion: contracts.ReportSchemaVersion,
		RunID:         uuid.NewString(),
		GeneratedAt:   time.Now().UTC(),
		AsOf:          asOf,
		Methodology: contracts.Methodology{
			WindowDays:     windowDays,
			Weighting:      "equal_weight_pms/confidence_weight_css",
			Transform:      "percentile_rank",
			MinMacroPoints: minMacroPoints,
		},
	}

	report.Sources = append(report.Sources,
		a.sourceStatus(report, a.equities.Name(), len(equitySymbols), len(equityObs), equityErr),
		a.sourceStatus(report, a.tokens.Name(), len(tokenIDs), len(tokenObs), tokenErr),
		a.sourceStatus(report, a.macro.Name(), len(a.mappings.MacroSeries), len(histories), macroErr),
	)

	report.Buckets = a.buildBuckets(equityObs, tokenObs, windowDays)
	report.Macro = computeMacroRegime(a.mappings.MacroSeries, histories)

	report.Observations = append(report.Observations, equityObs...)
	report.Observations = append(report.Observations, tokenObs...)
	report.Observations = append(report.Observations, macroObservations(report.Macro, histories, asOf)...)

	statuses := make([]contracts.Status, 0, len(report.Sources))
	for _, s := range report.Sources {
		statuses = append(statuses, s.Status)
	}
	report.OverallStatus = contracts.WorstStatus(statuses...)
	a.metrics.RunsTotal.WithLabelValues(string(report.OverallStatus)).Inc()

	a.log.WithFields(map[string]interface{}{
		"run_id":  report.RunID,
		"status":  report.OverallStatus,
		"buckets": len(report.Buckets),
	}).Info("signal aggregation run completed")

	return report, nil
}

// sourceStatus converts a fetch outcome to a per-source status entry,
// appending any shortfall to the report's warnings. Source failures are
// never fatal; they degrade the run.
func (a *Aggregator) sourceStatus(report *contracts.RunReport, name string, expected, present int, err error) contracts.SourceStatus {
	status := contracts.SourceStatus{
		Name:     name,
		Status:   contracts.StatusOK,
		Expected: expected,
		Present:  present,
	}

	switch {
	case err != nil:
		status.Status = contracts.StatusDegraded
		status.Note = err.Error()
		report.Warnings = append(report.Warnings, fmt.Sprintf("source %s unavailable: %v", name, err))
		a.metrics.FetchErrors.WithLabelValues(name).Inc()
		a.metrics.DegradedSources.WithLabelValues(name).Inc()

	case expected > 0 && float64(present) < degradedCoverage*float64(expected):
		status.Status = contracts.StatusDegraded
		status.Note = fmt.Sprintf("returned %d of %d expected instruments", present, expected)
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("source %s degraded: %d/%d expected instruments present", name, present, expected))
		a.metrics.DegradedSources.WithLabelValues(name).Inc()
	}

	return status
}

// buildBuckets computes the PMS and CSS signal table. A bucket with zero
// present instruments keeps a nil score; it is never defaulted to a
// neutral 50.
func (a *Aggregator) buildBuckets(equityObs, tokenObs []contracts.RawMarketObservation, windowDays int) []contracts.BucketFinancialSignal {
	equityBySymbol := indexBySymbol(equityObs)
	tokenBySymbol := indexBySymbol(tokenObs)

	buckets := make([]contracts.BucketFinancialSignal, len(a.mappings.Buckets))
	pmsValues := make([]*float64, len(a.mappings.Buckets))
	cssValues := make([]*float64, len(a.mappings.Buckets))

	for i, mapping := range a.mappings.Buckets {
		bucket := contracts.BucketFinancialSignal{BucketID: mapping.ID}

		// PMS: equal-weighted mean of present mapped equities
		bucket.PMSCoverage = contracts.SignalCoverage{Expected: len(mapping.Tickers)}
		var pmsObs []contracts.RawMarketObservation
		for _, ticker := range mapping.Tickers {
			if obs, ok := equityBySymbol[ticker]; ok {
				pmsObs = append(pmsObs, obs)
			}
		}
		bucket.PMSCoverage.Present = len(pmsObs)
		if len(pmsObs) > 0 {
			var sum float64
			weight := 1.0 / float64(len(pmsObs))
			for _, obs := range pmsObs {
				sum += windowChange(obs, windowDays)
			}
			mean := sum / float64(len(pmsObs))
			pmsValues[i] = &mean
			bucket.PMSContributors = topContributors(pmsObs, func(contracts.RawMarketObservation) float64 { return weight }, windowDays)
		}

		// CSS: confidence-weighted mean of present mapped tokens;
		// secondary assignments contribute at half confidence
		bucket.CSSCoverage = contracts.SignalCoverage{Expected: len(mapping.Tokens)}
		var cssObs []contracts.RawMarketObservation
		confidence := make(map[string]float64, len(mapping.Tokens))
		var confSum float64
		for _, assignment := range mapping.Tokens {
			obs, ok := tokenBySymbol[assignment.ID]
			if !ok {
				continue
			}
			conf := assignment.Confidence
			if assignment.Role == RoleSecondary {
				conf /= 2
			}
			cssObs = append(cssObs, obs)
			confidence[assignment.ID] = conf
			confSum += conf
		}
		bucket.CSSCoverage.Present = len(cssObs)
		if len(cssObs) > 0 && confSum > 0 {
			var weighted float64
			for _, obs := range cssObs {
				weighted += confidence[obs.Symbol] * windowChange(obs, windowDays)
			}
			mean := weighted / confSum
			cssValues[i] = &mean
			bucket.CSSContributors = topContributors(cssObs, func(o contracts.RawMarketObservation) float64 { return confidence[o.Symbol] / confSum }, windowDays)
		}

		buckets[i] = bucket
	}

	// Percentile stage: rank each bucket value against the full
	// cross-bucket distribution of this run
	assignPercentiles(buckets, pmsValues, func(b *contracts.BucketFinancialSignal, v *float64) { b.PMS = v })
	assignPercentiles(buckets, cssValues, func(b *contracts.BucketFinancialSignal, v *float64) { b.CSS = v })

	return buckets
}

// assignPercentiles converts raw bucket values to 0-100 ranks. Nil
// values stay nil.
func assignPercentiles(buckets []contracts.BucketFinancialSignal, values []*float64, set func(*contracts.BucketFinancialSignal, *float64)) {
	var distribution []float64
	for _, v := range values {
		if v != nil {
			distribution = append(distribution, *v)
		}
	}

	for i, v := range values {
		if v == nil {
			continue
		}
		pct := percentileRank(*v, distribution)
		set(&buckets[i], &pct)
	}
}

// topContributors ranks present instruments by absolute window change
// and keeps the top three with their weight and signed contribution
func topContributors(obs []contracts.RawMarketObservation, weightOf func(contracts.RawMarketObservation) float64, windowDays int) []contracts.Contributor {
	contributors := make([]contracts.Contributor, 0, len(obs))
	for _, o := range obs {
		w := weightOf(o)
		change := windowChange(o, windowDays)
		contributors = append(contributors, contracts.Contributor{
			Symbol:       o.Symbol,
			Weight:       w,
			Contribution: change * w,
		})
	}

	sort.Slice(contributors, func(i, j int) bool {
		ci := math.Abs(contributors[i].Contribution / contributors[i].Weight)
		cj := math.Abs(contributors[j].Contribution / contributors[j].Weight)
		if ci != cj {
			return ci > cj
		}
		return contributors[i].Symbol < contributors[j].Symbol
	})

	if len(contributors) > 3 {
		contributors = contributors[:3]
	}
	return contributors
}

// windowChange selects the percent change matching the analysis window
func windowChange(obs contracts.RawMarketObservation, windowDays int) float64 {
	switch {
	case windowDays <= 1:
		return obs.Change1D
	case windowDays <= 7:
		return obs.Change7D
	default:
		return obs.Change30D
	}
}

// macroObservations exposes raw macro readings in the report next to
// the market observations
func macroObservations(signal *contracts.MacroRegimeSignal, histories map[string][]float64, asOf time.Time) []contracts.RawMarketObservation {
	if signal == nil {
		return nil
	}

	out := make([]contracts.RawMarketObservation, 0, len(signal.Components))
	for _, comp := range signal.Components {
		history := histories[comp.SeriesID]
		if len(history) == 0 {
			continue
		}
		z := comp.ZScore
		out = append(out, contracts.RawMarketObservation{
			Symbol:    comp.SeriesID,
			Kind:      contracts.InstrumentMacro,
			Timestamp: asOf,
			Value:     history[len(history)-1],
			ZScore:    &z,
		})
	}
	return out
}

func indexBySymbol(obs []contracts.RawMarketObservation) map[string]contracts.RawMarketObservation {
	out := make(map[string]contracts.RawMarketObservation, len(obs))
	for _, o := range obs {
		out[o.Symbol] = o
	}
	return out
}
