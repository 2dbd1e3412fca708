package finsig

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/internal/external/coingecko"
	"github.com/wonny/argus/internal/external/fred"
	"github.com/wonny/argus/internal/external/marketdata"
	"github.com/wonny/argus/pkg/logger"
	"github.com/wonny/argus/pkg/redis"
)

// EquityFetcher provides window observations for a set of tickers
type EquityFetcher interface {
	Name() string
	FetchAll(ctx context.Context, symbols []string, asOf time.Time) ([]contracts.RawMarketObservation, error)
}

// TokenFetcher provides window observations for a set of token ids
type TokenFetcher interface {
	Name() string
	FetchAll(ctx context.Context, tokenIDs []string, asOf time.Time) ([]contracts.RawMarketObservation, error)
}

// MacroFetcher provides per-series value history for the regime composite
type MacroFetcher interface {
	Name() string
	FetchAll(ctx context.Context, series []MacroSeriesSpec, asOf time.Time) (map[string][]float64, error)
}

const (
	observationCacheTTL = 6 * time.Hour
	macroHistoryLimit   = 60
)

// =============================================================================
// Equities
// =============================================================================

// HTTPEquityFetcher fetches ticker observations concurrently under a
// bounded worker pool sized to the provider's rate limit
type HTTPEquityFetcher struct {
	client  *marketdata.Client
	cache   *redis.Cache
	workers int
	log     *logger.Logger
}

// NewHTTPEquityFetcher creates the production equities fetcher
func NewHTTPEquityFetcher(client *marketdata.Client, cache *redis.Cache, workers int, log *logger.Logger) *HTTPEquityFetcher {
	if workers < 1 {
		workers = 1
	}
	return &HTTPEquityFetcher{
		client:  client,
		cache:   cache,
		workers: workers,
		log:     log.WithComponent("finsig.equities"),
	}
}

// Name implements EquityFetcher
func (f *HTTPEquityFetcher) Name() string { return marketdata.SourceName }

// FetchAll fetches all symbols through a worker pool. Individual symbol
// failures are skipped; the error return fires only when nothing at all
// could be fetched.
func (f *HTTPEquityFetcher) FetchAll(ctx context.Context, symbols []string, asOf time.Time) ([]contracts.RawMarketObservation, error) {
	type result struct {
		obs contracts.RawMarketObservation
		err error
	}

	symbolCh := make(chan string, len(symbols))
	resultCh := make(chan result, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbolCh {
				obs, err := f.fetchOne(ctx, symbol, asOf)
				resultCh <- result{obs: obs, err: err}
			}
		}()
	}

	for _, s := range symbols {
		symbolCh <- s
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var observations []contracts.RawMarketObservation
	var firstErr error
	failed := 0
	for r := range resultCh {
		if r.err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		observations = append(observations, r.obs)
	}

	if failed > 0 {
		f.log.WithFields(map[string]interface{}{
			"failed": failed,
			"total":  len(symbols),
		}).Warn("some equity fetches failed")
	}

	if len(observations) == 0 && firstErr != nil {
		return nil, &contracts.SourceUnavailableError{Source: f.Name(), Err: firstErr}
	}

	sort.Slice(observations, func(i, j int) bool { return observations[i].Symbol < observations[j].Symbol })
	return observations, nil
}

func (f *HTTPEquityFetcher) fetchOne(ctx context.Context, symbol string, asOf time.Time) (contracts.RawMarketObservation, error) {
	cacheKey := fmt.Sprintf("equity:%s:%s", symbol, asOf.Format("2006-01-02"))

	if f.cache != nil {
		var cached contracts.RawMarketObservation
		if found, _ := f.cache.Get(ctx, cacheKey, &cached); found {
			return cached, nil
		}
	}

	obs, err := f.client.FetchObservation(ctx, symbol, asOf)
	if err != nil {
		return contracts.RawMarketObservation{}, err
	}

	if f.cache != nil {
		_ = f.cache.Set(ctx, cacheKey, obs, observationCacheTTL)
	}

	return obs, nil
}

// =============================================================================
// Tokens
// =============================================================================

// HTTPTokenFetcher fetches token observations sequentially; the provider
// rate limit dominates, so a pool buys nothing here
type HTTPTokenFetcher struct {
	client *coingecko.Client
	cache  *redis.Cache
	log    *logger.Logger
}

// NewHTTPTokenFetcher creates the production token fetcher
func NewHTTPTokenFetcher(client *coingecko.Client, cache *redis.Cache, log *logger.Logger) *HTTPTokenFetcher {
	return &HTTPTokenFetcher{
		client: client,
		cache:  cache,
		log:    log.WithComponent("finsig.tokens"),
	}
}

// Name implements TokenFetcher
func (f *HTTPTokenFetcher) Name() string { return coingecko.SourceName }

// FetchAll fetches all token ids, skipping individual failures
func (f *HTTPTokenFetcher) FetchAll(ctx context.Context, tokenIDs []string, asOf time.Time) ([]contracts.RawMarketObservation, error) {
	var observations []contracts.RawMarketObservation
	var firstErr error

	for _, id := range tokenIDs {
		cacheKey := fmt.Sprintf("token:%s:%s", id, asOf.Format("2006-01-02"))

		if f.cache != nil {
			var cached contracts.RawMarketObservation
			if found, _ := f.cache.Get(ctx, cacheKey, &cached); found {
				observations = append(observations, cached)
				continue
			}
		}

		obs, err := f.client.FetchObservation(ctx, id, asOf)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			f.log.WithError(err).WithField("token", id).Warn("token fetch failed")
			continue
		}

		if f.cache != nil {
			_ = f.cache.Set(ctx, cacheKey, obs, observationCacheTTL)
		}
		observations = append(observations, obs)
	}

	if len(observations) == 0 && firstErr != nil {
		return nil, &contracts.SourceUnavailableError{Source: f.Name(), Err: firstErr}
	}

	sort.Slice(observations, func(i, j int) bool { return observations[i].Symbol < observations[j].Symbol })
	return observations, nil
}

// =============================================================================
// Macro
// =============================================================================

// HTTPMacroFetcher fetches macro indicator histories
type HTTPMacroFetcher struct {
	client *fred.Client
	log    *logger.Logger
}

// NewHTTPMacroFetcher creates the production macro fetcher
func NewHTTPMacroFetcher(client *fred.Client, log *logger.Logger) *HTTPMacroFetcher {
	return &HTTPMacroFetcher{
		client: client,
		log:    log.WithComponent("finsig.macro"),
	}
}

// Name implements MacroFetcher
func (f *HTTPMacroFetcher) Name() string { return fred.SourceName }

// FetchAll fetches the history of every configured series, skipping
// individual failures
func (f *HTTPMacroFetcher) FetchAll(ctx context.Context, series []MacroSeriesSpec, asOf time.Time) (map[string][]float64, error) {
	histories := make(map[string][]float64, len(series))
	var firstErr error

	for _, spec := range series {
		values, err := f.client.FetchHistory(ctx, spec.SeriesID, macroHistoryLimit, asOf)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			f.log.WithError(err).WithField("series", spec.SeriesID).Warn("macro series fetch failed")
			continue
		}
		histories[spec.SeriesID] = values
	}

	if len(histories) == 0 && firstErr != nil {
		return nil, &contracts.SourceUnavailableError{Source: f.Name(), Err: firstErr}
	}

	return histories, nil
}
