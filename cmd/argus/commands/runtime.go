package commands

import (
	"fmt"
	"time"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/internal/external/coingecko"
	"github.com/wonny/argus/internal/external/fred"
	"github.com/wonny/argus/internal/external/marketdata"
	"github.com/wonny/argus/internal/finsig"
	"github.com/wonny/argus/internal/registry"
	"github.com/wonny/argus/internal/snapshot"
	"github.com/wonny/argus/internal/validation"
	"github.com/wonny/argus/pkg/config"
	"github.com/wonny/argus/pkg/database"
	"github.com/wonny/argus/pkg/httputil"
	"github.com/wonny/argus/pkg/logger"
	"github.com/wonny/argus/pkg/metrics"
	"github.com/wonny/argus/pkg/redis"
)

// defaultSourceSpecs lists the external sources a snapshot consolidates
// and the freshness each one is held to
var defaultSourceSpecs = []snapshot.SourceSpec{
	{Name: "github", Category: contracts.CategoryTechnical, FreshnessSLA: 48 * time.Hour},
	{Name: "package_registries", Category: contracts.CategoryTechnical, FreshnessSLA: 48 * time.Hour},
	{Name: "social", Category: contracts.CategorySocial, FreshnessSLA: 24 * time.Hour},
	{Name: "news", Category: contracts.CategorySocial, FreshnessSLA: 24 * time.Hour},
	{Name: "funding", Category: contracts.CategoryFinancial, FreshnessSLA: 7 * 24 * time.Hour},
	{Name: "job_postings", Category: contracts.CategoryPredictive, FreshnessSLA: 7 * 24 * time.Hour},
}

// pipeline bundles the registry, snapshot and validation stages shared by
// the resolve, score and backtest commands
type pipeline struct {
	registry  *registry.Handle
	snapshots *snapshot.Service
	validator *validation.Validator
}

// newPipeline loads the registry and wires the snapshot store on top of
// the database
func newPipeline(cfg *config.Config, db *database.DB, log *logger.Logger) (*pipeline, error) {
	reg, err := registry.Load(cfg.Files.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	return &pipeline{
		registry:  registry.NewHandle(reg),
		snapshots: snapshot.NewService(defaultSourceSpecs, snapshot.NewPostgresStore(db.Pool), log),
		validator: validation.New(log),
	}, nil
}

// equityWorkers matches the equities provider's per-second quota
const equityWorkers = 5

// newAggregator wires the three fetchers behind shared rate limiting and
// response caching
func newAggregator(cfg *config.Config, rdb *redis.Client, m *metrics.Metrics, log *logger.Logger) (*finsig.Aggregator, error) {
	mappings, err := finsig.LoadMappings(cfg.Files.MappingsPath)
	if err != nil {
		return nil, fmt.Errorf("load mappings: %w", err)
	}

	limiter := redis.NewRateLimiter(rdb, "argus")
	cache := redis.NewCache(rdb, "argus")

	equityHTTP := httputil.New(log, 30*time.Second).WithRateLimiter(limiter, redis.MarketDataRateLimit)
	tokenHTTP := httputil.New(log, 30*time.Second).WithRateLimiter(limiter, redis.CoinGeckoRateLimit)
	macroHTTP := httputil.New(log, 30*time.Second).WithRateLimiter(limiter, redis.FREDRateLimit)

	equities := finsig.NewHTTPEquityFetcher(marketdata.NewClient(cfg, equityHTTP, log), cache, equityWorkers, log)
	tokens := finsig.NewHTTPTokenFetcher(coingecko.NewClient(cfg, tokenHTTP, log), cache, log)
	macro := finsig.NewHTTPMacroFetcher(fred.NewClient(cfg, macroHTTP, log), log)

	return finsig.NewAggregator(mappings, equities, tokens, macro, m, log), nil
}
