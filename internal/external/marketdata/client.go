package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/pkg/config"
	"github.com/wonny/argus/pkg/httputil"
	"github.com/wonny/argus/pkg/logger"
)

// SourceName identifies this provider in health and warning output
const SourceName = "marketdata"

// Client handles communication with the equities daily-bar API
// ⭐ SSOT: equities API calls happen in this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a new equities data client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("external.marketdata"),
		baseURL:    cfg.MarketData.BaseURL,
		apiKey:     cfg.MarketData.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.MarketData.RateRPS), cfg.MarketData.RateBurst),
	}
}

// candlesResponse is the provider's array-of-columns candle format
type candlesResponse struct {
	Status  string    `json:"s"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
	Times   []int64   `json:"t"` // unix seconds
}

// Bar is one daily bar
type Bar struct {
	Date   time.Time
	Close  float64
	Volume float64
}

// FetchDailyBars fetches daily bars for a symbol over [from, to]
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))
	if c.apiKey != "" {
		params.Set("token", c.apiKey)
	}

	fullURL := fmt.Sprintf("%s/stocks/candles/daily/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var resp candlesResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", symbol, err)
	}

	if resp.Status != "ok" {
		return nil, fmt.Errorf("provider status %q for %s", resp.Status, symbol)
	}
	if len(resp.Closes) != len(resp.Times) {
		return nil, fmt.Errorf("malformed candle response for %s", symbol)
	}

	bars := make([]Bar, 0, len(resp.Times))
	for i := range resp.Times {
		bar := Bar{
			Date:  time.Unix(resp.Times[i], 0).UTC(),
			Close: resp.Closes[i],
		}
		if i < len(resp.Volumes) {
			bar.Volume = resp.Volumes[i]
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(bars),
	}).Debug("Fetched daily bars")

	return bars, nil
}

// FetchObservation fetches enough history for a symbol to compute the
// 1/7/30 day changes and the volume ratio as of a date
func (c *Client) FetchObservation(ctx context.Context, symbol string, asOf time.Time) (contracts.RawMarketObservation, error) {
	from := asOf.AddDate(0, 0, -45) // 30d change plus weekend slack
	bars, err := c.FetchDailyBars(ctx, symbol, from, asOf)
	if err != nil {
		return contracts.RawMarketObservation{}, err
	}
	if len(bars) == 0 {
		return contracts.RawMarketObservation{}, fmt.Errorf("no bars for %s", symbol)
	}

	last := bars[len(bars)-1]
	obs := contracts.RawMarketObservation{
		Symbol:    symbol,
		Kind:      contracts.InstrumentEquity,
		Timestamp: last.Date,
		Value:     last.Close,
		Change1D:  pctChangeSince(bars, last.Date.AddDate(0, 0, -1)),
		Change7D:  pctChangeSince(bars, last.Date.AddDate(0, 0, -7)),
		Change30D: pctChangeSince(bars, last.Date.AddDate(0, 0, -30)),
	}

	if ratio, ok := volumeRatio(bars); ok {
		obs.VolumeRatio = &ratio
	}

	return obs, nil
}

// pctChangeSince computes the percent change from the last bar at or
// before the reference date to the final bar
func pctChangeSince(bars []Bar, ref time.Time) float64 {
	last := bars[len(bars)-1]
	var base *Bar
	for i := range bars {
		if bars[i].Date.After(ref) {
			break
		}
		base = &bars[i]
	}
	if base == nil || base.Close == 0 {
		return 0
	}
	return (last.Close - base.Close) / base.Close * 100
}

// volumeRatio compares the final bar's volume to the trailing 20-bar mean
func volumeRatio(bars []Bar) (float64, bool) {
	if len(bars) < 2 {
		return 0, false
	}
	last := bars[len(bars)-1]

	start := len(bars) - 21
	if start < 0 {
		start = 0
	}
	window := bars[start : len(bars)-1]

	var sum float64
	for _, b := range window {
		sum += b.Volume
	}
	if sum == 0 {
		return 0, false
	}
	mean := sum / float64(len(window))
	return last.Volume / mean, true
}
