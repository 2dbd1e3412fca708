package coingecko

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
const SourceName = "coingecko"

// Client handles communication with the CoinGecko API
// ⭐ SSOT: CoinGecko API calls happen in this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a new CoinGecko client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("external.coingecko"),
		baseURL:    cfg.CoinGecko.BaseURL,
		apiKey:     cfg.CoinGecko.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.CoinGecko.RateRPS), cfg.CoinGecko.RateBurst),
	}
}

// marketChartResponse is CoinGecko's [timestamp_ms, value] pair format
type marketChartResponse struct {
	Prices       [][]float64 `json:"prices"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// pricePoint is one decoded price sample
type pricePoint struct {
	At    time.Time
	Price float64
}

// FetchObservation fetches a token's price history and derives the
// window changes as of a date
func (c *Client) FetchObservation(ctx context.Context, tokenID string, asOf time.Time) (contracts.RawMarketObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return contracts.RawMarketObservation{}, err
	}

	from := asOf.AddDate(0, 0, -31)

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("from", fmt.Sprintf("%d", from.Unix()))
	params.Set("to", fmt.Sprintf("%d", asOf.Unix()))
	if c.apiKey != "" {
		params.Set("x_cg_pro_api_key", c.apiKey)
	}

	fullURL := fmt.Sprintf("%s/coins/%s/market_chart/range?%s", c.baseURL, url.PathEscape(tokenID), params.Encode())

	var resp marketChartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return contracts.RawMarketObservation{}, fmt.Errorf("fetch market chart for %s: %w", tokenID, err)
	}

	points := make([]pricePoint, 0, len(resp.Prices))
	for _, pair := range resp.Prices {
		if len(pair) != 2 {
			continue
		}
		points = append(points, pricePoint{
			At:    time.UnixMilli(int64(pair[0])).UTC(),
			Price: pair[1],
		})
	}
	if len(points) == 0 {
		return contracts.RawMarketObservation{}, fmt.Errorf("no price history for %s", tokenID)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].At.Before(points[j].At) })
	last := points[len(points)-1]

	obs := contracts.RawMarketObservation{
		Symbol:    tokenID,
		Kind:      contracts.InstrumentToken,
		Timestamp: last.At,
		Value:     last.Price,
		Change1D:  pctChangeSince(points, last.At.Add(-24*time.Hour)),
		Change7D:  pctChangeSince(points, last.At.Add(-7*24*time.Hour)),
		Change30D: pctChangeSince(points, last.At.Add(-30*24*time.Hour)),
	}

	c.logger.WithFields(map[string]interface{}{
		"token":  tokenID,
		"points": len(points),
	}).Debug("Fetched token market chart")

	return obs, nil
}

// pctChangeSince computes the percent change from the last sample at or
// before the reference time to the final sample
func pctChangeSince(points []pricePoint, ref time.Time) float64 {
	last := points[len(points)-1]
	var base *pricePoint
	for i := range points {
		if points[i].At.After(ref) {
			break
		}
		base = &points[i]
	}
	if base == nil || base.Price == 0 {
		return 0
	}
	return (last.Price - base.Price) / base.Price * 100
}
