package fred

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/argus/pkg/config"
	"github.com/wonny/argus/pkg/httputil"
	"github.com/wonny/argus/pkg/logger"
)

// SourceName identifies this provider in health and warning output
const SourceName = "fred"

// Client handles communication with the FRED macro series API
// ⭐ SSOT: FRED API calls happen in this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a new FRED client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("external.fred"),
		baseURL:    cfg.FRED.BaseURL,
		apiKey:     cfg.FRED.APIKey,
	}
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"` // FRED sends "." for missing values
	} `json:"observations"`
}

// FetchHistory fetches up to limit observations of a series ending at or
// before asOf, oldest first. Missing values are skipped.
func (c *Client) FetchHistory(ctx context.Context, seriesID string, limit int, asOf time.Time) ([]float64, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("observation_end", asOf.Format("2006-01-02"))
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	fullURL := fmt.Sprintf("%s/series/observations?%s", c.baseURL, params.Encode())

	var resp observationsResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, fmt.Errorf("fetch series %s: %w", seriesID, err)
	}

	type sample struct {
		date  string
		value float64
	}
	samples := make([]sample, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		samples = append(samples, sample{date: o.Date, value: v})
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].date < samples[j].date })

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.value
	}

	c.logger.WithFields(map[string]interface{}{
		"series": seriesID,
		"points": len(values),
	}).Debug("Fetched macro series")

	return values, nil
}
