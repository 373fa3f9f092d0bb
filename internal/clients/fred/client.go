// Package fred provides a client for the FRED (Federal Reserve Economic Data)
// observations API with caching and stale-data fallback.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/clientdata"
	"github.com/creditdesk/creditdesk/internal/domain"
)

const dateLayout = "2006-01-02"

// Client for the FRED REST API.
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new FRED client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.stlouisfed.org/fred/series/observations",
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log.With().Str("client", "fred").Logger(),
		cacheRepo: cacheRepo,
	}
}

// observationsResponse mirrors the FRED JSON payload. Values arrive as
// strings; missing observations are ".".
type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Series fetches all observations for a series ID from start onward,
// newest last. A zero start fetches the full history.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) Series(ctx context.Context, seriesID string, start time.Time) (domain.Series, error) {
	if c.apiKey == "" {
		return nil, &domain.ConfigError{Key: "FRED_API_KEY"}
	}

	cacheKey := seriesID
	if !start.IsZero() {
		cacheKey = seriesID + ":" + start.Format(dateLayout)
	}

	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh("fred_series", cacheKey)
		if err == nil && data != nil {
			var cached domain.Series
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("series", seriesID).Int("points", len(cached)).Msg("Cache hit")
				return cached, nil
			}
		}
	}

	series, err := c.fetch(ctx, seriesID, start)
	if err != nil {
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().
				Err(err).
				Str("series", seriesID).
				Msg("FRED request failed, using stale cached series")
			return stale, nil
		}
		return nil, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("fred_series", cacheKey, series, clientdata.TTLFredSeries); err != nil {
			c.log.Warn().Err(err).Str("series", seriesID).Msg("Failed to cache series")
		}
	}

	c.log.Info().Str("series", seriesID).Int("points", len(series)).Msg("Fetched series")
	return series, nil
}

func (c *Client) fetch(ctx context.Context, seriesID string, start time.Time) (domain.Series, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "asc")
	if !start.IsZero() {
		params.Set("observation_start", start.Format(dateLayout))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.UpstreamError{Source: "fred", Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Source: "fred", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{Source: "fred", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var payload observationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.ParseError{Source: "fred", Err: err}
	}

	points := make([]domain.Point, 0, len(payload.Observations))
	for _, obs := range payload.Observations {
		if obs.Value == "." || obs.Value == "" {
			continue // FRED placeholder for missing observations
		}
		t, err := time.Parse(dateLayout, obs.Date)
		if err != nil {
			return nil, &domain.ParseError{Source: "fred", Err: fmt.Errorf("bad date %q: %w", obs.Date, err)}
		}
		v, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			return nil, &domain.ParseError{Source: "fred", Err: fmt.Errorf("bad value %q: %w", obs.Value, err)}
		}
		points = append(points, domain.Point{Time: t, Value: v})
	}

	return domain.NewSeries(points), nil
}

// getStaleFromCache retrieves a cached series even if expired.
// Use this as a fallback when API calls fail - stale data is better than no data.
func (c *Client) getStaleFromCache(cacheKey string) (domain.Series, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.Get("fred_series", cacheKey)
	if err != nil || data == nil {
		return nil, false
	}

	var cached domain.Series
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	return cached, true
}
