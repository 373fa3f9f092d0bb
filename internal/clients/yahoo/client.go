// Package yahoo provides an unauthenticated client for the Yahoo Finance
// v8 chart API, covering both historical series and latest quotes.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/clientdata"
	"github.com/creditdesk/creditdesk/internal/domain"
)

// validRanges are the range values the chart endpoint accepts.
var validRanges = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

// Client for the Yahoo Finance chart API. No API key is required but the
// endpoint expects a browser-like User-Agent.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new Yahoo Finance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://query1.finance.yahoo.com/v8/finance/chart",
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log.With().Str("client", "yahoo").Logger(),
		cacheRepo: cacheRepo,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History returns the daily close series for symbol over chartRange
// (1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max). Null closes for
// holidays and halts are dropped.
func (c *Client) History(ctx context.Context, symbol, chartRange string) (domain.Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &domain.ParseError{Source: "yahoo", Err: fmt.Errorf("empty symbol")}
	}
	if chartRange == "" {
		chartRange = "1y"
	}
	if !validRanges[chartRange] {
		return nil, &domain.ParseError{Source: "yahoo", Err: fmt.Errorf("invalid range %q", chartRange)}
	}

	cacheKey := symbol + ":" + chartRange
	if c.cacheRepo != nil {
		if data, err := c.cacheRepo.GetIfFresh("yahoo_history", cacheKey); err == nil && data != nil {
			var series domain.Series
			if err := json.Unmarshal(data, &series); err == nil {
				c.log.Debug().Str("symbol", symbol).Str("range", chartRange).Msg("Cache hit")
				return series, nil
			}
		}
	}

	payload, err := c.fetchChart(ctx, symbol, chartRange, "1d")
	if err != nil {
		if c.cacheRepo != nil {
			if data, cacheErr := c.cacheRepo.Get("yahoo_history", cacheKey); cacheErr == nil && data != nil {
				var series domain.Series
				if jsonErr := json.Unmarshal(data, &series); jsonErr == nil {
					c.log.Warn().Err(err).Str("symbol", symbol).Msg("Yahoo failed, using stale cached history")
					return series, nil
				}
			}
		}
		return nil, err
	}

	series, err := seriesFromChart(payload)
	if err != nil {
		return nil, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("yahoo_history", cacheKey, series, clientdata.TTLYahooHistory); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache history")
		}
	}

	return series, nil
}

// Quote returns the latest price snapshot for symbol from chart metadata.
func (c *Client) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &domain.ParseError{Source: "yahoo", Err: fmt.Errorf("empty symbol")}
	}

	if c.cacheRepo != nil {
		if data, err := c.cacheRepo.GetIfFresh("yahoo_quotes", symbol); err == nil && data != nil {
			var quote domain.Quote
			if err := json.Unmarshal(data, &quote); err == nil {
				return &quote, nil
			}
		}
	}

	payload, err := c.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		if c.cacheRepo != nil {
			if data, cacheErr := c.cacheRepo.Get("yahoo_quotes", symbol); cacheErr == nil && data != nil {
				var quote domain.Quote
				if jsonErr := json.Unmarshal(data, &quote); jsonErr == nil {
					c.log.Warn().Err(err).Str("symbol", symbol).Msg("Yahoo failed, using stale cached quote")
					return &quote, nil
				}
			}
		}
		return nil, err
	}

	quote, err := quoteFromChart(payload)
	if err != nil {
		return nil, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("yahoo_quotes", symbol, quote, clientdata.TTLQuote); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	return quote, nil
}

// Quotes fetches quotes for several symbols, skipping symbols that fail.
func (c *Client) Quotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	quotes := make([]domain.Quote, 0, len(symbols))
	var lastErr error
	for _, symbol := range symbols {
		quote, err := c.Quote(ctx, symbol)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
			lastErr = err
			continue
		}
		quotes = append(quotes, *quote)
	}
	if len(quotes) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return quotes, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol, chartRange, interval string) (*chartResponse, error) {
	params := url.Values{}
	params.Set("range", chartRange)
	params.Set("interval", interval)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Source: "yahoo", Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Source: "yahoo", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{Source: "yahoo", Err: fmt.Errorf("status %d for %s", resp.StatusCode, symbol)}
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.ParseError{Source: "yahoo", Err: err}
	}

	if payload.Chart.Error != nil {
		return nil, &domain.UpstreamError{
			Source: "yahoo",
			Err:    fmt.Errorf("%s: %s", payload.Chart.Error.Code, payload.Chart.Error.Description),
		}
	}
	if len(payload.Chart.Result) == 0 {
		return nil, &domain.ParseError{Source: "yahoo", Err: fmt.Errorf("no result for %s", symbol)}
	}

	return &payload, nil
}

func seriesFromChart(payload *chartResponse) (domain.Series, error) {
	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, &domain.ParseError{Source: "yahoo", Err: fmt.Errorf("no quote indicators for %s", result.Meta.Symbol)}
	}

	closes := result.Indicators.Quote[0].Close
	points := make([]domain.Point, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, domain.Point{
			Time:  time.Unix(ts, 0).UTC(),
			Value: *closes[i],
		})
	}

	return domain.NewSeries(points), nil
}

func quoteFromChart(payload *chartResponse) (*domain.Quote, error) {
	meta := payload.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 && meta.ChartPreviousClose == 0 {
		return nil, &domain.ParseError{Source: "yahoo", Err: fmt.Errorf("empty quote for %s", meta.Symbol)}
	}

	// Without a previous close there is no meaningful delta.
	change := 0.0
	changePct := 0.0
	if meta.ChartPreviousClose != 0 {
		change = meta.RegularMarketPrice - meta.ChartPreviousClose
		changePct = change / meta.ChartPreviousClose * 100
	}

	asOf := time.Now().UTC()
	if meta.RegularMarketTime > 0 {
		asOf = time.Unix(meta.RegularMarketTime, 0).UTC()
	}

	return &domain.Quote{
		Symbol:        meta.Symbol,
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.ChartPreviousClose,
		Change:        change,
		ChangePct:     changePct,
		Currency:      meta.Currency,
		AsOf:          asOf,
	}, nil
}
