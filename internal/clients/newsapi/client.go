// Package newsapi provides a client for newsapi.org with response
// normalization and headline caching.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/clientdata"
	"github.com/creditdesk/creditdesk/internal/domain"
)

// DefaultSources are the curated business-news source slugs used when the
// caller does not pick its own. NewsAPI rejects requests mixing sources
// with country or category, so this client only ever sends sources.
var DefaultSources = []string{
	"bloomberg",
	"the-wall-street-journal",
	"the-economist",
	"reuters",
	"cnbc",
}

// Client for the newsapi.org REST API.
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new NewsAPI client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://newsapi.org/v2",
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 12 * time.Second},
		log:       log.With().Str("client", "newsapi").Logger(),
		cacheRepo: cacheRepo,
	}
}

// SearchParams describes an "everything" query.
type SearchParams struct {
	Query   string
	Sources []string
	Domains []string
	From    string // ISO date, optional
	To      string // ISO date, optional
	SortBy  string // relevancy, popularity, publishedAt
	Page    int
}

type apiResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// TopHeadlines returns up to pageSize normalized headlines from the given
// source slugs (DefaultSources when empty). Results are cached.
func (c *Client) TopHeadlines(ctx context.Context, pageSize int, sources []string) ([]domain.NewsItem, error) {
	if c.apiKey == "" {
		return nil, &domain.ConfigError{Key: "NEWS_API_KEY"}
	}
	if pageSize <= 0 {
		pageSize = 5
	}
	joined := joinSlugs(sources)
	if joined == "" {
		joined = joinSlugs(DefaultSources)
	}

	cacheKey := fmt.Sprintf("top:%d:%s", pageSize, joined)
	if items, ok := c.getFreshFromCache(cacheKey); ok {
		return items, nil
	}

	params := url.Values{}
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("sources", joined)

	items, err := c.fetch(ctx, "/top-headlines", params)
	if err != nil {
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Err(err).Msg("NewsAPI failed, using stale cached headlines")
			return stale, nil
		}
		return nil, err
	}

	c.storeInCache(cacheKey, items)
	return items, nil
}

// Everything searches the full article index. Results are cached per query.
func (c *Client) Everything(ctx context.Context, p SearchParams) ([]domain.NewsItem, error) {
	if c.apiKey == "" {
		return nil, &domain.ConfigError{Key: "NEWS_API_KEY"}
	}
	if p.SortBy == "" {
		p.SortBy = "relevancy"
	}
	if p.Page <= 0 {
		p.Page = 1
	}

	params := url.Values{}
	params.Set("q", p.Query)
	params.Set("language", "en")
	params.Set("sortBy", p.SortBy)
	params.Set("page", strconv.Itoa(p.Page))
	params.Set("pageSize", "50")
	if s := joinSlugs(p.Sources); s != "" {
		params.Set("sources", s)
	}
	if d := joinSlugs(p.Domains); d != "" {
		params.Set("domains", d)
	}
	if p.From != "" {
		params.Set("from", p.From)
	}
	if p.To != "" {
		params.Set("to", p.To)
	}

	cacheKey := "everything:" + params.Encode()
	if items, ok := c.getFreshFromCache(cacheKey); ok {
		return items, nil
	}

	items, err := c.fetch(ctx, "/everything", params)
	if err != nil {
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Err(err).Str("query", p.Query).Msg("NewsAPI search failed, using stale cached results")
			return stale, nil
		}
		return nil, err
	}

	c.storeInCache(cacheKey, items)
	return items, nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]domain.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.UpstreamError{Source: "newsapi", Err: err}
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Source: "newsapi", Err: err}
	}
	defer resp.Body.Close()

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.ParseError{Source: "newsapi", Err: err}
	}

	if resp.StatusCode != http.StatusOK || payload.Status == "error" {
		return nil, &domain.UpstreamError{
			Source: "newsapi",
			Err:    fmt.Errorf("status %d: %s %s", resp.StatusCode, payload.Code, payload.Message),
		}
	}

	return normalizeArticles(payload), nil
}

// normalizeArticles produces a uniform, resilient shape: URLs deduplicated,
// titles trimmed, timestamps parsed best-effort.
func normalizeArticles(payload apiResponse) []domain.NewsItem {
	out := make([]domain.NewsItem, 0, len(payload.Articles))
	seen := make(map[string]bool, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.URL == "" || seen[a.URL] {
			continue
		}
		seen[a.URL] = true

		published, _ := time.Parse(time.RFC3339, a.PublishedAt)

		out = append(out, domain.NewsItem{
			Title:       strings.TrimSpace(a.Title),
			Description: a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			PublishedAt: published,
		})
	}
	return out
}

func joinSlugs(slugs []string) string {
	vals := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if strings.TrimSpace(s) != "" {
			vals = append(vals, strings.TrimSpace(s))
		}
	}
	return strings.Join(vals, ",")
}

func (c *Client) getFreshFromCache(key string) ([]domain.NewsItem, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.GetIfFresh("news_headlines", key)
	if err != nil || data == nil {
		return nil, false
	}
	var items []domain.NewsItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	c.log.Debug().Str("key", key).Int("items", len(items)).Msg("Cache hit")
	return items, true
}

func (c *Client) getStaleFromCache(key string) ([]domain.NewsItem, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.Get("news_headlines", key)
	if err != nil || data == nil {
		return nil, false
	}
	var items []domain.NewsItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *Client) storeInCache(key string, items []domain.NewsItem) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store("news_headlines", key, items, clientdata.TTLNews); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to cache headlines")
	}
}
