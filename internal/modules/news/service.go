// Package news provides curated financial headlines and thematic search on
// top of the NewsAPI client.
package news

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/clients/newsapi"
	"github.com/creditdesk/creditdesk/internal/domain"
)

// ThemeQueries maps theme names to prebuilt search queries for the
// full-index endpoint, which tolerates no source/category mixing.
var ThemeQueries = map[string]string{
	"Macro":         "interest rates OR inflation OR GDP OR CPI OR unemployment",
	"Technology":    "AI OR semiconductors OR cloud OR software OR 'big tech'",
	"Industry":      "manufacturing OR industrials OR supply chain",
	"Energy":        "oil OR gas OR renewables OR energy transition",
	"Healthcare":    "biotech OR pharma OR healthcare policy OR FDA",
	"Entertainment": "streaming OR box office OR gaming industry",
}

// HeadlineFetcher is the slice of the NewsAPI client the service needs.
type HeadlineFetcher interface {
	TopHeadlines(ctx context.Context, pageSize int, sources []string) ([]domain.NewsItem, error)
	Everything(ctx context.Context, p newsapi.SearchParams) ([]domain.NewsItem, error)
}

// SearchRequest describes a news search. Theme and Query are alternatives;
// Theme wins when both are set.
type SearchRequest struct {
	Query   string
	Theme   string
	Sources []string
	From    string
	To      string
}

// Service provides headline feeds and search.
type Service struct {
	client HeadlineFetcher
	log    zerolog.Logger
}

// NewService creates a new news service.
func NewService(client HeadlineFetcher, log zerolog.Logger) *Service {
	return &Service{
		client: client,
		log:    log.With().Str("service", "news").Logger(),
	}
}

// Headlines returns the latest curated headlines, newest first.
func (s *Service) Headlines(ctx context.Context, limit int) ([]domain.NewsItem, error) {
	if limit <= 0 {
		limit = 5
	}
	items, err := s.client.TopHeadlines(ctx, limit, nil)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Search runs a keyword or theme search over the full article index.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]domain.NewsItem, error) {
	query := strings.TrimSpace(req.Query)
	if req.Theme != "" {
		themed, ok := ThemeQueries[req.Theme]
		if !ok {
			return nil, &domain.ParseError{Source: "news", Err: errUnknownTheme(req.Theme)}
		}
		query = themed
	}
	if query == "" {
		return nil, &domain.ParseError{Source: "news", Err: errEmptyQuery}
	}

	items, err := s.client.Everything(ctx, newsapi.SearchParams{
		Query:   query,
		Sources: req.Sources,
		From:    req.From,
		To:      req.To,
		SortBy:  "publishedAt",
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(items)
	return items, nil
}

// Themes lists the available theme names alphabetically.
func (s *Service) Themes() []string {
	names := make([]string, 0, len(ThemeQueries))
	for name := range ThemeQueries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortNewestFirst(items []domain.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}

type searchError string

func (e searchError) Error() string { return string(e) }

const errEmptyQuery = searchError("query or theme is required")

func errUnknownTheme(theme string) error {
	return searchError("unknown theme: " + theme)
}

// LastPublished returns the newest publication time in items, used by the
// freshness report.
func LastPublished(items []domain.NewsItem) (time.Time, bool) {
	var latest time.Time
	for _, it := range items {
		if it.PublishedAt.After(latest) {
			latest = it.PublishedAt
		}
	}
	return latest, !latest.IsZero()
}
