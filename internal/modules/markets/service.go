// Package markets assembles volatility, credit proxy and equity views from
// Yahoo Finance chart data.
package markets

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/domain"
)

// MoveSymbol is the ICE BofA MOVE treasury volatility index ticker.
const MoveSymbol = "^MOVE"

// CDSProxySymbol is the ETF stand-in for the CDX NA IG index.
const CDSProxySymbol = "LQD"

// RebaseBase is the starting level for comparison series.
const RebaseBase = 100

// DefaultWatchlist is the quote board shown when no symbols are requested.
var DefaultWatchlist = []string{"^MOVE", "LQD", "HYG", "SPY", "TLT"}

// ChartClient is the slice of the Yahoo client the service needs.
type ChartClient interface {
	History(ctx context.Context, symbol, chartRange string) (domain.Series, error)
	Quote(ctx context.Context, symbol string) (*domain.Quote, error)
	Quotes(ctx context.Context, symbols []string) ([]domain.Quote, error)
}

// Service provides market data views.
type Service struct {
	yahoo ChartClient
	log   zerolog.Logger
}

// NewService creates a new markets service.
func NewService(yahoo ChartClient, log zerolog.Logger) *Service {
	return &Service{
		yahoo: yahoo,
		log:   log.With().Str("service", "markets").Logger(),
	}
}

// Move returns the MOVE index close history.
func (s *Service) Move(ctx context.Context, chartRange string) (domain.Series, error) {
	if chartRange == "" {
		chartRange = "max"
	}
	return s.yahoo.History(ctx, MoveSymbol, chartRange)
}

// CDSProxy returns the LQD ETF close history as an IG credit proxy.
func (s *Service) CDSProxy(ctx context.Context, chartRange string) (domain.Series, error) {
	if chartRange == "" {
		chartRange = "max"
	}
	return s.yahoo.History(ctx, CDSProxySymbol, chartRange)
}

// History returns the close history for an arbitrary symbol.
func (s *Service) History(ctx context.Context, symbol, chartRange string) (domain.Series, error) {
	return s.yahoo.History(ctx, symbol, chartRange)
}

// Compare returns the requested symbols rebased to a common starting level
// so different price scales chart together. Symbols that fail are skipped.
func (s *Service) Compare(ctx context.Context, symbols []string, chartRange string) (domain.Table, error) {
	table := domain.Table{Data: make(map[string]domain.Series, len(symbols))}
	for _, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			continue
		}
		series, err := s.yahoo.History(ctx, symbol, chartRange)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Comparison symbol unavailable")
			continue
		}
		table.Columns = append(table.Columns, symbol)
		table.Data[symbol] = series.Rebase(RebaseBase)
	}
	return table, nil
}

// Snapshot is a quote board refresh: the quotes that resolved and when.
type Snapshot struct {
	Quotes []domain.Quote `json:"quotes"`
	AsOf   time.Time      `json:"as_of"`
}

// Quotes returns current quotes for the given symbols, or the default
// watchlist when none are given.
func (s *Service) Quotes(ctx context.Context, symbols []string) (*Snapshot, error) {
	if len(symbols) == 0 {
		symbols = DefaultWatchlist
	}
	quotes, err := s.yahoo.Quotes(ctx, symbols)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Quotes: quotes, AsOf: time.Now().UTC()}, nil
}
