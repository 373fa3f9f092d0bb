package portfolio

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/domain"
	"github.com/creditdesk/creditdesk/pkg/formulas"
)

// PriceClient is the slice of the Yahoo client the service needs.
type PriceClient interface {
	Quote(ctx context.Context, symbol string) (*domain.Quote, error)
	History(ctx context.Context, symbol, chartRange string) (domain.Series, error)
}

// Service manages the transaction ledger and portfolio analytics.
type Service struct {
	transactions *TransactionRepository
	snapshots    *SnapshotRepository
	prices       PriceClient
	log          zerolog.Logger
}

// NewService creates a new portfolio service.
func NewService(
	transactions *TransactionRepository,
	snapshots *SnapshotRepository,
	prices PriceClient,
	log zerolog.Logger,
) *Service {
	return &Service{
		transactions: transactions,
		snapshots:    snapshots,
		prices:       prices,
		log:          log.With().Str("service", "portfolio").Logger(),
	}
}

// AddTransaction validates and records a buy or sell. Sells that exceed the
// current net position are rejected.
func (s *Service) AddTransaction(symbol, action string, quantity, price float64) (*Transaction, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	action = strings.ToLower(strings.TrimSpace(action))

	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if action != ActionBuy && action != ActionSell {
		return nil, fmt.Errorf("action must be %q or %q", ActionBuy, ActionSell)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if price < 0 {
		return nil, fmt.Errorf("price cannot be negative")
	}

	if action == ActionSell {
		held, err := s.transactions.NetPosition(symbol)
		if err != nil {
			return nil, err
		}
		if quantity > held {
			return nil, fmt.Errorf("cannot sell %g %s, only %g held", quantity, symbol, held)
		}
	}

	tx := Transaction{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		Action:     action,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: time.Now().UTC(),
	}
	if err := s.transactions.Add(tx); err != nil {
		return nil, err
	}

	s.log.Info().Str("symbol", symbol).Str("action", action).Float64("quantity", quantity).Msg("Recorded transaction")
	return &tx, nil
}

// Transactions returns the full ledger, oldest first.
func (s *Service) Transactions() ([]Transaction, error) {
	return s.transactions.GetAll()
}

// DeleteTransaction removes a ledger entry by id.
func (s *Service) DeleteTransaction(id string) error {
	return s.transactions.Delete(id)
}

// Holdings prices the current net positions. Symbols whose quote fails keep
// a zero price so the position itself stays visible.
func (s *Service) Holdings(ctx context.Context) ([]Holding, error) {
	positions, err := s.transactions.NetPositions()
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(positions))
	for symbol := range positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	out := make([]Holding, 0, len(symbols))
	for _, symbol := range symbols {
		holding := Holding{Symbol: symbol, Quantity: positions[symbol]}
		quote, err := s.prices.Quote(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable for holding")
		} else {
			holding.CurrentPrice = quote.Price
			holding.MarketValue = quote.Price * holding.Quantity
		}
		out = append(out, holding)
	}
	return out, nil
}

// Summary returns holdings plus the total portfolio value.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	holdings, err := s.Holdings(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := s.transactions.GetAll()
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, h := range holdings {
		total += h.MarketValue
	}
	return &Summary{
		TotalValue:   total,
		Holdings:     holdings,
		Transactions: len(ledger),
		AsOf:         time.Now().UTC(),
	}, nil
}

// Metrics computes annualized performance statistics from one year of daily
// value history of the current holdings.
func (s *Service) Metrics(ctx context.Context) (*Metrics, error) {
	positions, err := s.transactions.NetPositions()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return &Metrics{}, nil
	}

	values := s.valueHistory(ctx, positions)
	total := 0.0
	if latest, ok := values.Latest(); ok {
		total = latest.Value
	}
	if len(values) < 2 {
		return &Metrics{TotalValue: total, Days: len(values)}, nil
	}

	returns := formulas.Returns(values.Values())
	metrics := &Metrics{
		TotalValue:  total,
		Volatility:  formulas.AnnualizedVolatility(returns),
		Sharpe:      formulas.SharpeRatio(returns, RiskFreeRate, formulas.TradingDaysPerYear),
		Sortino:     formulas.SortinoRatio(returns, RiskFreeRate, 0, formulas.TradingDaysPerYear),
		MaxDrawdown: formulas.MaxDrawdown(values.Values()),
		Days:        len(values),
	}

	first := values[0]
	last := values[len(values)-1]
	days := int(last.Time.Sub(first.Time).Hours() / 24)
	metrics.CAGR = formulas.CAGR(first.Value, last.Value, days)

	return metrics, nil
}

// valueHistory sums quantity-weighted close histories across holdings,
// aligned and forward-filled. Symbols without history are skipped, and only
// days where every held symbol has a value are kept.
func (s *Service) valueHistory(ctx context.Context, positions map[string]float64) domain.Series {
	table := domain.Table{Data: make(map[string]domain.Series, len(positions))}
	for symbol, quantity := range positions {
		history, err := s.prices.History(ctx, symbol, "1y")
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("History unavailable for metrics")
			continue
		}
		table.Columns = append(table.Columns, symbol)
		table.Data[symbol] = history.Scale(quantity)
	}

	aligned := table.AlignForwardFill()

	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, col := range aligned.Columns {
		for _, p := range aligned.Data[col] {
			sums[p.Time] += p.Value
			counts[p.Time]++
		}
	}

	points := make([]domain.Point, 0, len(sums))
	for ts, v := range sums {
		if counts[ts] == len(aligned.Columns) {
			points = append(points, domain.Point{Time: ts, Value: v})
		}
	}
	return domain.NewSeries(points)
}

// RecordSnapshot values the portfolio now and persists it under today's date.
func (s *Service) RecordSnapshot(ctx context.Context) (*ValueSnapshot, error) {
	holdings, err := s.Holdings(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := ValueSnapshot{
		Date:     time.Now().UTC().Format("2006-01-02"),
		BySymbol: make(map[string]float64, len(holdings)),
	}
	for _, h := range holdings {
		snapshot.BySymbol[h.Symbol] = h.MarketValue
		snapshot.TotalValue += h.MarketValue
	}

	if err := s.snapshots.Save(snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SnapshotHistory returns saved valuation snapshots, oldest first.
func (s *Service) SnapshotHistory() ([]ValueSnapshot, error) {
	return s.snapshots.GetAll()
}
