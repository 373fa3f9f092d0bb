// Package quant runs moving-average studies and a long-only crossover
// backtest over Yahoo close history.
package quant

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/domain"
)

// DefaultWindows are the standard moving average windows.
var DefaultWindows = []int{20, 50, 200}

// RSIPeriod is the lookback for the relative strength index.
const RSIPeriod = 14

// InitialCapital is the backtest starting capital.
const InitialCapital = 10000.0

// Signal is a crossover event.
type Signal struct {
	Time  time.Time `json:"time"`
	Type  string    `json:"type"` // buy or sell
	Price float64   `json:"price"`
}

// Backtest is the result of the long-only crossover strategy.
type Backtest struct {
	InitialCapital float64       `json:"initial_capital"`
	FinalValue     float64       `json:"final_value"`
	ReturnPct      float64       `json:"return_pct"`
	Trades         int           `json:"trades"`
	Equity         domain.Series `json:"equity"`
}

// Analysis is the full moving-average study for one symbol.
type Analysis struct {
	Symbol         string                   `json:"symbol"`
	Close          domain.Series            `json:"close"`
	MovingAverages map[string]domain.Series `json:"moving_averages"`
	RSI            domain.Series            `json:"rsi"`
	Signals        []Signal                 `json:"signals"`
	Backtest       Backtest                 `json:"backtest"`
}

// HistoryClient is the slice of the Yahoo client the service needs.
type HistoryClient interface {
	History(ctx context.Context, symbol, chartRange string) (domain.Series, error)
}

// Service runs quant studies.
type Service struct {
	yahoo HistoryClient
	log   zerolog.Logger
}

// NewService creates a new quant service.
func NewService(yahoo HistoryClient, log zerolog.Logger) *Service {
	return &Service{
		yahoo: yahoo,
		log:   log.With().Str("service", "quant").Logger(),
	}
}

// MovingAverageAnalysis fetches close history and computes SMAs, RSI,
// crossover signals between the two shortest windows, and the backtest.
func (s *Service) MovingAverageAnalysis(ctx context.Context, symbol, chartRange string, windows []int) (*Analysis, error) {
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	for _, w := range windows {
		if w < 2 {
			return nil, &domain.ParseError{Source: "quant", Err: fmt.Errorf("window %d too small", w)}
		}
	}
	sorted := append([]int(nil), windows...)
	sort.Ints(sorted)

	if chartRange == "" {
		chartRange = "2y"
	}
	closeSeries, err := s.yahoo.History(ctx, symbol, chartRange)
	if err != nil {
		return nil, err
	}
	if len(closeSeries) < sorted[0] {
		return nil, &domain.ParseError{
			Source: "quant",
			Err:    fmt.Errorf("%d observations is not enough for a %d-day window", len(closeSeries), sorted[0]),
		}
	}

	closes := closeSeries.Values()

	analysis := &Analysis{
		Symbol:         symbol,
		Close:          closeSeries,
		MovingAverages: make(map[string]domain.Series, len(sorted)),
	}
	for _, w := range sorted {
		if len(closes) < w {
			continue
		}
		analysis.MovingAverages[fmt.Sprintf("MA_%d", w)] = overlay(closeSeries, talib.Sma(closes, w), w-1)
	}
	if len(closes) > RSIPeriod {
		analysis.RSI = overlay(closeSeries, talib.Rsi(closes, RSIPeriod), RSIPeriod)
	}

	if len(sorted) >= 2 && len(closes) >= sorted[1] {
		fast := talib.Sma(closes, sorted[0])
		slow := talib.Sma(closes, sorted[1])
		analysis.Signals = crossoverSignals(closeSeries, fast, slow, sorted[1]-1)
	}
	analysis.Backtest = runBacktest(closeSeries, analysis.Signals)

	return analysis, nil
}

// overlay trims the indicator warmup so the series starts at the first
// defined value.
func overlay(base domain.Series, values []float64, warmup int) domain.Series {
	out := make(domain.Series, 0, len(base)-warmup)
	for i := warmup; i < len(base) && i < len(values); i++ {
		out = append(out, domain.Point{Time: base[i].Time, Value: values[i]})
	}
	return out
}

// crossoverSignals emits a buy when the fast average moves above the slow
// and a sell when it moves below, starting once both are defined.
func crossoverSignals(base domain.Series, fast, slow []float64, warmup int) []Signal {
	var signals []Signal
	prev := 0
	for i := warmup; i < len(base); i++ {
		state := 0
		switch {
		case fast[i] > slow[i]:
			state = 1
		case fast[i] < slow[i]:
			state = -1
		}
		if state == 1 && prev <= 0 && i > warmup {
			signals = append(signals, Signal{Time: base[i].Time, Type: "buy", Price: base[i].Value})
		}
		if state == -1 && prev >= 0 && i > warmup {
			signals = append(signals, Signal{Time: base[i].Time, Type: "sell", Price: base[i].Value})
		}
		if state != 0 {
			prev = state
		}
	}
	return signals
}

// runBacktest plays the signals long-only: all-in on buy, flat on sell, any
// open position liquidated on the last close.
func runBacktest(base domain.Series, signals []Signal) Backtest {
	bt := Backtest{InitialCapital: InitialCapital}
	if len(base) == 0 {
		return bt
	}

	cash := InitialCapital
	shares := 0.0
	trades := 0

	next := 0
	equity := make(domain.Series, 0, len(base))
	for _, p := range base {
		for next < len(signals) && signals[next].Time.Equal(p.Time) {
			sig := signals[next]
			if sig.Type == "buy" && shares == 0 && p.Value > 0 {
				shares = cash / p.Value
				cash = 0
				trades++
			} else if sig.Type == "sell" && shares > 0 {
				cash = shares * p.Value
				shares = 0
				trades++
			}
			next++
		}
		equity = append(equity, domain.Point{Time: p.Time, Value: cash + shares*p.Value})
	}

	final := equity[len(equity)-1].Value
	bt.FinalValue = final
	bt.ReturnPct = (final/InitialCapital - 1) * 100
	bt.Trades = trades
	bt.Equity = equity
	return bt
}
