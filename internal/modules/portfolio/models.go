// Package portfolio tracks a transaction ledger and derives holdings,
// valuations and performance metrics from it.
package portfolio

import "time"

// Transaction actions.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// RiskFreeRate is the flat annual risk-free rate used in ratio metrics.
const RiskFreeRate = 0.02

// Transaction is one ledger entry.
type Transaction struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Action     string    `json:"action"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Value is the cash amount of the transaction.
func (t Transaction) Value() float64 {
	return t.Quantity * t.Price
}

// Holding is a derived net position with its current market value.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
}

// Summary is the portfolio roll-up for the overview endpoint.
type Summary struct {
	TotalValue   float64   `json:"total_value"`
	Holdings     []Holding `json:"holdings"`
	Transactions int       `json:"transactions"`
	AsOf         time.Time `json:"as_of"`
}

// Metrics are annualized performance statistics over the value history.
// Nil fields mean not enough history to compute.
type Metrics struct {
	TotalValue  float64  `json:"total_value"`
	CAGR        *float64 `json:"cagr"`
	Volatility  float64  `json:"volatility"`
	Sharpe      *float64 `json:"sharpe"`
	Sortino     *float64 `json:"sortino"`
	MaxDrawdown *float64 `json:"max_drawdown"`
	Days        int      `json:"days"`
}

// ValueSnapshot is one day's portfolio valuation, persisted by the snapshot
// job for long-run history.
type ValueSnapshot struct {
	Date       string             `json:"date" msgpack:"date"`
	TotalValue float64            `json:"total_value" msgpack:"total_value"`
	BySymbol   map[string]float64 `json:"by_symbol" msgpack:"by_symbol"`
}
