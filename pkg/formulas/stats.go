// Package formulas provides the financial calculations used by the
// portfolio tracker and the quant tools: return series, volatility,
// risk-adjusted ratios and drawdown analysis.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization basis for daily data.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Returns converts a price series to simple periodic returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			out[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return out
}

// AnnualizedVolatility calculates annualized volatility from daily returns:
// stddev of daily returns times sqrt(252).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CAGR calculates the compound annual growth rate between the first and
// last value of a series spanning the given number of days.
// Returns nil when the inputs cannot produce a meaningful rate.
func CAGR(startValue, endValue float64, days int) *float64 {
	if startValue <= 0 || endValue <= 0 || days <= 0 {
		return nil
	}
	years := float64(days) / 365.25
	cagr := math.Pow(endValue/startValue, 1/years) - 1
	return &cagr
}
