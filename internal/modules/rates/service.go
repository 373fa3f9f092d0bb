// Package rates assembles treasury and policy rate views from FRED series.
package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/domain"
)

// BasisPointMultiplier converts FRED percent observations to basis points.
const BasisPointMultiplier = 100

// coreRateOrder is the dashboard presentation order for the core snapshot.
var coreRateOrder = []string{
	"Fed Funds",
	"2Y Treasury",
	"5Y Treasury",
	"10Y Treasury",
	"30Y Treasury",
	"SOFR",
	"90D Avg SOFR",
	"5Y Swap",
	"10Y Breakeven Inflation",
}

// coreRateSeries maps snapshot labels to FRED series IDs.
var coreRateSeries = map[string]string{
	"Fed Funds":               "FEDFUNDS",
	"2Y Treasury":             "DGS2",
	"5Y Treasury":             "DGS5",
	"10Y Treasury":            "DGS10",
	"30Y Treasury":            "DGS30",
	"SOFR":                    "SOFR",
	"90D Avg SOFR":            "SOFR90DAYAVG",
	"5Y Swap":                 "DSWP5",
	"10Y Breakeven Inflation": "T10YIE",
}

// curveOrder lists yield-curve tenors short to long.
var curveOrder = []string{"3M", "2Y", "5Y", "10Y", "30Y"}

var curveSeries = map[string]string{
	"3M":  "DGS3MO",
	"2Y":  "DGS2",
	"5Y":  "DGS5",
	"10Y": "DGS10",
	"30Y": "DGS30",
}

// SeriesFetcher is the slice of the FRED client the service needs.
type SeriesFetcher interface {
	Series(ctx context.Context, seriesID string, start time.Time) (domain.Series, error)
}

// Frequency selects curve resampling granularity.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Service provides rate snapshots and yield-curve history.
type Service struct {
	fred SeriesFetcher
	log  zerolog.Logger
}

// NewService creates a new rates service.
func NewService(fred SeriesFetcher, log zerolog.Logger) *Service {
	return &Service{
		fred: fred,
		log:  log.With().Str("service", "rates").Logger(),
	}
}

// CoreRates returns the latest value and one-observation delta for each core
// rate. Series that fail upstream are skipped rather than failing the whole
// snapshot.
func (s *Service) CoreRates(ctx context.Context) ([]domain.Rate, error) {
	start := time.Now().AddDate(-1, 0, 0)

	out := make([]domain.Rate, 0, len(coreRateOrder))
	for _, label := range coreRateOrder {
		series, err := s.fred.Series(ctx, coreRateSeries[label], start)
		if err != nil {
			if domain.IsConfig(err) {
				return nil, err
			}
			s.log.Warn().Err(err).Str("label", label).Msg("Core rate unavailable")
			continue
		}
		value, delta, ok := series.LatestDelta()
		if !ok {
			continue
		}
		out = append(out, domain.Rate{Label: label, Value: value, Delta: delta})
	}
	return out, nil
}

// Curve returns the treasury yield curve tenors as an aligned table, resampled
// to freq and forward-filled across publication gaps.
func (s *Service) Curve(ctx context.Context, start time.Time, freq Frequency) (domain.Table, error) {
	table := domain.Table{
		Columns: curveOrder,
		Data:    make(map[string]domain.Series, len(curveOrder)),
	}

	for _, tenor := range curveOrder {
		series, err := s.fred.Series(ctx, curveSeries[tenor], start)
		if err != nil {
			if domain.IsConfig(err) {
				return domain.Table{}, err
			}
			s.log.Warn().Err(err).Str("tenor", tenor).Msg("Curve tenor unavailable")
			table.Data[tenor] = nil
			continue
		}
		switch freq {
		case FrequencyWeekly:
			series = series.ResampleWeekly()
		case FrequencyMonthly:
			series = series.ResampleMonthly()
		}
		table.Data[tenor] = series
	}

	return table.AlignForwardFill(), nil
}

// Treasury10Y returns the 10Y constant maturity yield in basis points.
func (s *Service) Treasury10Y(ctx context.Context, start time.Time) (domain.Series, error) {
	series, err := s.fred.Series(ctx, "DGS10", start)
	if err != nil {
		return nil, err
	}
	return series.Scale(BasisPointMultiplier), nil
}

// ParseFrequency maps a query-string value to a Frequency. Empty means
// daily; anything else unrecognized is a ParseError.
func ParseFrequency(raw string) (Frequency, error) {
	switch raw {
	case "", "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	default:
		return "", &domain.ParseError{Source: "rates", Err: fmt.Errorf("unknown frequency %q", raw)}
	}
}
