// Package spreads assembles corporate credit spread views from ICE BofA
// option-adjusted spread and effective yield series on FRED.
package spreads

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/domain"
)

// BasisPointMultiplier converts FRED percent observations to basis points.
const BasisPointMultiplier = 100

// indexOrder is the presentation order for the index OAS snapshot.
var indexOrder = []string{"IG OAS", "HY OAS"}

var indexSeries = map[string]string{
	"IG OAS": "BAMLC0A0CM",
	"HY OAS": "BAMLH0A0HYM2",
}

var ratingOrder = []string{
	"AAA OAS", "AA OAS", "A OAS", "BBB OAS", "BB OAS", "B OAS", "CCC OAS",
}

var ratingSeries = map[string]string{
	"AAA OAS": "BAMLC0A1CAAA",
	"AA OAS":  "BAMLC0A2CAA",
	"A OAS":   "BAMLC0A3CA",
	"BBB OAS": "BAMLC0A4CBBB",
	"BB OAS":  "BAMLH0A1HYBB",
	"B OAS":   "BAMLH0A2HYB",
	"CCC OAS": "BAMLH0A3HYC",
}

var yieldOrder = []string{"AAA", "AA", "A", "BBB", "BB", "B", "CCC & Below"}

var yieldSeries = map[string]string{
	"AAA":         "BAMLC0A1CAAAEY",
	"AA":          "BAMLC0A2CAAEY",
	"A":           "BAMLC0A3CAEY",
	"BBB":         "BAMLC0A4CBBBEY",
	"BB":          "BAMLH0A1HYBBEY",
	"B":           "BAMLH0A2HYBEY",
	"CCC & Below": "BAMLH0A3HYCEY",
}

// SeriesFetcher is the slice of the FRED client the service needs.
type SeriesFetcher interface {
	Series(ctx context.Context, seriesID string, start time.Time) (domain.Series, error)
}

// Service provides credit spread snapshots and history.
type Service struct {
	fred SeriesFetcher
	log  zerolog.Logger
}

// NewService creates a new spreads service.
func NewService(fred SeriesFetcher, log zerolog.Logger) *Service {
	return &Service{
		fred: fred,
		log:  log.With().Str("service", "spreads").Logger(),
	}
}

// IndexOAS returns the latest IG and HY index OAS in basis points with
// one-observation deltas. A single observation yields a zero delta.
func (s *Service) IndexOAS(ctx context.Context, start time.Time) ([]domain.Rate, error) {
	out := make([]domain.Rate, 0, len(indexOrder))
	for _, label := range indexOrder {
		series, err := s.fred.Series(ctx, indexSeries[label], start)
		if err != nil {
			if domain.IsConfig(err) {
				return nil, err
			}
			s.log.Warn().Err(err).Str("label", label).Msg("Index OAS unavailable")
			continue
		}
		value, delta, ok := series.LatestDelta()
		if !ok {
			continue
		}
		out = append(out, domain.Rate{
			Label: label,
			Value: value * BasisPointMultiplier,
			Delta: delta * BasisPointMultiplier,
		})
	}
	return out, nil
}

// History returns IG and HY OAS history in basis points, aligned and
// forward-filled.
func (s *Service) History(ctx context.Context, start time.Time) (domain.Table, error) {
	return s.table(ctx, indexOrder, indexSeries, start, false)
}

// ByRating returns OAS history per rating bucket in basis points.
func (s *Service) ByRating(ctx context.Context, start time.Time) (domain.Table, error) {
	return s.table(ctx, ratingOrder, ratingSeries, start, false)
}

// YieldsByRating returns effective yields per rating bucket in basis points,
// resampled to weekly Friday observations.
func (s *Service) YieldsByRating(ctx context.Context, start time.Time) (domain.Table, error) {
	return s.table(ctx, yieldOrder, yieldSeries, start, true)
}

func (s *Service) table(ctx context.Context, order []string, ids map[string]string, start time.Time, weekly bool) (domain.Table, error) {
	table := domain.Table{
		Columns: order,
		Data:    make(map[string]domain.Series, len(order)),
	}
	for _, label := range order {
		series, err := s.fred.Series(ctx, ids[label], start)
		if err != nil {
			if domain.IsConfig(err) {
				return domain.Table{}, err
			}
			s.log.Warn().Err(err).Str("label", label).Msg("Spread series unavailable")
			table.Data[label] = nil
			continue
		}
		series = series.Scale(BasisPointMultiplier)
		if weekly {
			series = series.ResampleWeekly()
		}
		table.Data[label] = series
	}
	return table.AlignForwardFill(), nil
}
