package spreads

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditdesk/creditdesk/internal/domain"
)

type fakeFred struct {
	series map[string]domain.Series
	err    error
}

func (f *fakeFred) Series(_ context.Context, seriesID string, _ time.Time) (domain.Series, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.series[seriesID]
	if !ok {
		return nil, &domain.UpstreamError{Source: "fred", Err: context.DeadlineExceeded}
	}
	return s, nil
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func mkSeries(values ...float64) domain.Series {
	points := make([]domain.Point, len(values))
	for i, v := range values {
		points[i] = domain.Point{Time: day(i + 1), Value: v}
	}
	return domain.NewSeries(points)
}

func TestIndexOASScalesToBasisPoints(t *testing.T) {
	fred := &fakeFred{series: map[string]domain.Series{
		"BAMLC0A0CM":   mkSeries(0.95, 0.93),
		"BAMLH0A0HYM2": mkSeries(3.20, 3.35),
	}}

	svc := NewService(fred, zerolog.Nop())
	rates, err := svc.IndexOAS(context.Background(), day(1))
	require.NoError(t, err)
	require.Len(t, rates, 2)

	assert.Equal(t, "IG OAS", rates[0].Label)
	assert.InDelta(t, 93.0, rates[0].Value, 1e-9)
	assert.InDelta(t, -2.0, rates[0].Delta, 1e-9)

	assert.Equal(t, "HY OAS", rates[1].Label)
	assert.InDelta(t, 335.0, rates[1].Value, 1e-9)
	assert.InDelta(t, 15.0, rates[1].Delta, 1e-9)
}

func TestIndexOASSingleObservationZeroDelta(t *testing.T) {
	fred := &fakeFred{series: map[string]domain.Series{
		"BAMLC0A0CM":   mkSeries(0.95),
		"BAMLH0A0HYM2": mkSeries(3.20),
	}}

	svc := NewService(fred, zerolog.Nop())
	rates, err := svc.IndexOAS(context.Background(), day(1))
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, 0.0, rates[0].Delta)
}

func TestIndexOASPropagatesConfigError(t *testing.T) {
	fred := &fakeFred{err: &domain.ConfigError{Key: "FRED_API_KEY"}}

	svc := NewService(fred, zerolog.Nop())
	_, err := svc.IndexOAS(context.Background(), day(1))
	require.Error(t, err)
	assert.True(t, domain.IsConfig(err))
}

func TestHistoryForwardFills(t *testing.T) {
	fred := &fakeFred{series: map[string]domain.Series{
		"BAMLC0A0CM": mkSeries(0.95, 0.94, 0.93),
		"BAMLH0A0HYM2": domain.NewSeries([]domain.Point{
			{Time: day(1), Value: 3.20},
			{Time: day(3), Value: 3.30},
		}),
	}}

	svc := NewService(fred, zerolog.Nop())
	table, err := svc.History(context.Background(), day(1))
	require.NoError(t, err)

	assert.Equal(t, []string{"IG OAS", "HY OAS"}, table.Columns)

	hy := table.Data["HY OAS"]
	require.Len(t, hy, 3)
	assert.InDelta(t, 320.0, hy[0].Value, 1e-9)
	assert.InDelta(t, 320.0, hy[1].Value, 1e-9)
	assert.InDelta(t, 330.0, hy[2].Value, 1e-9)
}

func TestByRatingColumns(t *testing.T) {
	series := map[string]domain.Series{}
	for _, sid := range []string{
		"BAMLC0A1CAAA", "BAMLC0A2CAA", "BAMLC0A3CA", "BAMLC0A4CBBB",
		"BAMLH0A1HYBB", "BAMLH0A2HYB", "BAMLH0A3HYC",
	} {
		series[sid] = mkSeries(1.0, 1.1)
	}
	fred := &fakeFred{series: series}

	svc := NewService(fred, zerolog.Nop())
	table, err := svc.ByRating(context.Background(), day(1))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA OAS", "AA OAS", "A OAS", "BBB OAS", "BB OAS", "B OAS", "CCC OAS"}, table.Columns)
	assert.InDelta(t, 110.0, table.Data["BBB OAS"][1].Value, 1e-9)
}

func TestYieldsByRatingWeeklyFriday(t *testing.T) {
	// Mon 2024-03-04 through Fri 2024-03-08, then Mon 2024-03-11
	points := domain.Series{
		{Time: day(4), Value: 5.0},
		{Time: day(5), Value: 5.1},
		{Time: day(8), Value: 5.3},
		{Time: day(11), Value: 5.4},
	}
	series := map[string]domain.Series{}
	for _, sid := range []string{
		"BAMLC0A1CAAAEY", "BAMLC0A2CAAEY", "BAMLC0A3CAEY", "BAMLC0A4CBBBEY",
		"BAMLH0A1HYBBEY", "BAMLH0A2HYBEY", "BAMLH0A3HYCEY",
	} {
		series[sid] = domain.NewSeries(points)
	}
	fred := &fakeFred{series: series}

	svc := NewService(fred, zerolog.Nop())
	table, err := svc.YieldsByRating(context.Background(), day(1))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "AA", "A", "BBB", "BB", "B", "CCC & Below"}, table.Columns)

	aaa := table.Data["AAA"]
	require.Len(t, aaa, 2)
	// week of Mar 4 collapses to the Friday observation in bp
	assert.Equal(t, time.Friday, aaa[0].Time.Weekday())
	assert.InDelta(t, 530.0, aaa[0].Value, 1e-9)
	assert.InDelta(t, 540.0, aaa[1].Value, 1e-9)
}

func TestTableSkipsFailedColumn(t *testing.T) {
	fred := &fakeFred{series: map[string]domain.Series{
		"BAMLC0A0CM": mkSeries(0.95, 0.94),
	}}

	svc := NewService(fred, zerolog.Nop())
	table, err := svc.History(context.Background(), day(1))
	require.NoError(t, err)

	assert.Len(t, table.Data["IG OAS"], 2)
	assert.Empty(t, table.Data["HY OAS"])
}
