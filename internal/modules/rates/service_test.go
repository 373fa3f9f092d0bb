package rates

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
	calls  []string
}

func (f *fakeFred) Series(_ context.Context, seriesID string, _ time.Time) (domain.Series, error) {
	f.calls = append(f.calls, seriesID)
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

func TestCoreRatesLatestAndDelta(t *testing.T) {
	fred := &fakeFred{series: map[string]domain.Series{
		"FEDFUNDS":     mkSeries(5.33, 5.33),
		"DGS2":         mkSeries(4.60, 4.71),
		"DGS5":         mkSeries(4.20, 4.25),
		"DGS10":        mkSeries(4.20, 4.30),
		"DGS30":        mkSeries(4.40, 4.45),
		"SOFR":         mkSeries(5.31, 5.32),
		"SOFR90DAYAVG": mkSeries(5.34, 5.34),
		"DSWP5":        mkSeries(3.90, 3.95),
		"T10YIE":       mkSeries(2.30, 2.32),
	}}

	svc := NewService(fred, zerolog.Nop())
	rates, err := svc.CoreRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 9)

	assert.Equal(t, "Fed Funds", rates[0].Label)
	assert.Equal(t, 5.33, rates[0].Value)
	assert.Equal(t, 0.0, rates[0].Delta)

	assert.Equal(t, "2Y Treasury", rates[1].Label)
	assert.Equal(t, 4.71, rates[1].Value)
	assert.InDelta(t, 0.11, rates[1].Delta, 1e-9)
}

func TestCoreRatesSkipsFailedSeries(t *testing.T) {
	fred := &fakeFred{series: map[string]domain.Series{
		"FEDFUNDS": mkSeries(5.33, 5.33),
	}}

	svc := NewService(fred, zerolog.Nop())
	rates, err := svc.CoreRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "Fed Funds", rates[0].Label)
}

func TestCoreRatesPropagatesConfigError(t *testing.T) {
	fred := &fakeFred{err: &domain.ConfigError{Key: "FRED_API_KEY"}}

	svc := NewService(fred, zerolog.Nop())
	_, err := svc.CoreRates(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsConfig(err))
}

func TestCurveAlignsTenors(t *testing.T) {
	fred := &fakeFred{series: map[string]domain.Series{
		"DGS3MO": mkSeries(5.40, 5.41, 5.42),
		"DGS2":   mkSeries(4.60, 4.65, 4.71),
		"DGS5":   mkSeries(4.20, 4.22, 4.25),
		// 10Y missing its middle observation
		"DGS10": domain.NewSeries([]domain.Point{
			{Time: day(1), Value: 4.20},
			{Time: day(3), Value: 4.30},
		}),
		"DGS30": mkSeries(4.40, 4.42, 4.45),
	}}

	svc := NewService(fred, zerolog.Nop())
	table, err := svc.Curve(context.Background(), day(1), FrequencyDaily)
	require.NoError(t, err)

	assert.Equal(t, []string{"3M", "2Y", "5Y", "10Y", "30Y"}, table.Columns)

	ten := table.Data["10Y"]
	require.Len(t, ten, 3)
	// gap forward-filled from the day-1 observation
	assert.Equal(t, 4.20, ten[1].Value)
	assert.Equal(t, 4.30, ten[2].Value)
}

func TestCurveMonthlyResample(t *testing.T) {
	points := domain.Series{}
	for d := 1; d <= 28; d++ {
		points = append(points, domain.Point{Time: day(d), Value: 4.0 + float64(d)/100})
	}
	fred := &fakeFred{series: map[string]domain.Series{
		"DGS3MO": domain.NewSeries(points),
		"DGS2":   domain.NewSeries(points),
		"DGS5":   domain.NewSeries(points),
		"DGS10":  domain.NewSeries(points),
		"DGS30":  domain.NewSeries(points),
	}}

	svc := NewService(fred, zerolog.Nop())
	table, err := svc.Curve(context.Background(), day(1), FrequencyMonthly)
	require.NoError(t, err)

	require.Len(t, table.Data["2Y"], 1)
	assert.Equal(t, 4.28, table.Data["2Y"][0].Value)
}

func TestTreasury10YInBasisPoints(t *testing.T) {
	fred := &fakeFred{series: map[string]domain.Series{
		"DGS10": mkSeries(4.20, 4.30),
	}}

	svc := NewService(fred, zerolog.Nop())
	series, err := svc.Treasury10Y(context.Background(), day(1))
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, 420.0, series[0].Value)
	assert.Equal(t, 430.0, series[1].Value)
}

func TestParseFrequency(t *testing.T) {
	for raw, want := range map[string]Frequency{
		"":        FrequencyDaily,
		"daily":   FrequencyDaily,
		"weekly":  FrequencyWeekly,
		"monthly": FrequencyMonthly,
	} {
		freq, err := ParseFrequency(raw)
		require.NoError(t, err)
		assert.Equal(t, want, freq)
	}

	_, err := ParseFrequency("hourly")
	require.Error(t, err)
	assert.True(t, domain.IsParse(err))
	assert.Contains(t, err.Error(), "hourly")
}
