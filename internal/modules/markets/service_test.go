package markets

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditdesk/creditdesk/internal/domain"
)

type fakeYahoo struct {
	history map[string]domain.Series
	quotes  map[string]domain.Quote
	ranges  map[string]string
}

func (f *fakeYahoo) History(_ context.Context, symbol, chartRange string) (domain.Series, error) {
	if f.ranges == nil {
		f.ranges = make(map[string]string)
	}
	f.ranges[symbol] = chartRange
	s, ok := f.history[symbol]
	if !ok {
		return nil, &domain.UpstreamError{Source: "yahoo", Err: context.DeadlineExceeded}
	}
	return s, nil
}

func (f *fakeYahoo) Quote(_ context.Context, symbol string) (*domain.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, &domain.UpstreamError{Source: "yahoo", Err: context.DeadlineExceeded}
	}
	return &q, nil
}

func (f *fakeYahoo) Quotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	out := make([]domain.Quote, 0, len(symbols))
	for _, s := range symbols {
		q, err := f.Quote(ctx, s)
		if err != nil {
			continue
		}
		out = append(out, *q)
	}
	return out, nil
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

func TestMoveDefaultsToMaxRange(t *testing.T) {
	yahoo := &fakeYahoo{history: map[string]domain.Series{
		"^MOVE": mkSeries(98.0, 101.5),
	}}

	svc := NewService(yahoo, zerolog.Nop())
	series, err := svc.Move(context.Background(), "")
	require.NoError(t, err)

	assert.Len(t, series, 2)
	assert.Equal(t, "max", yahoo.ranges["^MOVE"])
}

func TestCDSProxyUsesLQD(t *testing.T) {
	yahoo := &fakeYahoo{history: map[string]domain.Series{
		"LQD": mkSeries(108.1, 108.5),
	}}

	svc := NewService(yahoo, zerolog.Nop())
	series, err := svc.CDSProxy(context.Background(), "5y")
	require.NoError(t, err)

	assert.Len(t, series, 2)
	assert.Equal(t, "5y", yahoo.ranges["LQD"])
}

func TestCompareRebasesTo100(t *testing.T) {
	yahoo := &fakeYahoo{history: map[string]domain.Series{
		"LQD": mkSeries(100.0, 110.0),
		"HYG": mkSeries(50.0, 45.0),
	}}

	svc := NewService(yahoo, zerolog.Nop())
	table, err := svc.Compare(context.Background(), []string{"lqd", " hyg "}, "1y")
	require.NoError(t, err)

	assert.Equal(t, []string{"LQD", "HYG"}, table.Columns)
	assert.Equal(t, 100.0, table.Data["LQD"][0].Value)
	assert.InDelta(t, 110.0, table.Data["LQD"][1].Value, 1e-9)
	assert.Equal(t, 100.0, table.Data["HYG"][0].Value)
	assert.InDelta(t, 90.0, table.Data["HYG"][1].Value, 1e-9)
}

func TestCompareSkipsFailedSymbols(t *testing.T) {
	yahoo := &fakeYahoo{history: map[string]domain.Series{
		"LQD": mkSeries(100.0, 101.0),
	}}

	svc := NewService(yahoo, zerolog.Nop())
	table, err := svc.Compare(context.Background(), []string{"LQD", "MISSING"}, "1y")
	require.NoError(t, err)

	assert.Equal(t, []string{"LQD"}, table.Columns)
}

func TestQuotesDefaultWatchlist(t *testing.T) {
	yahoo := &fakeYahoo{quotes: map[string]domain.Quote{
		"^MOVE": {Symbol: "^MOVE", Price: 101.5},
		"LQD":   {Symbol: "LQD", Price: 108.5},
		"HYG":   {Symbol: "HYG", Price: 77.2},
		"SPY":   {Symbol: "SPY", Price: 512.0},
		"TLT":   {Symbol: "TLT", Price: 94.3},
	}}

	svc := NewService(yahoo, zerolog.Nop())
	snapshot, err := svc.Quotes(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, snapshot.Quotes, 5)
	assert.Equal(t, "^MOVE", snapshot.Quotes[0].Symbol)
	assert.False(t, snapshot.AsOf.IsZero())
}
