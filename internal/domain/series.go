// Package domain holds the core data shapes shared by clients, modules and
// handlers: time series, quote snapshots, news items and the error taxonomy.
// The package is pure - no infrastructure dependencies.
package domain

import (
	"sort"
	"time"
)

// Point is a single observation in a time series.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is an ordered sequence of observations for one indicator.
// Invariants: timestamps are strictly ascending and unique, and none are in
// the future. NewSeries enforces all three.
type Series []Point

// NewSeries builds a Series from unordered points: sorts by timestamp,
// keeps the last value for duplicate timestamps, and drops future-dated
// observations.
func NewSeries(points []Point) Series {
	now := time.Now()
	sorted := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Time.After(now) {
			continue
		}
		sorted = append(sorted, p)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	out := sorted[:0]
	for _, p := range sorted {
		if len(out) > 0 && out[len(out)-1].Time.Equal(p.Time) {
			out[len(out)-1] = p // last observation wins
			continue
		}
		out = append(out, p)
	}
	return Series(out)
}

// Latest returns the most recent observation, or false when empty.
func (s Series) Latest() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// LatestDelta returns the latest value and its change versus the prior
// observation. With a single observation the delta is zero; with none,
// ok is false.
func (s Series) LatestDelta() (value, delta float64, ok bool) {
	switch len(s) {
	case 0:
		return 0, 0, false
	case 1:
		return s[0].Value, 0, true
	default:
		last, prev := s[len(s)-1], s[len(s)-2]
		return last.Value, last.Value - prev.Value, true
	}
}

// Scale multiplies every value by factor and returns a new Series.
// Used to convert percent to basis points (factor 100).
func (s Series) Scale(factor float64) Series {
	out := make(Series, len(s))
	for i, p := range s {
		out[i] = Point{Time: p.Time, Value: p.Value * factor}
	}
	return out
}

// Rebase normalizes the series so the first value equals base (typically
// 100), for relative-performance comparison. An empty series or a zero
// first value returns the series unchanged.
func (s Series) Rebase(base float64) Series {
	if len(s) == 0 || s[0].Value == 0 {
		return s
	}
	out := make(Series, len(s))
	first := s[0].Value
	for i, p := range s {
		out[i] = Point{Time: p.Time, Value: p.Value / first * base}
	}
	return out
}

// Clip drops observations before from.
func (s Series) Clip(from time.Time) Series {
	i := sort.Search(len(s), func(i int) bool {
		return !s[i].Time.Before(from)
	})
	return s[i:]
}

// Values returns the raw value slice, oldest first.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// ResampleWeekly buckets observations into weeks ending Friday, keeping the
// last observation of each bucket. Bucket timestamps are the Friday date.
func (s Series) ResampleWeekly() Series {
	return s.resample(func(t time.Time) time.Time {
		// Days until the next Friday (0 if t is a Friday).
		days := (time.Friday - t.Weekday() + 7) % 7
		f := t.AddDate(0, 0, int(days))
		return time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, t.Location())
	})
}

// ResampleMonthly buckets observations into calendar months, keeping the
// last observation of each. Bucket timestamps are the last day of the month.
func (s Series) ResampleMonthly() Series {
	return s.resample(func(t time.Time) time.Time {
		firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
		return firstOfNext.AddDate(0, 0, -1)
	})
}

func (s Series) resample(bucket func(time.Time) time.Time) Series {
	if len(s) == 0 {
		return s
	}
	out := make(Series, 0, len(s))
	for _, p := range s {
		b := bucket(p.Time)
		if len(out) > 0 && out[len(out)-1].Time.Equal(b) {
			out[len(out)-1].Value = p.Value
			continue
		}
		out = append(out, Point{Time: b, Value: p.Value})
	}
	// Resampling can push the final bucket label past "now"; NewSeries
	// invariants do not apply to bucket labels, so keep them.
	return out
}

// Table is a set of named series sharing one domain, e.g. OAS by rating.
// Order of Columns is presentation order; Data is keyed by column name.
type Table struct {
	Columns []string          `json:"columns"`
	Data    map[string]Series `json:"data"`
}

// AlignForwardFill aligns all columns on the union of their timestamps and
// forward-fills gaps with each column's previous value. Timestamps before a
// column's first observation stay absent for that column.
func (t Table) AlignForwardFill() Table {
	seen := make(map[time.Time]bool)
	var stamps []time.Time
	for _, col := range t.Columns {
		for _, p := range t.Data[col] {
			if !seen[p.Time] {
				seen[p.Time] = true
				stamps = append(stamps, p.Time)
			}
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	out := Table{Columns: t.Columns, Data: make(map[string]Series, len(t.Columns))}
	for _, col := range t.Columns {
		src := t.Data[col]
		filled := make(Series, 0, len(stamps))
		i := 0
		var last float64
		started := false
		for _, ts := range stamps {
			for i < len(src) && !src[i].Time.After(ts) {
				last = src[i].Value
				started = true
				i++
			}
			if started {
				filled = append(filled, Point{Time: ts, Value: last})
			}
		}
		out.Data[col] = filled
	}
	return out
}
