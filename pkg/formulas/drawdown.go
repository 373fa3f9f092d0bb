package formulas

// MaxDrawdown calculates the maximum peak-to-trough loss of a value series
// as a positive fraction (0.25 = 25% loss from peak). Returns nil with
// fewer than two observations.
func MaxDrawdown(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}
	return &maxDrawdown
}
