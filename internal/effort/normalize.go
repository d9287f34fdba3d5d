package effort

// Normalize converts raw effort magnitudes into percentages summing to 100.
// A zero (or empty) total yields all zeros rather than dividing by zero. No
// rounding redistribution is applied; small floating-point drift in the
// aggregate is acceptable. Every surface that displays a percentage (pie
// page, share page, Slack block text, chart images) must go through this
// function so all views agree.
func Normalize(magnitudes []float64) []float64 {
	out := make([]float64, len(magnitudes))

	var total float64
	for _, m := range magnitudes {
		total += m
	}
	if total == 0 {
		return out
	}

	for i, m := range magnitudes {
		out[i] = m / total * 100
	}
	return out
}

// Percentages returns the normalized share of each workstream.
func Percentages(workstreams []Workstream) []float64 {
	raw := make([]float64, len(workstreams))
	for i, ws := range workstreams {
		raw[i] = ws.Effort
	}
	return Normalize(raw)
}
