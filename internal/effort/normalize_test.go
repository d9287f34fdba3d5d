package effort

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"already percentages", []float64{60, 40}, []float64{60, 40}},
		{"thirds", []float64{1, 1, 1}, []float64{100.0 / 3, 100.0 / 3, 100.0 / 3}},
		{"over 100", []float64{50, 50, 100}, []float64{25, 25, 50}},
		{"under 100", []float64{1, 3}, []float64{25, 75}},
		{"all zeros", []float64{0, 0}, []float64{0, 0}},
		{"single", []float64{7}, []float64{100}},
		{"empty", nil, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Normalize(%v) returned %d values, want %d", tt.in, len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("Normalize(%v)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeSumsTo100(t *testing.T) {
	inputs := [][]float64{
		{60, 40},
		{1, 1, 1},
		{0.1, 0.2, 0.7},
		{123.4, 5.6, 78.9, 0.01},
	}
	for _, in := range inputs {
		var sum float64
		for _, v := range Normalize(in) {
			sum += v
		}
		if math.Abs(sum-100) > 1e-9 {
			t.Errorf("Normalize(%v) sums to %v, want 100", in, sum)
		}
	}
}

func TestPercentagesUsesRawMagnitudes(t *testing.T) {
	workstreams := []Workstream{
		{Name: "Engineering", Effort: 30},
		{Name: "Design", Effort: 10},
	}
	got := Percentages(workstreams)
	if got[0] != 75 || got[1] != 25 {
		t.Errorf("Percentages = %v, want [75 25]", got)
	}
}
