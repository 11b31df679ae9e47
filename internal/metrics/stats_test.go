package metrics

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5.0}, 5.0},
		{"multiple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"all_same", []float64{7, 7, 7}, 7.0},
		{"negative", []float64{-2, 0, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("Mean(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestVariance(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5.0}, 0},
		{"uniform", []float64{3, 3, 3}, 0},
		{"simple", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 4.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Variance(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("Variance(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestStdDev(t *testing.T) {
	if got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}); !approxEqual(got, 2.0) {
		t.Errorf("StdDev = %f, want 2", got)
	}
	if got := StdDev(nil); got != 0 {
		t.Errorf("StdDev(nil) = %f, want 0", got)
	}
}

func TestHerfindahl(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		expect float64
	}{
		{"empty", nil, 0},
		{"all_zero", map[string]int{"a": 0, "b": 0}, 0},
		{"single_key", map[string]int{"a": 7}, 1},
		{"uniform_four", map[string]int{"a": 2, "b": 2, "c": 2, "d": 2}, 0.25},
		{"skewed", map[string]int{"a": 3, "b": 1}, 0.625},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Herfindahl(tt.counts)
			if !approxEqual(got, tt.expect) {
				t.Errorf("Herfindahl(%v) = %f, want %f", tt.counts, got, tt.expect)
			}
		})
	}
}

func TestHerfindahlBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		counts := rapid.MapOfN(rapid.StringMatching(`[a-e]`), rapid.IntRange(1, 50), 1, 5).Draw(t, "counts")
		h := Herfindahl(counts)
		k := float64(len(counts))
		if h < 1/k-epsilon || h > 1+epsilon {
			t.Fatalf("Herfindahl(%v) = %f outside [1/%v, 1]", counts, h, k)
		}
	})
}

func TestHerfindahlUniformIsOneOverK(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(1, 12).Draw(t, "k")
		n := rapid.IntRange(1, 20).Draw(t, "n")
		counts := make(map[string]int, k)
		for i := 0; i < k; i++ {
			counts[string(rune('a'+i))] = n
		}
		if got := Herfindahl(counts); !approxEqual(got, 1/float64(k)) {
			t.Fatalf("Herfindahl uniform over %d = %f", k, got)
		}
	})
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		expect float64
	}{
		{0.33333, 3, 0.333},
		{0.6666, 1, 0.7},
		{2.25, 1, 2.3},
		{42, 0, 42},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.places); !approxEqual(got, tt.expect) {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.expect)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(1, 4); !approxEqual(got, 25) {
		t.Errorf("Percent(1, 4) = %v, want 25", got)
	}
	if got := Percent(3, 0); got != 0 {
		t.Errorf("Percent(3, 0) = %v, want 0", got)
	}
}
