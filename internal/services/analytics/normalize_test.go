package analytics

import (
	"math"
	"testing"
)

func TestNormalizeMomentum(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{30, 0.0},
		{70, 1.0},
		{50, 0.5},
		{75, 1.0}, // clamped above 70
		{10, 0.0}, // clamped below 30
	}
	for _, tt := range tests {
		if got := NormalizeMomentum(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("NormalizeMomentum(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeFunding(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.0005, 0.75},
		{-0.001, 0.0},
		{0.001, 1.0},
		{0.0, 0.5},
		{0.01, 1.0},
	}
	for _, tt := range tests {
		if got := NormalizeFunding(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("NormalizeFunding(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeSentiment(t *testing.T) {
	if got := NormalizeSentiment(75); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("NormalizeSentiment(75) = %v", got)
	}
	if got := NormalizeSentiment(150); got != 1.0 {
		t.Fatalf("expected clamp at 1.0, got %v", got)
	}
}

func TestNormalizeTrendDistanceBuckets(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-20, 0.0},
		{-15, 0.0},
		{-10, 0.2},
		{-2, 0.4},
		{0, 0.4},
		{3, 0.6},
		{10, 0.8},
		{15, 0.8},
		{16, 1.0},
	}
	for _, tt := range tests {
		if got := NormalizeTrendDistance(tt.in); got != tt.want {
			t.Fatalf("NormalizeTrendDistance(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMacroRisk(t *testing.T) {
	dollar := 102.5 // -> 0.5
	yield := 2.5    // -> 0.5

	if _, ok := MacroRisk(nil, nil); ok {
		t.Fatalf("expected unavailable with no indices")
	}

	got, ok := MacroRisk(&dollar, nil)
	if !ok || math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("dollar only = %v (%v)", got, ok)
	}

	got, ok = MacroRisk(&dollar, &yield)
	if !ok || math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("averaged = %v (%v)", got, ok)
	}
}

func TestPercentDistance(t *testing.T) {
	if got := PercentDistance(110, 100); math.Abs(got-10) > 1e-9 {
		t.Fatalf("PercentDistance = %v, want 10", got)
	}
	if got := PercentDistance(100, 0); got != 0 {
		t.Fatalf("zero mean should yield 0, got %v", got)
	}
}
