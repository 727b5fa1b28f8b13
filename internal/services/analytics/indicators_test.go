package analytics

import (
	"math"
	"testing"
)

func TestWilderRSIAllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	got, err := WilderRSI(closes, 14)
	if err != nil {
		t.Fatalf("rsi: %v", err)
	}
	if got != 100 {
		t.Fatalf("monotonic gains should give RSI 100, got %v", got)
	}
}

func TestWilderRSIBalanced(t *testing.T) {
	// Equal alternating gains and losses settle near 50.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
		if i%2 == 1 {
			closes[i] = 101
		}
	}
	got, err := WilderRSI(closes, 14)
	if err != nil {
		t.Fatalf("rsi: %v", err)
	}
	if got < 40 || got > 60 {
		t.Fatalf("balanced series RSI = %v, want near 50", got)
	}
}

func TestWilderRSITooFewCloses(t *testing.T) {
	if _, err := WilderRSI([]float64{1, 2, 3}, 14); err == nil {
		t.Fatalf("expected error for short series")
	}
}

func TestTrailingMean(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}
	got, err := TrailingMean(closes, 3)
	if err != nil {
		t.Fatalf("mean: %v", err)
	}
	if math.Abs(got-5) > 1e-9 {
		t.Fatalf("trailing mean = %v, want 5", got)
	}

	if _, err := TrailingMean(closes, 10); err == nil {
		t.Fatalf("expected error for short series")
	}
}
