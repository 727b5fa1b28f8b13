package analytics

import (
	"fmt"

	"RiskPulse/internal/domain/models"
)

// Local recurrence-based fallbacks for the rate-limited indicator provider.

// WilderRSI computes the relative strength index over closes using Wilder's
// smoothed average gain/loss recurrence. Needs at least period+1 closes.
func WilderRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("rsi: period must be positive")
	}
	if len(closes) < period+1 {
		return 0, fmt.Errorf("rsi: need %d closes, have %d", period+1, len(closes))
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// TrailingMean is the arithmetic mean of the last window closes.
func TrailingMean(closes []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, fmt.Errorf("trailing mean: window must be positive")
	}
	if len(closes) < window {
		return 0, fmt.Errorf("trailing mean: need %d closes, have %d", window, len(closes))
	}
	var sum float64
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window), nil
}

// Closes extracts close prices from candles, preserving order.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
