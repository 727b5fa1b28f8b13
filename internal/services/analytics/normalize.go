package analytics

// Calibration curves mapping raw factor values onto [0,1]. All curves are
// asset-independent; asset-specific calibration lives only in the regression
// deviation bounds.

// Clamp01 clamps v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizeMomentum maps an RSI-style momentum value: 30 -> 0.0, 70 -> 1.0,
// linear and clamped.
func NormalizeMomentum(v float64) float64 {
	return Clamp01((v - 30) / 40)
}

// NormalizeFunding maps a funding rate linearly over [-0.001, +0.001].
func NormalizeFunding(rate float64) float64 {
	return Clamp01((rate + 0.001) / 0.002)
}

// NormalizeSentiment maps a 0-100 sentiment index onto [0,1].
func NormalizeSentiment(v float64) float64 {
	return Clamp01(v / 100)
}

// NormalizeTrendDistance maps the percent distance from the trend line through
// a 6-bucket step function.
func NormalizeTrendDistance(pct float64) float64 {
	switch {
	case pct <= -15:
		return 0.0
	case pct <= -5:
		return 0.2
	case pct <= 0:
		return 0.4
	case pct <= 5:
		return 0.6
	case pct <= 15:
		return 0.8
	default:
		return 1.0
	}
}

// NormalizeMacroDollar maps the dollar index over the [95, 110] band.
func NormalizeMacroDollar(v float64) float64 {
	return Clamp01((v - 95) / 15)
}

// NormalizeMacroYield maps the 10-year yield (percent) over the [0, 5] band.
func NormalizeMacroYield(v float64) float64 {
	return Clamp01(v / 5)
}

// MacroRisk averages whichever macro indices are present. The second return
// is false when neither is available.
func MacroRisk(dollar, yield *float64) (float64, bool) {
	switch {
	case dollar != nil && yield != nil:
		return (NormalizeMacroDollar(*dollar) + NormalizeMacroYield(*yield)) / 2, true
	case dollar != nil:
		return NormalizeMacroDollar(*dollar), true
	case yield != nil:
		return NormalizeMacroYield(*yield), true
	default:
		return 0, false
	}
}

// PercentDistance returns the percent distance of price from mean.
func PercentDistance(price, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return (price - mean) / mean * 100
}
