package analytics

import (
	"math"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/pkg/util"
)

// MinRegressionPoints is the minimum number of valid points for a fit.
const MinRegressionPoints = 10

// FitLogLog fits log10(price) = intercept + slope*log10(days since origin) by
// ordinary least squares. Only points with positive price and positive
// days-since-origin participate. Returns ErrDataInsufficient below
// MinRegressionPoints valid points.
func FitLogLog(points []models.PricePoint, origin time.Time) (*models.RegressionModel, error) {
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		days := util.DaysBetween(origin, p.Date)
		if p.Price <= 0 || days <= 0 {
			continue
		}
		xs = append(xs, math.Log10(float64(days)))
		ys = append(ys, math.Log10(p.Price))
	}

	n := len(xs)
	if n < MinRegressionPoints {
		return nil, models.ErrDataInsufficient
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return nil, models.ErrDataInsufficient
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	// R² in the same log-log space.
	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		pred := intercept + slope*xs[i]
		r := ys[i] - pred
		ssRes += r * r
		d := ys[i] - meanY
		ssTot += d * d
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	} else if ssRes == 0 {
		r2 = 1
	}
	r2 = Clamp01(r2)

	return &models.RegressionModel{
		Slope:     slope,
		Intercept: intercept,
		R2:        r2,
		Origin:    origin,
		Points:    n,
	}, nil
}

// FairValueAt returns the model-implied price at date, or 0 when date does not
// fall after the origin.
func FairValueAt(m *models.RegressionModel, date time.Time) float64 {
	days := util.DaysBetween(m.Origin, date)
	if days <= 0 {
		return 0
	}
	return math.Pow(10, m.Intercept+m.Slope*math.Log10(float64(days)))
}

// Deviation is the log-scale distance between actual price and fair value.
func Deviation(price, fairValue float64) float64 {
	if price <= 0 || fairValue <= 0 {
		return 0
	}
	return math.Log10(price) - math.Log10(fairValue)
}

// RiskLevel maps a deviation onto [0,1] using asset-specific bounds.
func RiskLevel(deviation, low, high float64) float64 {
	if high <= low {
		return 0
	}
	return Clamp01((deviation - low) / (high - low))
}
