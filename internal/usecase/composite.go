package usecase

import (
	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/services/analytics"
)

// Configured factor weights before renormalization. The regression factor
// dominates; the five supplementary signals refine it.
var factorWeights = map[models.FactorType]float64{
	models.FactorRegression: 0.5,
	models.FactorMomentum:   0.1,
	models.FactorTrend:      0.1,
	models.FactorFunding:    0.1,
	models.FactorSentiment:  0.1,
	models.FactorMacro:      0.1,
}

// ComposeMultiFactor blends a regression risk point with the supplementary
// factor bundle. The regression result is a hard dependency and is assumed
// valid here; missing supplementary factors are marked unavailable and their
// weight redistributed so the remaining weights sum to 1.
func ComposeMultiFactor(base models.RiskHistoryPoint, data *models.RiskFactorData) models.MultiFactorRiskPoint {
	factors := []models.RiskFactor{
		{
			Type:       models.FactorRegression,
			Raw:        base.Deviation,
			Normalized: base.RiskLevel,
			Weight:     factorWeights[models.FactorRegression],
			Available:  true,
		},
	}

	if data != nil {
		if data.Momentum != nil {
			factors = append(factors, models.RiskFactor{
				Type:       models.FactorMomentum,
				Raw:        *data.Momentum,
				Normalized: analytics.NormalizeMomentum(*data.Momentum),
				Weight:     factorWeights[models.FactorMomentum],
				Available:  true,
			})
		}
		if data.TrendDistancePct != nil {
			factors = append(factors, models.RiskFactor{
				Type:       models.FactorTrend,
				Raw:        *data.TrendDistancePct,
				Normalized: analytics.NormalizeTrendDistance(*data.TrendDistancePct),
				Weight:     factorWeights[models.FactorTrend],
				Available:  true,
			})
		}
		if data.FundingRate != nil {
			factors = append(factors, models.RiskFactor{
				Type:       models.FactorFunding,
				Raw:        *data.FundingRate,
				Normalized: analytics.NormalizeFunding(*data.FundingRate),
				Weight:     factorWeights[models.FactorFunding],
				Available:  true,
			})
		}
		if data.Sentiment != nil {
			factors = append(factors, models.RiskFactor{
				Type:       models.FactorSentiment,
				Raw:        *data.Sentiment,
				Normalized: analytics.NormalizeSentiment(*data.Sentiment),
				Weight:     factorWeights[models.FactorSentiment],
				Available:  true,
			})
		}
		if risk, ok := analytics.MacroRisk(data.MacroA, data.MacroB); ok {
			factors = append(factors, models.RiskFactor{
				Type:       models.FactorMacro,
				Raw:        macroRaw(data),
				Normalized: risk,
				Weight:     factorWeights[models.FactorMacro],
				Available:  true,
			})
		}
	}

	var weightSum float64
	for _, f := range factors {
		weightSum += f.Weight
	}

	weightsUsed := make(map[models.FactorType]float64, len(factors))
	var composite float64
	for _, f := range factors {
		w := f.Weight / weightSum
		weightsUsed[f.Type] = w
		composite += f.Normalized * w
	}

	return models.MultiFactorRiskPoint{
		Date:        base.Date,
		RiskLevel:   analytics.Clamp01(composite),
		Price:       base.Price,
		FairValue:   base.FairValue,
		Deviation:   base.Deviation,
		Factors:     factors,
		WeightsUsed: weightsUsed,
	}
}

// macroRaw reports the mean of whichever macro indices are present, for the
// factor breakdown only.
func macroRaw(data *models.RiskFactorData) float64 {
	switch {
	case data.MacroA != nil && data.MacroB != nil:
		return (*data.MacroA + *data.MacroB) / 2
	case data.MacroA != nil:
		return *data.MacroA
	case data.MacroB != nil:
		return *data.MacroB
	}
	return 0
}
