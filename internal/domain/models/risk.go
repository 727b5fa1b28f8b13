package models

import "time"

// FactorType identifies one input to the composite score.
type FactorType string

const (
	FactorRegression FactorType = "regression"
	FactorMomentum   FactorType = "momentum"
	FactorTrend      FactorType = "trend"
	FactorFunding    FactorType = "funding"
	FactorSentiment  FactorType = "sentiment"
	FactorMacro      FactorType = "macro"
)

// RegressionModel is a fitted log-log fair-value curve for one asset.
type RegressionModel struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	R2        float64   `json:"r2"`
	Origin    time.Time `json:"origin"`
	Points    int       `json:"points"` // valid points used by the fit
}

// RiskFactorData is one fetch's bundle of raw optional supplementary values.
// A nil field means the corresponding provider was unavailable this round.
// The bundle is ephemeral and superseded by the next fetch.
type RiskFactorData struct {
	Momentum         *float64  `json:"momentum,omitempty"`           // RSI-style 0..100
	TrendMean        *float64  `json:"trend_mean,omitempty"`         // trailing-mean price level
	TrendDistancePct *float64  `json:"trend_distance_pct,omitempty"` // % distance from trailing mean
	CurrentPrice     *float64  `json:"current_price,omitempty"`
	FundingRate      *float64  `json:"funding_rate,omitempty"` // per-interval decimal rate
	Sentiment        *float64  `json:"sentiment,omitempty"`    // index 0..100
	MacroA           *float64  `json:"macro_a,omitempty"`
	MacroB           *float64  `json:"macro_b,omitempty"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// RiskFactor is one normalized, weighted input to the composite score. An
// unavailable factor carries zero contribution and is excluded before weight
// renormalization.
type RiskFactor struct {
	Type       FactorType `json:"type"`
	Raw        float64    `json:"raw"`
	Normalized float64    `json:"normalized"`
	Weight     float64    `json:"weight"`
	Available  bool       `json:"available"`
}

// RiskHistoryPoint is the regression-only model output for one day.
type RiskHistoryPoint struct {
	Date      time.Time `json:"date"`
	RiskLevel float64   `json:"risk_level"`
	Price     float64   `json:"price"`
	FairValue float64   `json:"fair_value"`
	Deviation float64   `json:"deviation"`
}

// MultiFactorRiskPoint is the composite model output: the regression point
// plus the full per-factor breakdown and the renormalized weights in use.
type MultiFactorRiskPoint struct {
	Date        time.Time              `json:"date"`
	RiskLevel   float64                `json:"risk_level"`
	Price       float64                `json:"price"`
	FairValue   float64                `json:"fair_value"`
	Deviation   float64                `json:"deviation"`
	Factors     []RiskFactor           `json:"factors"`
	WeightsUsed map[FactorType]float64 `json:"weights_used"`
}
