package models

import "time"

const (
	// Rolling caps for confidence history, oldest dropped first.
	QualityHistoryCap    = 180
	VolumeHistoryCap     = 180
	PredictionHistoryCap = 365

	// Risk levels inside this band are considered neutral; no directional
	// prediction is recorded for them.
	NeutralBandLow  = 0.45
	NeutralBandHigh = 0.55

	// A directional call is correct when price moved at least this fraction
	// in the predicted direction. Fixed, not volatility-scaled.
	ValidationMoveThreshold = 0.05
)

// RiskCategory labels a directional prediction.
type RiskCategory string

const (
	RiskCategoryHigh RiskCategory = "high"
	RiskCategoryLow  RiskCategory = "low"
)

// QualitySnapshot records one regression fit quality observation.
type QualitySnapshot struct {
	Date time.Time `json:"date"`
	R2   float64   `json:"r2"`
}

// VolumeSnapshot records one data-volume observation.
type VolumeSnapshot struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// PredictionSnapshot is a recorded directional risk call awaiting outcome
// validation at 30, 60 and 90 days. Outcome fields are filled in place as
// later calculations supply prices; a snapshot whose 90-day flag is set is
// never mutated again.
type PredictionSnapshot struct {
	CreatedAt       time.Time    `json:"created_at"`
	RiskLevel       float64      `json:"risk_level"`
	Category        RiskCategory `json:"category"`
	PriceAtCreation float64      `json:"price_at_creation"`

	PriceAfter30 *float64 `json:"price_after_30,omitempty"`
	PriceAfter60 *float64 `json:"price_after_60,omitempty"`
	PriceAfter90 *float64 `json:"price_after_90,omitempty"`

	Correct30 *bool `json:"correct_30,omitempty"`
	Correct60 *bool `json:"correct_60,omitempty"`
	Correct90 *bool `json:"correct_90,omitempty"`

	ValidatedAt *time.Time `json:"validated_at,omitempty"`
}

// ConfidenceMetrics is the persisted per-asset prediction track record.
// It grows only by appends from calculation calls; nothing is deleted except
// by cap-based trimming and cache-clear operations.
type ConfidenceMetrics struct {
	AssetID           string               `json:"asset_id"`
	RSquaredHistory   []QualitySnapshot    `json:"r_squared_history"`
	DataVolumeHistory []VolumeSnapshot     `json:"data_volume_history"`
	Predictions       []PredictionSnapshot `json:"predictions"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// ConfidenceResult is the published adaptive confidence for one asset.
type ConfidenceResult struct {
	AssetID        string   `json:"asset_id"`
	Static         int      `json:"static"`
	Adaptive       int      `json:"adaptive"`
	RSquaredBonus  float64  `json:"r_squared_bonus"`
	DataPointBonus float64  `json:"data_point_bonus"`
	AccuracyBonus  float64  `json:"accuracy_bonus"`
	ValidatedCount int      `json:"validated_count"`
	HitRate        *float64 `json:"hit_rate,omitempty"`
}
