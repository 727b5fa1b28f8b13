package usecase

import (
	"fmt"
	"math"
	"sync"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
	"RiskPulse/pkg/config"
	applogger "RiskPulse/pkg/logger"
	xutil "RiskPulse/pkg/util"
)

// ConfidenceTracker persists per-asset prediction quality history and
// computes the adjusted confidence score. All mutation happens under one
// mutex; disk writes are synchronous within that section.
type ConfidenceTracker struct {
	cfg    *config.Config
	store  repository.MetricsStore
	logger *applogger.Logger

	now func() time.Time

	mu      sync.Mutex
	byAsset map[string]*models.ConfidenceMetrics
}

func NewConfidenceTracker(cfg *config.Config, store repository.MetricsStore, l *applogger.Logger) *ConfidenceTracker {
	return &ConfidenceTracker{
		cfg:     cfg,
		store:   store,
		logger:  l,
		now:     time.Now,
		byAsset: make(map[string]*models.ConfidenceMetrics),
	}
}

// LoadAll eagerly reads every configured asset's metrics from disk. A missing
// file means no history yet, not an error.
func (t *ConfidenceTracker) LoadAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.cfg.Assets {
		id := t.cfg.Assets[i].ID
		m, err := t.store.Load(id)
		if err != nil {
			return fmt.Errorf("load confidence metrics for %s: %w", id, err)
		}
		if m == nil {
			m = &models.ConfidenceMetrics{AssetID: id}
		}
		t.byAsset[id] = m
	}
	return nil
}

// RecordCalculation folds one risk calculation into the asset's track record:
// fit-quality and data-volume snapshots, at most one directional prediction
// per calendar day when the risk is outside the neutral band, and outcome
// validation of pending predictions at the 30/60/90-day horizons.
func (t *ConfidenceTracker) RecordCalculation(assetID string, r2 float64, dataPoints int, riskLevel, price float64, date time.Time) error {
	if t.cfg.Asset(assetID) == nil {
		return fmt.Errorf("asset %s: %w", assetID, models.ErrConfigMissing)
	}
	day := xutil.DayUTC(date)

	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.byAsset[assetID]
	if m == nil {
		m = &models.ConfidenceMetrics{AssetID: assetID}
		t.byAsset[assetID] = m
	}

	m.RSquaredHistory = append(m.RSquaredHistory, models.QualitySnapshot{Date: day, R2: r2})
	if n := len(m.RSquaredHistory); n > models.QualityHistoryCap {
		m.RSquaredHistory = m.RSquaredHistory[n-models.QualityHistoryCap:]
	}
	m.DataVolumeHistory = append(m.DataVolumeHistory, models.VolumeSnapshot{Date: day, Count: dataPoints})
	if n := len(m.DataVolumeHistory); n > models.VolumeHistoryCap {
		m.DataVolumeHistory = m.DataVolumeHistory[n-models.VolumeHistoryCap:]
	}

	if category, directional := categorize(riskLevel); directional && !t.hasSnapshotFor(m, day) {
		m.Predictions = append(m.Predictions, models.PredictionSnapshot{
			CreatedAt:       day,
			RiskLevel:       riskLevel,
			Category:        category,
			PriceAtCreation: price,
		})
		if n := len(m.Predictions); n > models.PredictionHistoryCap {
			m.Predictions = m.Predictions[n-models.PredictionHistoryCap:]
		}
	}

	t.validatePending(m, price, day)

	m.UpdatedAt = t.now()
	if err := t.store.Save(m); err != nil {
		return fmt.Errorf("persist confidence metrics: %w", err)
	}
	return nil
}

func (t *ConfidenceTracker) hasSnapshotFor(m *models.ConfidenceMetrics, day time.Time) bool {
	for i := range m.Predictions {
		if xutil.SameDay(m.Predictions[i].CreatedAt, day) {
			return true
		}
	}
	return false
}

// validatePending records the current price against any snapshot whose age
// has crossed an unfilled horizon. A snapshot with its 90-day flag set is
// never touched again.
func (t *ConfidenceTracker) validatePending(m *models.ConfidenceMetrics, price float64, day time.Time) {
	for i := range m.Predictions {
		s := &m.Predictions[i]
		if s.Correct90 != nil {
			continue
		}
		age := xutil.DaysBetween(s.CreatedAt, day)
		touched := false
		if age >= 30 && s.PriceAfter30 == nil {
			s.PriceAfter30 = &price
			correct := predictionCorrect(s, price)
			s.Correct30 = &correct
			touched = true
		}
		if age >= 60 && s.PriceAfter60 == nil {
			s.PriceAfter60 = &price
			correct := predictionCorrect(s, price)
			s.Correct60 = &correct
			touched = true
		}
		if age >= 90 && s.PriceAfter90 == nil {
			s.PriceAfter90 = &price
			correct := predictionCorrect(s, price)
			s.Correct90 = &correct
			touched = true
		}
		if touched {
			at := day
			s.ValidatedAt = &at
		}
	}
}

func categorize(riskLevel float64) (models.RiskCategory, bool) {
	switch {
	case riskLevel > models.NeutralBandHigh:
		return models.RiskCategoryHigh, true
	case riskLevel < models.NeutralBandLow:
		return models.RiskCategoryLow, true
	}
	return "", false
}

// predictionCorrect applies the fixed move threshold: a high-risk call needs
// a drop of at least 5%, a low-risk call a rise of at least 5%.
func predictionCorrect(s *models.PredictionSnapshot, price float64) bool {
	if s.PriceAtCreation <= 0 {
		return false
	}
	change := (price - s.PriceAtCreation) / s.PriceAtCreation
	if s.Category == models.RiskCategoryHigh {
		return change <= -models.ValidationMoveThreshold
	}
	return change >= models.ValidationMoveThreshold
}

// AdaptiveConfidence computes the published confidence for one asset from
// its static calibration and the observed track record.
func (t *ConfidenceTracker) AdaptiveConfidence(assetID string) (*models.ConfidenceResult, error) {
	asset := t.cfg.Asset(assetID)
	if asset == nil {
		return nil, fmt.Errorf("asset %s: %w", assetID, models.ErrConfigMissing)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.byAsset[assetID]
	if m == nil {
		m = &models.ConfidenceMetrics{AssetID: assetID}
	}

	result := &models.ConfidenceResult{
		AssetID: assetID,
		Static:  asset.StaticConfidence,
	}

	if n := len(m.RSquaredHistory); n > 0 {
		latest := m.RSquaredHistory[n-1].R2
		result.RSquaredBonus = clampF((latest-0.85)*5.0, -0.5, 1.0)
	}
	if n := len(m.DataVolumeHistory); n > 0 {
		count := m.DataVolumeHistory[n-1].Count
		if count > 365 {
			result.DataPointBonus = clampF(math.Log2(float64(count)/365.0)/4.0, 0, 1.0)
		}
	}

	validated, correct := 0, 0
	for i := range m.Predictions {
		if m.Predictions[i].Correct30 == nil {
			continue
		}
		validated++
		if *m.Predictions[i].Correct30 {
			correct++
		}
	}
	result.ValidatedCount = validated
	if validated >= 5 {
		hitRate := float64(correct) / float64(validated)
		result.HitRate = &hitRate
		result.AccuracyBonus = clampF((hitRate-0.5)*2.0, -1.0, 1.0)
	}

	static := float64(asset.StaticConfidence)
	adjusted := static + result.RSquaredBonus + result.DataPointBonus + result.AccuracyBonus
	adaptive := math.Round(clampF(adjusted, static-1, 9))
	if adaptive < 1 {
		adaptive = 1
	}
	result.Adaptive = int(adaptive)
	return result, nil
}

// Clear forgets one asset's track record in memory and on disk.
func (t *ConfidenceTracker) Clear(assetID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byAsset, assetID)
	return t.store.Delete(assetID)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
