package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
	"RiskPulse/internal/services/analytics"
	"RiskPulse/pkg/cache"
	"RiskPulse/pkg/config"
	applogger "RiskPulse/pkg/logger"
	xutil "RiskPulse/pkg/util"
)

const (
	// Result cache TTL classes: "current" unbounded requests go stale within
	// the hour, bounded historical windows are stable for a day.
	currentResultTTL = time.Hour
	boundedResultTTL = 24 * time.Hour
	maxHistoryPoints = 500
)

// Engine orchestrates the full pipeline: price history, regression fit,
// factor fetch, composite scoring, confidence tracking and the two-tier
// result cache. It is the single object consumers are handed.
type Engine struct {
	cfg        *config.Config
	prices     *PriceHistory
	fetcher    *FactorFetcher
	confidence *ConfidenceTracker
	cache      cache.Service
	logger     *applogger.Logger
	metrics    repository.Metrics

	now func() time.Time

	mu     sync.Mutex
	models map[string]*fittedModel
}

// fittedModel is the per-asset regression cache. The fingerprint ties the fit
// to the exact series it was computed from; a changed series forces a re-fit.
type fittedModel struct {
	model      *models.RegressionModel
	pointCount int
	seriesEnd  time.Time
}

func NewEngine(
	cfg *config.Config,
	prices *PriceHistory,
	fetcher *FactorFetcher,
	confidence *ConfidenceTracker,
	cacheSvc cache.Service,
	l *applogger.Logger,
	m repository.Metrics,
) *Engine {
	return &Engine{
		cfg:        cfg,
		prices:     prices,
		fetcher:    fetcher,
		confidence: confidence,
		cache:      cacheSvc,
		logger:     l,
		metrics:    m,
		now:        time.Now,
		models:     make(map[string]*fittedModel),
	}
}

// WarmUp loads persisted state for all configured assets.
func (e *Engine) WarmUp(ctx context.Context) error {
	e.prices.WarmUp(ctx)
	return e.confidence.LoadAll()
}

// RiskHistory computes the regression-only risk series for the asset over the
// last `days` days (0 means the full history), sampled down to at most 500
// points with the latest point always included.
func (e *Engine) RiskHistory(ctx context.Context, assetID string, days int) (*models.RiskHistoryResponse, error) {
	start := e.now()
	defer func() { e.metrics.RecordLatency("risk_history", time.Since(start).Seconds()) }()

	key := cache.GenerateKeyWithParams("risk:history", assetID, rangeToken(days))
	var cached models.RiskHistoryResponse
	if err := e.cache.Get(ctx, key, &cached); err == nil {
		e.metrics.RecordCacheOp("result", "hit")
		return &cached, nil
	}
	e.metrics.RecordCacheOp("result", "miss")

	points, model, err := e.seriesAndModel(ctx, assetID)
	if err != nil {
		return nil, err
	}

	asset := e.cfg.Asset(assetID)
	window := points
	if days > 0 {
		cutoff := xutil.DayUTC(e.now()).AddDate(0, 0, -days)
		// A series staler than the window still reports its latest point.
		window = points[len(points)-1:]
		for i := range points {
			if !points[i].Date.Before(cutoff) {
				window = points[i:]
				break
			}
		}
	}

	history := make([]models.RiskHistoryPoint, 0, len(window))
	for _, pt := range window {
		fair := analytics.FairValueAt(model, pt.Date)
		if fair <= 0 {
			continue
		}
		dev := analytics.Deviation(pt.Price, fair)
		history = append(history, models.RiskHistoryPoint{
			Date:      pt.Date,
			RiskLevel: analytics.RiskLevel(dev, asset.LowBound, asset.HighBound),
			Price:     pt.Price,
			FairValue: fair,
			Deviation: dev,
		})
	}

	resp := &models.RiskHistoryResponse{
		Asset:  assetID,
		Days:   days,
		Points: sampleHistory(history, maxHistoryPoints),
	}

	ttl := currentResultTTL
	if days > 0 {
		ttl = boundedResultTTL
	}
	if err := e.cache.Set(ctx, key, resp, ttl); err != nil {
		e.logger.Warn("result cache write failed",
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
	}
	return resp, nil
}

// MultiFactorRisk computes the composite risk for the asset's latest closed
// day and folds the calculation into the confidence track record.
func (e *Engine) MultiFactorRisk(ctx context.Context, assetID string, forceRefresh bool) (*models.MultiFactorRiskPoint, error) {
	start := e.now()
	defer func() { e.metrics.RecordLatency("multifactor_risk", time.Since(start).Seconds()) }()

	key := cache.GenerateKey("risk:multifactor", assetID)
	if !forceRefresh {
		var cached models.MultiFactorRiskPoint
		if err := e.cache.Get(ctx, key, &cached); err == nil {
			e.metrics.RecordCacheOp("result", "hit")
			return &cached, nil
		}
		e.metrics.RecordCacheOp("result", "miss")
	}

	points, model, err := e.seriesAndModel(ctx, assetID)
	if err != nil {
		return nil, err
	}
	asset := e.cfg.Asset(assetID)

	latest := points[len(points)-1]
	fair := analytics.FairValueAt(model, latest.Date)
	if fair <= 0 {
		return nil, fmt.Errorf("asset %s: degenerate fair value: %w", assetID, models.ErrDataInsufficient)
	}
	dev := analytics.Deviation(latest.Price, fair)
	base := models.RiskHistoryPoint{
		Date:      latest.Date,
		RiskLevel: analytics.RiskLevel(dev, asset.LowBound, asset.HighBound),
		Price:     latest.Price,
		FairValue: fair,
		Deviation: dev,
	}

	// Factor failures degrade the composite, never abort it.
	factors, err := e.fetcher.FetchFactors(ctx, assetID, forceRefresh)
	if err != nil {
		e.logger.Warn("factor fetch failed",
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
		factors = nil
	}

	result := ComposeMultiFactor(base, factors)

	if err := e.confidence.RecordCalculation(assetID, model.R2, len(points), result.RiskLevel, latest.Price, e.now()); err != nil {
		e.logger.Warn("confidence record failed",
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
	}
	e.metrics.RecordRiskLevel(assetID, result.RiskLevel)

	if err := e.cache.Set(ctx, key, &result, currentResultTTL); err != nil {
		e.logger.Warn("result cache write failed",
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
	}
	return &result, nil
}

// Confidence returns the adaptive confidence for one asset.
func (e *Engine) Confidence(_ context.Context, assetID string) (*models.ConfidenceResult, error) {
	return e.confidence.AdaptiveConfidence(assetID)
}

// ClearAsset removes the asset's cached results, factor bundle, fitted model,
// merged-series memo and confidence track record.
func (e *Engine) ClearAsset(ctx context.Context, assetID string) error {
	if e.cfg.Asset(assetID) == nil {
		return fmt.Errorf("asset %s: %w", assetID, models.ErrConfigMissing)
	}
	// History keys carry a range suffix, so the prefix must end at the
	// separator or it would also match assets whose id extends this one.
	if err := e.cache.DeleteByPrefix(ctx, cache.GenerateKey("risk:history", assetID)+":"); err != nil {
		return fmt.Errorf("clear cache for %s: %w", assetID, err)
	}
	if err := e.cache.Delete(ctx,
		cache.GenerateKey("risk:multifactor", assetID),
		cache.GenerateKey("factors", assetID),
	); err != nil {
		return fmt.Errorf("clear cache for %s: %w", assetID, err)
	}

	e.mu.Lock()
	delete(e.models, assetID)
	e.mu.Unlock()

	e.prices.Invalidate(assetID)
	if err := e.confidence.Clear(assetID); err != nil {
		return fmt.Errorf("clear confidence for %s: %w", assetID, err)
	}
	return nil
}

// ClearAll wipes both result cache tiers and every asset's derived state.
func (e *Engine) ClearAll(ctx context.Context) error {
	if err := e.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	e.mu.Lock()
	e.models = make(map[string]*fittedModel)
	e.mu.Unlock()

	e.prices.InvalidateAll()
	for i := range e.cfg.Assets {
		if err := e.confidence.Clear(e.cfg.Assets[i].ID); err != nil {
			return fmt.Errorf("clear confidence for %s: %w", e.cfg.Assets[i].ID, err)
		}
	}
	return nil
}

// seriesAndModel returns the merged price series and the cached regression
// fit, re-fitting only when the underlying series has changed.
func (e *Engine) seriesAndModel(ctx context.Context, assetID string) ([]models.PricePoint, *models.RegressionModel, error) {
	asset := e.cfg.Asset(assetID)
	if asset == nil {
		return nil, nil, fmt.Errorf("asset %s: %w", assetID, models.ErrConfigMissing)
	}

	points, err := e.prices.FullHistory(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}
	end := points[len(points)-1].Date

	e.mu.Lock()
	cached, ok := e.models[assetID]
	e.mu.Unlock()
	if ok && cached.pointCount == len(points) && cached.seriesEnd.Equal(end) {
		return points, cached.model, nil
	}

	model, err := analytics.FitLogLog(points, asset.OriginDate())
	if err != nil {
		return nil, nil, fmt.Errorf("asset %s: %w", assetID, err)
	}

	e.mu.Lock()
	e.models[assetID] = &fittedModel{model: model, pointCount: len(points), seriesEnd: end}
	e.mu.Unlock()

	e.logger.Debug("regression fitted",
		applogger.String("asset", assetID),
		applogger.Float64("r2", model.R2),
		applogger.Int("points", model.Points),
	)
	return points, model, nil
}

// sampleHistory thins a series to at most max points, keeping an even stride
// and always the latest point.
func sampleHistory(points []models.RiskHistoryPoint, max int) []models.RiskHistoryPoint {
	n := len(points)
	if n <= max {
		return points
	}
	stride := (n + max - 1) / max
	out := make([]models.RiskHistoryPoint, 0, max)
	for i := 0; i < n; i += stride {
		out = append(out, points[i])
	}
	if !out[len(out)-1].Date.Equal(points[n-1].Date) {
		out = append(out, points[n-1])
	}
	return out
}

func rangeToken(days int) string {
	if days <= 0 {
		return "all"
	}
	return fmt.Sprintf("%d", days)
}
