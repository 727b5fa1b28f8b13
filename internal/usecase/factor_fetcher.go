package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
	"RiskPulse/internal/service/ratelimit"
	"RiskPulse/internal/services/analytics"
	"RiskPulse/pkg/cache"
	"RiskPulse/pkg/config"
	applogger "RiskPulse/pkg/logger"
)

const (
	bundleCacheTTL = 5 * time.Minute
	macroCacheTTL  = 2 * time.Hour

	defaultIndicatorPeriod = 14
	defaultInterval        = "1d"

	// Candle window for the local momentum/trend fallback. Wilder RSI needs
	// period+1 closes; the trailing mean uses the full window.
	fallbackCandleCount = 30
)

// FactorFetcher acquires the supplementary market signals for one asset.
// Providers fall into three tiers: the hard rate-limited indicator provider
// behind the shared gate, the macro pair under a joint 2h cache and daily
// budget, and the unrestricted providers fetched concurrently. Individual
// provider failures degrade the corresponding factor to unavailable; the
// fetch itself never hard-fails.
type FactorFetcher struct {
	cfg       *config.Config
	indicator repository.IndicatorProvider
	sentiment repository.SentimentProvider
	funding   repository.FundingProvider
	macro     repository.MacroProvider
	candles   repository.CandleProvider
	gate      *ratelimit.Gate
	cache     cache.Service
	logger    *applogger.Logger
	metrics   repository.Metrics

	now func() time.Time
}

func NewFactorFetcher(
	cfg *config.Config,
	indicator repository.IndicatorProvider,
	sentiment repository.SentimentProvider,
	funding repository.FundingProvider,
	macro repository.MacroProvider,
	candles repository.CandleProvider,
	gate *ratelimit.Gate,
	cacheSvc cache.Service,
	l *applogger.Logger,
	m repository.Metrics,
) *FactorFetcher {
	return &FactorFetcher{
		cfg:       cfg,
		indicator: indicator,
		sentiment: sentiment,
		funding:   funding,
		macro:     macro,
		candles:   candles,
		gate:      gate,
		cache:     cacheSvc,
		logger:    l,
		metrics:   m,
		now:       time.Now,
	}
}

// FetchFactors returns the latest factor bundle for the asset. A 5-minute
// cache wraps the whole bundle; forceRefresh bypasses that outer cache only,
// never the macro pair cache.
func (f *FactorFetcher) FetchFactors(ctx context.Context, assetID string, forceRefresh bool) (*models.RiskFactorData, error) {
	asset := f.cfg.Asset(assetID)
	if asset == nil {
		return nil, fmt.Errorf("asset %s: %w", assetID, models.ErrConfigMissing)
	}

	key := cache.GenerateKey("factors", assetID)
	if !forceRefresh {
		var cached models.RiskFactorData
		if err := f.cache.Get(ctx, key, &cached); err == nil {
			f.metrics.RecordCacheOp("factors", "hit")
			return &cached, nil
		}
		f.metrics.RecordCacheOp("factors", "miss")
	}

	data := f.fetch(ctx, asset)

	if err := f.cache.Set(ctx, key, data, bundleCacheTTL); err != nil {
		f.logger.Warn("factor bundle cache write failed",
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
	}
	return data, nil
}

func (f *FactorFetcher) fetch(ctx context.Context, asset *config.AssetConfig) *models.RiskFactorData {
	data := &models.RiskFactorData{FetchedAt: f.now()}

	// Tier 3: unrestricted providers, concurrent.
	var (
		wg        sync.WaitGroup
		candles   []models.Candle
		sentiment *float64
		funding   *float64
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		if asset.ExchangeSymbol == "" {
			return
		}
		cs, err := f.candles.RecentCandles(ctx, asset.ExchangeSymbol, fallbackCandleCount)
		if err != nil {
			f.logger.Warn("candle fetch failed",
				applogger.String("asset", asset.ID),
				applogger.Error(err),
			)
			return
		}
		candles = cs
	}()
	go func() {
		defer wg.Done()
		v, err := f.sentiment.Index(ctx)
		if err != nil {
			f.logger.Warn("sentiment fetch failed",
				applogger.String("asset", asset.ID),
				applogger.Error(err),
			)
			return
		}
		sentiment = &v
	}()
	go func() {
		defer wg.Done()
		if asset.ExchangeSymbol == "" {
			return
		}
		v, err := f.funding.Rate(ctx, asset.ExchangeSymbol)
		if err != nil {
			f.logger.Warn("funding fetch failed",
				applogger.String("asset", asset.ID),
				applogger.Error(err),
			)
			return
		}
		funding = &v
	}()
	wg.Wait()

	data.Sentiment = sentiment
	data.FundingRate = funding
	if len(candles) > 0 {
		price := candles[len(candles)-1].Close
		data.CurrentPrice = &price
	}

	// Tier 1: momentum then trend, strictly sequential behind the gate, with
	// a local recomputation from candles when the provider fails.
	f.fetchIndicators(ctx, asset, candles, data)

	// Tier 2: the macro pair under its joint cache.
	f.fetchMacro(ctx, data)

	return data
}

func (f *FactorFetcher) fetchIndicators(ctx context.Context, asset *config.AssetConfig, candles []models.Candle, data *models.RiskFactorData) {
	interval := f.cfg.Providers.Indicator.Interval
	if interval == "" {
		interval = defaultInterval
	}
	period := f.cfg.Providers.Indicator.Period
	if period <= 0 {
		period = defaultIndicatorPeriod
	}
	closes := analytics.Closes(candles)

	var momentum float64
	err := f.gate.Do(ctx, func() error {
		v, err := f.indicator.Momentum(ctx, asset.IndicatorSymbol, asset.IndicatorExchange, interval, period)
		momentum = v
		return err
	})
	if err != nil {
		f.logger.Warn("momentum fetch failed, recomputing locally",
			applogger.String("asset", asset.ID),
			applogger.Error(err),
		)
		if v, ferr := analytics.WilderRSI(closes, period); ferr == nil {
			momentum = v
			err = nil
			f.metrics.RecordFactorFallback("momentum")
		}
	}
	if err == nil {
		data.Momentum = &momentum
	}

	var trendMean float64
	err = f.gate.Do(ctx, func() error {
		v, err := f.indicator.TrendMean(ctx, asset.IndicatorSymbol, asset.IndicatorExchange, interval, period)
		trendMean = v
		return err
	})
	if err != nil {
		f.logger.Warn("trend fetch failed, recomputing locally",
			applogger.String("asset", asset.ID),
			applogger.Error(err),
		)
		if v, ferr := analytics.TrailingMean(closes, period); ferr == nil {
			trendMean = v
			err = nil
			f.metrics.RecordFactorFallback("trend")
		}
	}
	if err == nil && trendMean > 0 {
		data.TrendMean = &trendMean
		if data.CurrentPrice != nil {
			pct := analytics.PercentDistance(*data.CurrentPrice, trendMean)
			data.TrendDistancePct = &pct
		}
	}
}

func (f *FactorFetcher) fetchMacro(ctx context.Context, data *models.RiskFactorData) {
	key := cache.GenerateKey("macro", "pair")

	var cached repository.MacroIndices
	if err := f.cache.Get(ctx, key, &cached); err == nil {
		f.metrics.RecordCacheOp("macro", "hit")
		data.MacroA = cached.A
		data.MacroB = cached.B
		return
	}
	f.metrics.RecordCacheOp("macro", "miss")

	indices, err := f.macro.Indices(ctx)
	if err != nil {
		f.logger.Warn("macro fetch failed", applogger.Error(err))
		return
	}
	data.MacroA = indices.A
	data.MacroB = indices.B

	if err := f.cache.Set(ctx, key, indices, macroCacheTTL); err != nil {
		f.logger.Warn("macro cache write failed", applogger.Error(err))
	}
}
