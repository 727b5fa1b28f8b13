package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
	"RiskPulse/pkg/config"
	applogger "RiskPulse/pkg/logger"
	xutil "RiskPulse/pkg/util"
)

const (
	// Repeated gap-fill attempts per asset are gated regardless of outcome.
	fetchCooldown = 15 * time.Minute
	// A failed bootstrap is retried after a short cooldown so callers are
	// never blocked behind a flapping provider.
	bootstrapRetryCooldown = 30 * time.Second

	defaultPageDays = 90
)

// PriceHistory builds and maintains per-asset daily price series: a frozen
// baseline (embedded or bootstrapped once) plus an incremental extension of
// daily closes fetched since the baseline's end. FullHistory is idempotent
// and restartable; per-asset operations are single-flight.
type PriceHistory struct {
	cfg     *config.Config
	store   repository.SeriesStore
	candles repository.CandleProvider
	history repository.HistoryProvider
	logger  *applogger.Logger
	metrics repository.Metrics

	now func() time.Time

	mu     sync.Mutex
	assets map[string]*assetSeries
}

// assetSeries is the in-memory state for one asset. Its mutex serializes all
// operations for that asset; concurrent callers for the same asset never
// trigger duplicate fetches.
type assetSeries struct {
	mu sync.Mutex

	loaded      bool
	baseline    *models.PriceSeries
	incremental *models.PriceSeries
	merged      []models.PricePoint

	lastGapFill       time.Time
	lastBootstrapFail time.Time
}

func NewPriceHistory(
	cfg *config.Config,
	store repository.SeriesStore,
	candles repository.CandleProvider,
	history repository.HistoryProvider,
	l *applogger.Logger,
	m repository.Metrics,
) *PriceHistory {
	return &PriceHistory{
		cfg:     cfg,
		store:   store,
		candles: candles,
		history: history,
		logger:  l,
		metrics: m,
		now:     time.Now,
		assets:  make(map[string]*assetSeries),
	}
}

// WarmUp loads persisted series for every configured asset so first requests
// do not pay file IO. Network fetches are deferred to FullHistory.
func (p *PriceHistory) WarmUp(ctx context.Context) {
	for i := range p.cfg.Assets {
		asset := &p.cfg.Assets[i]
		state := p.state(asset.ID)

		state.mu.Lock()
		if err := p.loadLocked(state, asset); err != nil {
			p.logger.Warn("price series warm-up failed",
				applogger.String("asset", asset.ID),
				applogger.Error(err),
			)
		}
		state.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
	}
}

// FullHistory returns the merged daily price series for the asset, ascending
// with no duplicate dates and the open day excluded. It bootstraps a missing
// baseline and fills the incremental gap, subject to the per-asset cooldowns.
func (p *PriceHistory) FullHistory(ctx context.Context, assetID string) ([]models.PricePoint, error) {
	asset := p.cfg.Asset(assetID)
	if asset == nil {
		return nil, fmt.Errorf("asset %s: %w", assetID, models.ErrConfigMissing)
	}

	state := p.state(assetID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := p.loadLocked(state, asset); err != nil {
		return nil, err
	}

	if state.baseline == nil || len(state.baseline.Points) == 0 {
		p.bootstrapLocked(ctx, state, asset)
	}
	p.gapFillLocked(ctx, state, asset)

	if state.merged == nil {
		state.merged = mergeSeries(state.baseline, state.incremental)
	}
	if len(state.merged) == 0 {
		return nil, fmt.Errorf("asset %s: no price history: %w", assetID, models.ErrDataInsufficient)
	}
	return state.merged, nil
}

// Invalidate drops the in-memory merged series for one asset. Persisted
// baseline and incremental files are untouched.
func (p *PriceHistory) Invalidate(assetID string) {
	p.mu.Lock()
	state, ok := p.assets[assetID]
	p.mu.Unlock()
	if !ok {
		return
	}
	state.mu.Lock()
	state.merged = nil
	state.mu.Unlock()
}

// InvalidateAll drops every asset's merged-series memo.
func (p *PriceHistory) InvalidateAll() {
	p.mu.Lock()
	states := make([]*assetSeries, 0, len(p.assets))
	for _, s := range p.assets {
		states = append(states, s)
	}
	p.mu.Unlock()
	for _, s := range states {
		s.mu.Lock()
		s.merged = nil
		s.mu.Unlock()
	}
}

func (p *PriceHistory) state(assetID string) *assetSeries {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.assets[assetID]
	if !ok {
		s = &assetSeries{}
		p.assets[assetID] = s
	}
	return s
}

// loadLocked hydrates the asset state from disk once: persisted baseline
// first, then the embedded baseline file when configured and nothing was
// persisted yet, then the incremental extension.
func (p *PriceHistory) loadLocked(state *assetSeries, asset *config.AssetConfig) error {
	if state.loaded {
		return nil
	}

	baseline, err := p.store.Baseline(asset.ID)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	if baseline == nil && asset.BaselineFile != "" {
		baseline, err = readEmbeddedBaseline(asset.ID, asset.BaselineFile)
		if err != nil {
			p.logger.Warn("embedded baseline unreadable",
				applogger.String("asset", asset.ID),
				applogger.String("file", asset.BaselineFile),
				applogger.Error(err),
			)
		} else if baseline != nil {
			if err := p.store.SaveBaseline(baseline); err != nil {
				return fmt.Errorf("persist embedded baseline: %w", err)
			}
		}
	}

	incremental, err := p.store.Incremental(asset.ID)
	if err != nil {
		return fmt.Errorf("load incremental: %w", err)
	}

	state.baseline = baseline
	state.incremental = incremental
	state.merged = nil
	state.loaded = true
	return nil
}

// bootstrapLocked builds the baseline from the alternate full-history
// provider, paginating from the asset origin until today or an empty page.
// A failure leaves no partial baseline and arms the retry cooldown.
func (p *PriceHistory) bootstrapLocked(ctx context.Context, state *assetSeries, asset *config.AssetConfig) {
	if asset.HistoryID == "" {
		return
	}
	now := p.now()
	if now.Sub(state.lastBootstrapFail) < bootstrapRetryCooldown {
		return
	}

	pageDays := p.cfg.Providers.History.PageDays
	if pageDays <= 0 {
		pageDays = defaultPageDays
	}

	today := xutil.DayUTC(now)
	byDay := make(map[time.Time]float64)

	from := asset.OriginDate()
	for from.Before(today) {
		to := from.AddDate(0, 0, pageDays)
		if to.After(now) {
			to = now
		}
		page, err := p.history.HistoryRange(ctx, asset.HistoryID, from, to)
		if err != nil {
			p.logger.Warn("baseline bootstrap failed",
				applogger.String("asset", asset.ID),
				applogger.Time("from", from),
				applogger.Error(err),
			)
			state.lastBootstrapFail = now
			return
		}
		if len(page) == 0 {
			break
		}
		for _, pt := range page {
			byDay[xutil.DayUTC(pt.Date)] = pt.Price
		}
		from = to
	}

	// Drop the still-open day and freeze the rest.
	delete(byDay, today)
	if len(byDay) == 0 {
		state.lastBootstrapFail = now
		return
	}

	points := make([]models.PricePoint, 0, len(byDay))
	for day, price := range byDay {
		points = append(points, models.PricePoint{Date: day, Price: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	baseline := &models.PriceSeries{AssetID: asset.ID, Points: points, UpdatedAt: now}
	if err := p.store.SaveBaseline(baseline); err != nil {
		p.logger.Error("baseline persist failed",
			applogger.String("asset", asset.ID),
			applogger.Error(err),
		)
		state.lastBootstrapFail = now
		return
	}

	state.baseline = baseline
	state.merged = nil
	p.logger.Info("baseline bootstrapped",
		applogger.String("asset", asset.ID),
		applogger.Int("points", len(points)),
	)
}

// gapFillLocked extends the incremental series from one day after
// max(baseline end, incremental end) up to yesterday. The cooldown is armed
// on every attempt, successful or not, to bound request volume.
func (p *PriceHistory) gapFillLocked(ctx context.Context, state *assetSeries, asset *config.AssetConfig) {
	if state.baseline == nil || len(state.baseline.Points) == 0 {
		return
	}
	now := p.now()
	if now.Sub(state.lastGapFill) < fetchCooldown {
		return
	}
	state.lastGapFill = now

	baselineEnd := xutil.DayUTC(state.baseline.EndDate())
	next := xutil.NextDay(baselineEnd)
	if state.incremental != nil && len(state.incremental.Points) > 0 {
		if end := xutil.DayUTC(state.incremental.EndDate()); !end.Before(baselineEnd) {
			next = xutil.NextDay(end)
		}
	}

	today := xutil.DayUTC(now)
	if !next.Before(today) {
		return
	}

	fetched, err := p.fetchRange(ctx, asset, next, now)
	if err != nil {
		p.logger.Warn("gap fill failed",
			applogger.String("asset", asset.ID),
			applogger.Time("from", next),
			applogger.Error(err),
		)
		return
	}

	covered := make(map[time.Time]bool, len(state.baseline.Points))
	for _, pt := range state.baseline.Points {
		covered[xutil.DayUTC(pt.Date)] = true
	}
	existing := []models.PricePoint(nil)
	if state.incremental != nil {
		existing = state.incremental.Points
	}
	for _, pt := range existing {
		covered[xutil.DayUTC(pt.Date)] = true
	}

	added := 0
	points := append([]models.PricePoint(nil), existing...)
	for _, pt := range fetched {
		day := xutil.DayUTC(pt.Date)
		if covered[day] || !day.Before(today) {
			continue
		}
		covered[day] = true
		points = append(points, models.PricePoint{Date: day, Price: pt.Price})
		added++
	}
	if added == 0 {
		return
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	incremental := &models.PriceSeries{AssetID: asset.ID, Points: points, UpdatedAt: now}
	if err := p.store.SaveIncremental(incremental); err != nil {
		p.logger.Error("incremental persist failed",
			applogger.String("asset", asset.ID),
			applogger.Error(err),
		)
		return
	}

	state.incremental = incremental
	state.merged = nil
	p.logger.Debug("gap filled",
		applogger.String("asset", asset.ID),
		applogger.Int("added", added),
	)
}

// fetchRange reads daily closes for [from, to] from the candle provider when
// the asset has an exchange listing, falling back to the alternate history
// provider otherwise.
func (p *PriceHistory) fetchRange(ctx context.Context, asset *config.AssetConfig, from, to time.Time) ([]models.PricePoint, error) {
	if asset.ExchangeSymbol != "" {
		candles, err := p.candles.DailyCandles(ctx, asset.ExchangeSymbol, from, to)
		if err != nil {
			return nil, err
		}
		points := make([]models.PricePoint, 0, len(candles))
		for _, c := range candles {
			points = append(points, models.PricePoint{
				Date:  xutil.DayUTC(c.OpenTime),
				Price: c.Close,
			})
		}
		return points, nil
	}
	if asset.HistoryID == "" {
		return nil, fmt.Errorf("asset %s: no incremental source: %w", asset.ID, models.ErrConfigMissing)
	}
	return p.history.HistoryRange(ctx, asset.HistoryID, from, to)
}

// mergeSeries joins baseline points with incremental points strictly after
// the baseline end, ascending.
func mergeSeries(baseline, incremental *models.PriceSeries) []models.PricePoint {
	if baseline == nil || len(baseline.Points) == 0 {
		return nil
	}
	merged := append([]models.PricePoint(nil), baseline.Points...)
	end := xutil.DayUTC(baseline.EndDate())
	if incremental != nil {
		for _, pt := range incremental.Points {
			if xutil.DayUTC(pt.Date).After(end) {
				merged = append(merged, pt)
			}
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

// readEmbeddedBaseline parses a build-time baseline file holding a JSON array
// of price points. A missing file is not an error; the asset falls through to
// the bootstrap path.
func readEmbeddedBaseline(assetID, path string) (*models.PriceSeries, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var samples []models.PricePoint
	if err := json.Unmarshal(b, &samples); err != nil {
		return nil, fmt.Errorf("parse baseline file: %w", err)
	}
	if len(samples) == 0 {
		return nil, nil
	}
	// Intra-day samples collapse to one point per UTC day, last sample wins.
	byDay := make(map[time.Time]float64, len(samples))
	for _, s := range samples {
		byDay[xutil.DayUTC(s.Date)] = s.Price
	}
	points := make([]models.PricePoint, 0, len(byDay))
	for day, price := range byDay {
		points = append(points, models.PricePoint{Date: day, Price: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return &models.PriceSeries{AssetID: assetID, Points: points, UpdatedAt: time.Now()}, nil
}
