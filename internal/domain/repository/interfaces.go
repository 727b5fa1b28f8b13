package repository

import (
	"context"
	"time"

	"RiskPulse/internal/domain/models"
)

// CandleProvider returns OHLC candles from the primary exchange. Used for gap
// filling, the weekly-band computation, and local indicator fallbacks.
type CandleProvider interface {
	// DailyCandles returns daily candles for [from, to], ascending.
	DailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)
	// RecentCandles returns the last n daily candles, ascending.
	RecentCandles(ctx context.Context, symbol string, n int) ([]models.Candle, error)
}

// IndicatorProvider serves momentum and trend scalars. It is hard rate limited
// upstream; all calls must go through the shared minimum-interval gate.
type IndicatorProvider interface {
	Momentum(ctx context.Context, symbol, exchange, interval string, period int) (float64, error)
	TrendMean(ctx context.Context, symbol, exchange, interval string, period int) (float64, error)
}

// SentimentProvider serves the market sentiment index (0-100). Unrestricted.
type SentimentProvider interface {
	Index(ctx context.Context) (float64, error)
}

// FundingProvider serves the current funding/positioning rate. Unrestricted.
type FundingProvider interface {
	Rate(ctx context.Context, symbol string) (float64, error)
}

// MacroIndices is the pair of macro readings fetched together.
type MacroIndices struct {
	A *float64 `json:"a,omitempty"`
	B *float64 `json:"b,omitempty"`
}

// MacroProvider serves the two macro indices as a pair under a shared soft
// daily quota. An error is returned only when neither index could be read.
type MacroProvider interface {
	Indices(ctx context.Context) (MacroIndices, error)
}

// HistoryProvider is the alternate full-history source, used for bootstrap and
// as the incremental fallback for assets without an exchange listing.
type HistoryProvider interface {
	// HistoryRange returns daily (timestamp, price) points within [from, to].
	HistoryRange(ctx context.Context, assetID string, from, to time.Time) ([]models.PricePoint, error)
}

// SeriesStore persists per-asset price series (baseline and incremental).
// A missing series loads as nil without error; a corrupt file is deleted and
// also loads as nil.
type SeriesStore interface {
	Baseline(assetID string) (*models.PriceSeries, error)
	SaveBaseline(series *models.PriceSeries) error
	Incremental(assetID string) (*models.PriceSeries, error)
	SaveIncremental(series *models.PriceSeries) error
	Delete(assetID string) error
}

// MetricsStore persists per-asset confidence metrics with the same
// missing/corrupt semantics as SeriesStore.
type MetricsStore interface {
	Load(assetID string) (*models.ConfidenceMetrics, error)
	Save(metrics *models.ConfidenceMetrics) error
	Delete(assetID string) error
}

// Metrics abstracts operational metric recording.
type Metrics interface {
	RecordProviderRequest(provider, outcome string)
	RecordFactorFallback(factor string)
	RecordCacheOp(tier, outcome string)
	RecordRiskLevel(asset string, level float64)
	RecordLatency(op string, seconds float64)
}
