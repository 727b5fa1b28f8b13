package di

import (
	"fmt"
	"time"

	"RiskPulse/internal/domain/repository"
	"RiskPulse/internal/handler/api"
	internalrepo "RiskPulse/internal/repository"
	"RiskPulse/internal/service/providers"
	"RiskPulse/internal/service/ratelimit"
	"RiskPulse/internal/usecase"
	"RiskPulse/pkg/cache"
	"RiskPulse/pkg/config"
	xhttp "RiskPulse/pkg/http"
	applogger "RiskPulse/pkg/logger"
	"RiskPulse/pkg/metrics"
	"RiskPulse/pkg/server"
)

const (
	defaultProviderTimeout      = 10 * time.Second
	defaultIndicatorMinInterval = 15 * time.Second
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideResultCache builds the two-tier result cache: an in-memory L1 in
// front of a durable tier selected by config (per-key files on disk, or a
// shared Redis for multi-instance deployments).
func ProvideResultCache(cfg *config.Config) (cache.Service, error) {
	var durable cache.Service
	switch cfg.Cache.Tier {
	case "redis":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		durable = rc
	default:
		dc, err := cache.NewDiskCache(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("disk cache: %w", err)
		}
		durable = dc
	}

	opts := []cache.LayeredOption{}
	if cfg.Cache.MemoryMaxSize > 0 {
		opts = append(opts, cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize))
	}
	return cache.NewLayeredCache(durable, opts...), nil
}

// ProvideIndicatorGate creates the process-wide single-permit gate for the
// hard rate-limited indicator provider.
func ProvideIndicatorGate(cfg *config.Config) *ratelimit.Gate {
	interval := cfg.Providers.Indicator.MinInterval
	if interval <= 0 {
		interval = defaultIndicatorMinInterval
	}
	return ratelimit.NewGate(interval)
}

// ProvideMacroBudget creates the shared soft daily quota for the macro pair.
func ProvideMacroBudget(cfg *config.Config) *ratelimit.DailyBudget {
	return ratelimit.NewDailyBudget(cfg.Providers.Macro.DailyBudget)
}

func providerTimeout(cfg *config.Config) time.Duration {
	if cfg.Providers.Timeout > 0 {
		return cfg.Providers.Timeout
	}
	return defaultProviderTimeout
}

// ProvideCandleProvider creates the exchange klines client.
func ProvideCandleProvider(cfg *config.Config, l *applogger.Logger, m repository.Metrics) repository.CandleProvider {
	return providers.NewBinanceClient(cfg.Providers.Candles.BaseURL, providerTimeout(cfg), l, m)
}

// ProvideIndicatorProvider creates the momentum/trend indicator client.
func ProvideIndicatorProvider(cfg *config.Config, l *applogger.Logger, m repository.Metrics) repository.IndicatorProvider {
	return providers.NewIndicatorClient(cfg.Providers.Indicator.BaseURL, cfg.Providers.Indicator.APIKey, providerTimeout(cfg), l, m)
}

// ProvideSentimentProvider creates the sentiment index client.
func ProvideSentimentProvider(cfg *config.Config, l *applogger.Logger, m repository.Metrics) repository.SentimentProvider {
	return providers.NewSentimentClient(cfg.Providers.Sentiment.BaseURL, providerTimeout(cfg), l, m)
}

// ProvideFundingProvider creates the funding/positioning client.
func ProvideFundingProvider(cfg *config.Config, l *applogger.Logger, m repository.Metrics) repository.FundingProvider {
	return providers.NewFundingClient(cfg.Providers.Funding.BaseURL, providerTimeout(cfg), l, m)
}

// ProvideMacroProvider creates the joint macro pair client.
func ProvideMacroProvider(cfg *config.Config, budget *ratelimit.DailyBudget, l *applogger.Logger, m repository.Metrics) repository.MacroProvider {
	return providers.NewMacroClient(
		cfg.Providers.Macro.BaseURL,
		cfg.Providers.Macro.APIKey,
		cfg.Providers.Macro.SeriesA,
		cfg.Providers.Macro.SeriesB,
		budget,
		providerTimeout(cfg), l, m,
	)
}

// ProvideHistoryProvider creates the alternate full-history client.
func ProvideHistoryProvider(cfg *config.Config, l *applogger.Logger, m repository.Metrics) repository.HistoryProvider {
	return providers.NewHistoryClient(cfg.Providers.History.BaseURL, cfg.Providers.History.Currency, providerTimeout(cfg), l, m)
}

// ProvidePriceStore creates the file-backed price series store.
func ProvidePriceStore(cfg *config.Config, l *applogger.Logger) (repository.SeriesStore, error) {
	return internalrepo.NewFilePriceStore(cfg.Cache.Dir, l)
}

// ProvideMetricsStore creates the file-backed confidence metrics store.
func ProvideMetricsStore(cfg *config.Config, l *applogger.Logger) (repository.MetricsStore, error) {
	return internalrepo.NewFileMetricsStore(cfg.Cache.Dir, l)
}

// ProvidePriceHistory creates the price history store.
func ProvidePriceHistory(
	cfg *config.Config,
	store repository.SeriesStore,
	candles repository.CandleProvider,
	history repository.HistoryProvider,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.PriceHistory {
	return usecase.NewPriceHistory(cfg, store, candles, history, l, m)
}

// ProvideFactorFetcher creates the rate-limited factor fetcher.
func ProvideFactorFetcher(
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
) *usecase.FactorFetcher {
	return usecase.NewFactorFetcher(cfg, indicator, sentiment, funding, macro, candles, gate, cacheSvc, l, m)
}

// ProvideConfidenceTracker creates the adaptive confidence tracker.
func ProvideConfidenceTracker(cfg *config.Config, store repository.MetricsStore, l *applogger.Logger) *usecase.ConfidenceTracker {
	return usecase.NewConfidenceTracker(cfg, store, l)
}

// ProvideEngine creates the risk engine.
func ProvideEngine(
	cfg *config.Config,
	prices *usecase.PriceHistory,
	fetcher *usecase.FactorFetcher,
	confidence *usecase.ConfidenceTracker,
	cacheSvc cache.Service,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.Engine {
	return usecase.NewEngine(cfg, prices, fetcher, confidence, cacheSvc, l, m)
}

// ProvideRiskHandler creates the HTTP handler surface.
func ProvideRiskHandler(l *applogger.Logger, engine *usecase.Engine) xhttp.Handler {
	return api.NewRiskEchoHandler(l, engine)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	engine *usecase.Engine,
	handler xhttp.Handler,
	cacheSvc cache.Service,
) *server.App {
	return server.New(cfg, l, engine, handler, cacheSvc)
}
