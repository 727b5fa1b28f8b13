package usecase

import (
	"testing"
	"time"

	"RiskPulse/pkg/config"
	applogger "RiskPulse/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type nopMetrics struct{}

func (nopMetrics) RecordProviderRequest(provider, outcome string) {}
func (nopMetrics) RecordFactorFallback(factor string)             {}
func (nopMetrics) RecordCacheOp(tier, outcome string)             {}
func (nopMetrics) RecordRiskLevel(asset string, level float64)    {}
func (nopMetrics) RecordLatency(op string, seconds float64)       {}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Providers.History.PageDays = 90
	cfg.Assets = []config.AssetConfig{
		{
			ID:                "btc",
			Name:              "Bitcoin",
			Origin:            "2023-01-01",
			LowBound:          -0.5,
			HighBound:         0.5,
			StaticConfidence:  6,
			ExchangeSymbol:    "BTCUSDT",
			IndicatorSymbol:   "BTC/USDT",
			IndicatorExchange: "binance",
			HistoryID:         "bitcoin",
		},
		{
			ID:               "alt",
			Name:             "Altcoin",
			Origin:           "2023-06-01",
			LowBound:         -0.4,
			HighBound:        0.4,
			StaticConfidence: 4,
			HistoryID:        "altcoin",
		},
		{
			ID:               "bt",
			Name:             "Basetoken",
			Origin:           "2023-06-01",
			LowBound:         -0.4,
			HighBound:        0.4,
			StaticConfidence: 4,
			HistoryID:        "basetoken",
		},
	}
	return cfg
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
