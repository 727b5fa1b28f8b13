//go:build wireinject
// +build wireinject

package di

import (
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideResultCache,

		// Rate limiting
		ProvideIndicatorGate,
		ProvideMacroBudget,

		// Upstream providers
		ProvideCandleProvider,
		ProvideIndicatorProvider,
		ProvideSentimentProvider,
		ProvideFundingProvider,
		ProvideMacroProvider,
		ProvideHistoryProvider,

		// Persistence
		ProvidePriceStore,
		ProvideMetricsStore,

		// Use cases
		ProvidePriceHistory,
		ProvideFactorFetcher,
		ProvideConfidenceTracker,
		ProvideEngine,

		// HTTP surface
		ProvideRiskHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
