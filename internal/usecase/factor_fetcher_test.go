package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RiskPulse/internal/domain/repository"
	"RiskPulse/internal/service/ratelimit"
	"RiskPulse/pkg/cache"
)

type fakeIndicator struct {
	calls    []string
	momentum float64
	trend    float64
	err      error
}

func (f *fakeIndicator) Momentum(context.Context, string, string, string, int) (float64, error) {
	f.calls = append(f.calls, "momentum")
	return f.momentum, f.err
}

func (f *fakeIndicator) TrendMean(context.Context, string, string, string, int) (float64, error) {
	f.calls = append(f.calls, "trend")
	return f.trend, f.err
}

type fakeSentiment struct {
	value float64
	err   error
}

func (f *fakeSentiment) Index(context.Context) (float64, error) { return f.value, f.err }

type fakeFunding struct {
	rate float64
	err  error
}

func (f *fakeFunding) Rate(context.Context, string) (float64, error) { return f.rate, f.err }

type fakeMacro struct {
	calls   int
	indices repository.MacroIndices
	err     error
}

func (f *fakeMacro) Indices(context.Context) (repository.MacroIndices, error) {
	f.calls++
	return f.indices, f.err
}

func ptr(v float64) *float64 { return &v }

type fetcherFixture struct {
	indicator *fakeIndicator
	sentiment *fakeSentiment
	funding   *fakeFunding
	macro     *fakeMacro
	candles   *fakeCandles
	fetcher   *FactorFetcher
}

func newFetcherUnderTest(t *testing.T) *fetcherFixture {
	t.Helper()
	fx := &fetcherFixture{
		indicator: &fakeIndicator{momentum: 62, trend: 105},
		sentiment: &fakeSentiment{value: 70},
		funding:   &fakeFunding{rate: 0.0004},
		macro:     &fakeMacro{indices: repository.MacroIndices{A: ptr(102.5), B: ptr(4.2)}},
		candles:   &fakeCandles{candles: dailyCandles(day(2024, 1, 1), seq(100, 30)...)},
	}
	fx.fetcher = NewFactorFetcher(
		testConfig(),
		fx.indicator, fx.sentiment, fx.funding, fx.macro, fx.candles,
		ratelimit.NewGate(time.Millisecond),
		cache.NewMemoryCache(),
		testLogger(t), nopMetrics{},
	)
	return fx
}

func seq(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func TestFetchFactorsFullBundle(t *testing.T) {
	fx := newFetcherUnderTest(t)

	data, err := fx.fetcher.FetchFactors(context.Background(), "btc", false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if data.Momentum == nil || *data.Momentum != 62 {
		t.Fatalf("momentum = %v", data.Momentum)
	}
	if data.Sentiment == nil || *data.Sentiment != 70 {
		t.Fatalf("sentiment = %v", data.Sentiment)
	}
	if data.FundingRate == nil || *data.FundingRate != 0.0004 {
		t.Fatalf("funding = %v", data.FundingRate)
	}
	if data.MacroA == nil || *data.MacroA != 102.5 || data.MacroB == nil || *data.MacroB != 4.2 {
		t.Fatalf("macro = %v / %v", data.MacroA, data.MacroB)
	}
	// Last candle close is 129; trend mean from the provider is 105.
	if data.CurrentPrice == nil || *data.CurrentPrice != 129 {
		t.Fatalf("current price = %v", data.CurrentPrice)
	}
	if data.TrendMean == nil || *data.TrendMean != 105 {
		t.Fatalf("trend mean = %v", data.TrendMean)
	}
	if data.TrendDistancePct == nil {
		t.Fatalf("trend distance missing")
	}

	// Momentum is always requested before trend.
	if len(fx.indicator.calls) != 2 || fx.indicator.calls[0] != "momentum" || fx.indicator.calls[1] != "trend" {
		t.Fatalf("indicator call order = %v", fx.indicator.calls)
	}
}

func TestFetchFactorsBundleCache(t *testing.T) {
	fx := newFetcherUnderTest(t)

	if _, err := fx.fetcher.FetchFactors(context.Background(), "btc", false); err != nil {
		t.Fatalf("first: %v", err)
	}
	callsAfterFirst := len(fx.indicator.calls)

	if _, err := fx.fetcher.FetchFactors(context.Background(), "btc", false); err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(fx.indicator.calls) != callsAfterFirst {
		t.Fatalf("cached call still hit the indicator provider")
	}
}

// forceRefresh bypasses the bundle cache but must not bypass the 2h macro
// pair cache.
func TestForceRefreshKeepsMacroCache(t *testing.T) {
	fx := newFetcherUnderTest(t)

	if _, err := fx.fetcher.FetchFactors(context.Background(), "btc", false); err != nil {
		t.Fatalf("first: %v", err)
	}
	if fx.macro.calls != 1 {
		t.Fatalf("macro calls = %d", fx.macro.calls)
	}

	if _, err := fx.fetcher.FetchFactors(context.Background(), "btc", true); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fx.macro.calls != 1 {
		t.Fatalf("forceRefresh bypassed the macro cache: %d calls", fx.macro.calls)
	}
	if len(fx.indicator.calls) != 4 {
		t.Fatalf("forceRefresh did not re-run the indicator tier: %v", fx.indicator.calls)
	}
}

// A failing indicator provider falls back to local recomputation from candle
// data instead of leaving the factors empty.
func TestIndicatorFallbackFromCandles(t *testing.T) {
	fx := newFetcherUnderTest(t)
	fx.indicator.err = errors.New("rate limited")

	data, err := fx.fetcher.FetchFactors(context.Background(), "btc", false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if data.Momentum == nil {
		t.Fatalf("momentum fallback missing")
	}
	// Closes rise monotonically, so the local RSI saturates at 100.
	if *data.Momentum != 100 {
		t.Fatalf("fallback momentum = %v, want 100", *data.Momentum)
	}
	if data.TrendDistancePct == nil {
		t.Fatalf("trend fallback missing")
	}
}

// Provider failures degrade factors to unavailable; the fetch itself still
// succeeds with whatever could be read.
func TestFetchFactorsNeverHardFails(t *testing.T) {
	fx := newFetcherUnderTest(t)
	fx.indicator.err = errors.New("down")
	fx.sentiment.err = errors.New("down")
	fx.funding.err = errors.New("down")
	fx.macro.err = errors.New("down")
	fx.candles.err = errors.New("down")

	data, err := fx.fetcher.FetchFactors(context.Background(), "btc", false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if data.Momentum != nil || data.Sentiment != nil || data.FundingRate != nil ||
		data.MacroA != nil || data.MacroB != nil || data.CurrentPrice != nil || data.TrendDistancePct != nil {
		t.Fatalf("expected all factors unavailable: %+v", data)
	}
	if data.FetchedAt.IsZero() {
		t.Fatalf("fetch timestamp missing")
	}
}

func TestFetchFactorsUnknownAsset(t *testing.T) {
	fx := newFetcherUnderTest(t)
	if _, err := fx.fetcher.FetchFactors(context.Background(), "nope", false); err == nil {
		t.Fatalf("expected error for unknown asset")
	}
}
