package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/repository"
)

type fakeCandles struct {
	calls   int
	candles []models.Candle
	err     error
}

func (f *fakeCandles) DailyCandles(_ context.Context, _ string, from, to time.Time) ([]models.Candle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Candle
	for _, c := range f.candles {
		if !c.OpenTime.Before(from) && !c.OpenTime.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCandles) RecentCandles(_ context.Context, _ string, n int) ([]models.Candle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.candles) > n {
		return f.candles[len(f.candles)-n:], nil
	}
	return f.candles, nil
}

type fakeHistory struct {
	calls  int
	points []models.PricePoint
	err    error
}

func (f *fakeHistory) HistoryRange(_ context.Context, _ string, from, to time.Time) ([]models.PricePoint, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.PricePoint
	for _, p := range f.points {
		if !p.Date.Before(from) && !p.Date.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func dailyCandles(from time.Time, closes ...float64) []models.Candle {
	out := make([]models.Candle, 0, len(closes))
	for i, c := range closes {
		out = append(out, models.Candle{OpenTime: from.AddDate(0, 0, i), Close: c})
	}
	return out
}

func newHistoryUnderTest(t *testing.T, candles *fakeCandles, history *fakeHistory, now time.Time) *PriceHistory {
	t.Helper()
	store, err := repository.NewFilePriceStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	ph := NewPriceHistory(testConfig(), store, candles, history, testLogger(t), nopMetrics{})
	ph.now = func() time.Time { return now }
	return ph
}

// Baseline ends 2024-01-01 and today is 2024-01-05: the merged series must
// gain exactly 01-02, 01-03 and 01-04, with the open day excluded.
func TestFullHistoryFillsGapExcludingOpenDay(t *testing.T) {
	now := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)
	candles := &fakeCandles{candles: dailyCandles(day(2024, 1, 2), 101, 102, 103, 104)}
	ph := newHistoryUnderTest(t, candles, &fakeHistory{}, now)

	baseline := &models.PriceSeries{
		AssetID: "btc",
		Points: []models.PricePoint{
			{Date: day(2023, 12, 31), Price: 99},
			{Date: day(2024, 1, 1), Price: 100},
		},
	}
	if err := ph.store.SaveBaseline(baseline); err != nil {
		t.Fatalf("seed baseline: %v", err)
	}

	points, err := ph.FullHistory(context.Background(), "btc")
	if err != nil {
		t.Fatalf("full history: %v", err)
	}

	want := []struct {
		date  time.Time
		price float64
	}{
		{day(2023, 12, 31), 99},
		{day(2024, 1, 1), 100},
		{day(2024, 1, 2), 101},
		{day(2024, 1, 3), 102},
		{day(2024, 1, 4), 103},
	}
	if len(points) != len(want) {
		t.Fatalf("points = %d, want %d: %+v", len(points), len(want), points)
	}
	for i, w := range want {
		if !points[i].Date.Equal(w.date) || points[i].Price != w.price {
			t.Fatalf("point %d = %+v, want %v %v", i, points[i], w.date, w.price)
		}
	}
}

// A second call inside the gap-fill cooldown must hit no provider and return
// an identical sequence.
func TestFullHistoryIdempotentWithinCooldown(t *testing.T) {
	now := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)
	candles := &fakeCandles{candles: dailyCandles(day(2024, 1, 2), 101, 102, 103)}
	ph := newHistoryUnderTest(t, candles, &fakeHistory{}, now)

	baseline := &models.PriceSeries{
		AssetID: "btc",
		Points:  []models.PricePoint{{Date: day(2024, 1, 1), Price: 100}},
	}
	if err := ph.store.SaveBaseline(baseline); err != nil {
		t.Fatalf("seed baseline: %v", err)
	}

	first, err := ph.FullHistory(context.Background(), "btc")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	callsAfterFirst := candles.calls

	second, err := ph.FullHistory(context.Background(), "btc")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if candles.calls != callsAfterFirst {
		t.Fatalf("second call hit the provider: %d -> %d", callsAfterFirst, candles.calls)
	}
	if len(first) != len(second) {
		t.Fatalf("sequences differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Date.Equal(second[i].Date) || first[i].Price != second[i].Price {
			t.Fatalf("point %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestFullHistoryBootstrapsBaseline(t *testing.T) {
	now := time.Date(2023, 6, 10, 9, 0, 0, 0, time.UTC)
	history := &fakeHistory{}
	for d := day(2023, 6, 1); !d.After(day(2023, 6, 10)); d = d.AddDate(0, 0, 1) {
		history.points = append(history.points, models.PricePoint{Date: d, Price: float64(d.Day())})
	}
	ph := newHistoryUnderTest(t, &fakeCandles{}, history, now)

	points, err := ph.FullHistory(context.Background(), "alt")
	if err != nil {
		t.Fatalf("full history: %v", err)
	}
	// 06-01 through 06-09; 06-10 is the open day.
	if len(points) != 9 {
		t.Fatalf("points = %d: %+v", len(points), points)
	}
	if !points[len(points)-1].Date.Equal(day(2023, 6, 9)) {
		t.Fatalf("last point = %v, want 2023-06-09", points[len(points)-1].Date)
	}

	persisted, err := ph.store.Baseline("alt")
	if err != nil || persisted == nil {
		t.Fatalf("baseline not persisted: %v %v", persisted, err)
	}
	if len(persisted.Points) != 9 {
		t.Fatalf("persisted points = %d", len(persisted.Points))
	}
}

// An embedded baseline file may carry several samples inside one UTC day; the
// loaded series keeps one point per day with the last sample winning.
func TestEmbeddedBaselineCollapsesIntraDaySamples(t *testing.T) {
	now := time.Date(2023, 12, 31, 8, 0, 0, 0, time.UTC)
	raw, err := json.Marshal([]models.PricePoint{
		{Date: time.Date(2023, 12, 29, 12, 0, 0, 0, time.UTC), Price: 95},
		{Date: time.Date(2023, 12, 30, 5, 0, 0, 0, time.UTC), Price: 100},
		{Date: time.Date(2023, 12, 30, 18, 0, 0, 0, time.UTC), Price: 104},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	file := filepath.Join(t.TempDir(), "alt_baseline.json")
	if err := os.WriteFile(file, raw, 0o644); err != nil {
		t.Fatalf("write baseline file: %v", err)
	}

	store, err := repository.NewFilePriceStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	cfg := testConfig()
	cfg.Assets[1].BaselineFile = file
	ph := NewPriceHistory(cfg, store, &fakeCandles{}, &fakeHistory{}, testLogger(t), nopMetrics{})
	ph.now = func() time.Time { return now }

	points, err := ph.FullHistory(context.Background(), "alt")
	if err != nil {
		t.Fatalf("full history: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2: %+v", len(points), points)
	}
	if !points[1].Date.Equal(day(2023, 12, 30)) || points[1].Price != 104 {
		t.Fatalf("collapsed point = %+v, want 2023-12-30 at 104", points[1])
	}

	persisted, err := store.Baseline("alt")
	if err != nil || persisted == nil {
		t.Fatalf("baseline not persisted: %v %v", persisted, err)
	}
	if len(persisted.Points) != 2 {
		t.Fatalf("persisted points = %d, want 2", len(persisted.Points))
	}
}

// A failed bootstrap leaves no partial baseline and is not retried inside the
// cooldown window.
func TestBootstrapFailureCooldown(t *testing.T) {
	now := time.Date(2023, 6, 10, 9, 0, 0, 0, time.UTC)
	history := &fakeHistory{err: errors.New("upstream down")}
	ph := newHistoryUnderTest(t, &fakeCandles{}, history, now)

	if _, err := ph.FullHistory(context.Background(), "alt"); !errors.Is(err, models.ErrDataInsufficient) {
		t.Fatalf("expected ErrDataInsufficient, got %v", err)
	}
	callsAfterFirst := history.calls
	if callsAfterFirst == 0 {
		t.Fatalf("bootstrap never hit the provider")
	}

	if _, err := ph.FullHistory(context.Background(), "alt"); !errors.Is(err, models.ErrDataInsufficient) {
		t.Fatalf("expected ErrDataInsufficient, got %v", err)
	}
	if history.calls != callsAfterFirst {
		t.Fatalf("bootstrap retried inside cooldown")
	}

	if persisted, err := ph.store.Baseline("alt"); err != nil || persisted != nil {
		t.Fatalf("partial baseline persisted: %v %v", persisted, err)
	}
}

func TestFullHistoryUnknownAsset(t *testing.T) {
	ph := newHistoryUnderTest(t, &fakeCandles{}, &fakeHistory{}, time.Now())
	if _, err := ph.FullHistory(context.Background(), "nope"); !errors.Is(err, models.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestInvalidateDropsMemoOnly(t *testing.T) {
	now := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)
	candles := &fakeCandles{candles: dailyCandles(day(2024, 1, 2), 101, 102, 103)}
	ph := newHistoryUnderTest(t, candles, &fakeHistory{}, now)

	baseline := &models.PriceSeries{
		AssetID: "btc",
		Points:  []models.PricePoint{{Date: day(2024, 1, 1), Price: 100}},
	}
	if err := ph.store.SaveBaseline(baseline); err != nil {
		t.Fatalf("seed baseline: %v", err)
	}

	first, err := ph.FullHistory(context.Background(), "btc")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	ph.Invalidate("btc")
	second, err := ph.FullHistory(context.Background(), "btc")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("series changed after invalidate: %d vs %d", len(first), len(second))
	}
}
