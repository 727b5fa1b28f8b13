package usecase

import (
	"math"
	"testing"
	"time"

	"RiskPulse/internal/repository"
)

func newTrackerUnderTest(t *testing.T, now time.Time) *ConfidenceTracker {
	t.Helper()
	store, err := repository.NewFileMetricsStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	tr := NewConfidenceTracker(testConfig(), store, testLogger(t))
	tr.now = func() time.Time { return now }
	if err := tr.LoadAll(); err != nil {
		t.Fatalf("load all: %v", err)
	}
	return tr
}

// A high-risk call at price 100 followed by price 93 thirty days later is a
// correct 30-day prediction (drop of at least 5%).
func TestPredictionValidatedCorrectAfterThirtyDays(t *testing.T) {
	created := day(2024, 1, 1)
	tr := newTrackerUnderTest(t, created)

	if err := tr.RecordCalculation("btc", 0.9, 400, 0.62, 100, created); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := tr.RecordCalculation("btc", 0.9, 430, 0.5, 93, created.AddDate(0, 0, 30)); err != nil {
		t.Fatalf("validate: %v", err)
	}

	m := tr.byAsset["btc"]
	if len(m.Predictions) != 1 {
		t.Fatalf("predictions = %d", len(m.Predictions))
	}
	s := m.Predictions[0]
	if s.PriceAfter30 == nil || *s.PriceAfter30 != 93 {
		t.Fatalf("price after 30 = %v", s.PriceAfter30)
	}
	if s.Correct30 == nil || !*s.Correct30 {
		t.Fatalf("correct30 = %v, want true", s.Correct30)
	}
	if s.Correct60 != nil || s.Correct90 != nil {
		t.Fatalf("later horizons filled early: %+v", s)
	}
	if s.ValidatedAt == nil {
		t.Fatalf("validation timestamp missing")
	}
}

func TestLowRiskPredictionNeedsRise(t *testing.T) {
	created := day(2024, 1, 1)
	tr := newTrackerUnderTest(t, created)

	if err := tr.RecordCalculation("btc", 0.9, 400, 0.30, 100, created); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Price only moved +3%: an incorrect low-risk call.
	if err := tr.RecordCalculation("btc", 0.9, 430, 0.5, 103, created.AddDate(0, 0, 31)); err != nil {
		t.Fatalf("validate: %v", err)
	}

	s := tr.byAsset["btc"].Predictions[0]
	if s.Correct30 == nil || *s.Correct30 {
		t.Fatalf("correct30 = %v, want false", s.Correct30)
	}
}

func TestNeutralRiskCreatesNoPrediction(t *testing.T) {
	tr := newTrackerUnderTest(t, day(2024, 1, 1))
	for _, risk := range []float64{0.45, 0.5, 0.55} {
		if err := tr.RecordCalculation("btc", 0.9, 400, risk, 100, day(2024, 1, 1)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if n := len(tr.byAsset["btc"].Predictions); n != 0 {
		t.Fatalf("neutral band produced %d predictions", n)
	}
}

func TestOnePredictionPerCalendarDay(t *testing.T) {
	tr := newTrackerUnderTest(t, day(2024, 1, 1))
	morning := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC)

	if err := tr.RecordCalculation("btc", 0.9, 400, 0.70, 100, morning); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := tr.RecordCalculation("btc", 0.9, 400, 0.72, 101, evening); err != nil {
		t.Fatalf("record: %v", err)
	}
	if n := len(tr.byAsset["btc"].Predictions); n != 1 {
		t.Fatalf("predictions = %d, want 1", n)
	}
}

func TestHistoriesTrimmedToCap(t *testing.T) {
	tr := newTrackerUnderTest(t, day(2024, 1, 1))
	start := day(2020, 1, 1)
	for i := 0; i < 200; i++ {
		if err := tr.RecordCalculation("btc", 0.9, 400, 0.5, 100, start.AddDate(0, 0, i)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	m := tr.byAsset["btc"]
	if len(m.RSquaredHistory) != 180 || len(m.DataVolumeHistory) != 180 {
		t.Fatalf("history caps: %d / %d", len(m.RSquaredHistory), len(m.DataVolumeHistory))
	}
	// Oldest entries dropped first.
	if !m.RSquaredHistory[0].Date.Equal(start.AddDate(0, 0, 20)) {
		t.Fatalf("oldest kept = %v", m.RSquaredHistory[0].Date)
	}
}

func TestValidatedSnapshotNeverMutated(t *testing.T) {
	created := day(2024, 1, 1)
	tr := newTrackerUnderTest(t, created)

	if err := tr.RecordCalculation("btc", 0.9, 400, 0.62, 100, created); err != nil {
		t.Fatalf("record: %v", err)
	}
	// One call past the 90-day mark fills all three horizons.
	if err := tr.RecordCalculation("btc", 0.9, 430, 0.5, 90, created.AddDate(0, 0, 95)); err != nil {
		t.Fatalf("validate: %v", err)
	}
	s := tr.byAsset["btc"].Predictions[0]
	if s.Correct30 == nil || s.Correct60 == nil || s.Correct90 == nil {
		t.Fatalf("horizons not filled: %+v", s)
	}

	// A later call with a different price must not rewrite the outcome.
	if err := tr.RecordCalculation("btc", 0.9, 430, 0.5, 200, created.AddDate(0, 0, 120)); err != nil {
		t.Fatalf("record: %v", err)
	}
	s = tr.byAsset["btc"].Predictions[0]
	if *s.PriceAfter90 != 90 {
		t.Fatalf("validated snapshot mutated: %v", *s.PriceAfter90)
	}
}

func TestAdaptiveConfidenceBonuses(t *testing.T) {
	tr := newTrackerUnderTest(t, day(2024, 1, 1))

	// Static 6, latest R^2 0.95 -> bonus 0.5; 1460 points ->
	// log2(4)/4 = 0.5; no validated predictions yet.
	if err := tr.RecordCalculation("btc", 0.95, 1460, 0.5, 100, day(2024, 1, 1)); err != nil {
		t.Fatalf("record: %v", err)
	}
	res, err := tr.AdaptiveConfidence("btc")
	if err != nil {
		t.Fatalf("confidence: %v", err)
	}
	if math.Abs(res.RSquaredBonus-0.5) > 1e-9 {
		t.Fatalf("r-squared bonus = %v", res.RSquaredBonus)
	}
	if math.Abs(res.DataPointBonus-0.5) > 1e-9 {
		t.Fatalf("data point bonus = %v", res.DataPointBonus)
	}
	if res.AccuracyBonus != 0 {
		t.Fatalf("accuracy bonus = %v without validated predictions", res.AccuracyBonus)
	}
	if res.Adaptive != 7 {
		t.Fatalf("adaptive = %d, want 7", res.Adaptive)
	}
}

func TestAdaptiveConfidenceBounds(t *testing.T) {
	tr := newTrackerUnderTest(t, day(2024, 1, 1))

	// Awful fit drags the score down, but never below static-1.
	if err := tr.RecordCalculation("btc", 0.1, 100, 0.5, 100, day(2024, 1, 1)); err != nil {
		t.Fatalf("record: %v", err)
	}
	res, err := tr.AdaptiveConfidence("btc")
	if err != nil {
		t.Fatalf("confidence: %v", err)
	}
	if res.Adaptive < 5 || res.Adaptive > 9 {
		t.Fatalf("adaptive = %d outside [static-1, 9]", res.Adaptive)
	}
}

func TestAdaptiveConfidenceAccuracy(t *testing.T) {
	created := day(2023, 1, 1)
	tr := newTrackerUnderTest(t, created)

	// Five high-risk calls on consecutive days, all followed by a crash:
	// a perfect hit rate.
	for i := 0; i < 5; i++ {
		d := created.AddDate(0, 0, i)
		if err := tr.RecordCalculation("btc", 0.85, 400, 0.70, 100, d); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if err := tr.RecordCalculation("btc", 0.85, 430, 0.5, 80, created.AddDate(0, 0, 40)); err != nil {
		t.Fatalf("validate: %v", err)
	}

	res, err := tr.AdaptiveConfidence("btc")
	if err != nil {
		t.Fatalf("confidence: %v", err)
	}
	if res.ValidatedCount != 5 {
		t.Fatalf("validated = %d", res.ValidatedCount)
	}
	if res.HitRate == nil || *res.HitRate != 1.0 {
		t.Fatalf("hit rate = %v", res.HitRate)
	}
	if math.Abs(res.AccuracyBonus-1.0) > 1e-9 {
		t.Fatalf("accuracy bonus = %v", res.AccuracyBonus)
	}
}

func TestMetricsPersistAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	store, err := repository.NewFileMetricsStore(dir, nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	tr := NewConfidenceTracker(testConfig(), store, testLogger(t))
	if err := tr.LoadAll(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := tr.RecordCalculation("btc", 0.92, 500, 0.70, 100, day(2024, 1, 1)); err != nil {
		t.Fatalf("record: %v", err)
	}

	store2, err := repository.NewFileMetricsStore(dir, nil)
	if err != nil {
		t.Fatalf("store2: %v", err)
	}
	tr2 := NewConfidenceTracker(testConfig(), store2, testLogger(t))
	if err := tr2.LoadAll(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	m := tr2.byAsset["btc"]
	if m == nil || len(m.Predictions) != 1 || len(m.RSquaredHistory) != 1 {
		t.Fatalf("metrics lost on restart: %+v", m)
	}
}
