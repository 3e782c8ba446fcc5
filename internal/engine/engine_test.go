package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verdantsense/verdant-core/internal/analysis"
	"github.com/verdantsense/verdant-core/internal/habitat"
	"github.com/verdantsense/verdant-core/internal/sensor"
	"github.com/verdantsense/verdant-core/internal/storage"
	"github.com/verdantsense/verdant-core/internal/telemetry"
	"github.com/verdantsense/verdant-core/internal/water"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeSampler struct {
	reading sensor.Reading
	err     error
}

func (f *fakeSampler) Sample(_ context.Context) (sensor.Reading, error) {
	return f.reading, f.err
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, _, _ string) habitat.Range {
	return habitat.DefaultRange()
}

type fakeAnalyzer struct {
	res analysis.Result
	err error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ sensor.Reading, _ habitat.Range, _ analysis.TrendSource) (analysis.Result, error) {
	return f.res, f.err
}

// fakeUploader records uploads and can be scripted to fail from a given
// call onwards (1-based; 0 means never fail).
type fakeUploader struct {
	online      bool
	failFrom    int
	uploads     []telemetry.Entry
	calls       int
	predictions []water.Prediction
	predErr     error
}

func (f *fakeUploader) IsOnline() bool { return f.online }

func (f *fakeUploader) Upload(_ context.Context, e telemetry.Entry) error {
	f.calls++
	if f.failFrom > 0 && f.calls >= f.failFrom {
		return errors.New("broker unreachable")
	}
	f.uploads = append(f.uploads, e)
	return nil
}

func (f *fakeUploader) UploadPrediction(_ context.Context, p water.Prediction) error {
	if f.predErr != nil {
		return f.predErr
	}
	f.predictions = append(f.predictions, p)
	return nil
}

type fakeStore struct {
	data map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Save(_ context.Context, key string, value []byte) error {
	f.data[key] = value
	return nil
}

func (f *fakeStore) Load(_ context.Context, key string) ([]byte, error) {
	v, ok := f.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v, nil
}

func testReading(ts time.Time) sensor.Reading {
	return sensor.Reading{
		SoilMoisture: 45,
		Light:        60,
		Temperature:  22,
		Humidity:     55,
		AirMovement:  10,
		Timestamp:    ts,
	}
}

func healthyResult() analysis.Result {
	return analysis.Result{
		Class:          analysis.Healthy,
		Confidence:     0.9,
		Mismatch:       habitat.Mismatch{},
		Recommendation: "Plant is healthy.",
	}
}

func newTestEngine(sampler Sampler, analyzer Analyzer, up Uploader) *Engine {
	return New(
		Config{
			Serial:       "VS-TEST",
			PlantName:    "monstera",
			PlantVariety: "deliciosa",
		},
		Options{
			Sampler:  sampler,
			Ranges:   fakeResolver{},
			Analyzer: analyzer,
			Uploader: up,
		},
	)
}

// =============================================================================
// Tick pipeline
// =============================================================================

func TestTickUploadsLiveWhenOnline(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sampler := &fakeSampler{reading: testReading(now)}
	up := &fakeUploader{online: true}

	e := newTestEngine(sampler, &fakeAnalyzer{res: healthyResult()}, up)
	e.tick(context.Background())

	if len(up.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(up.uploads))
	}
	if e.CacheCount() != 0 {
		t.Errorf("CacheCount() = %d, want 0", e.CacheCount())
	}

	got := up.uploads[0]
	if got.HealthStatus != "Healthy" {
		t.Errorf("HealthStatus = %q, want %q", got.HealthStatus, "Healthy")
	}
	if got.PlantStatus != "Healthy" {
		t.Errorf("PlantStatus = %q, want %q", got.PlantStatus, "Healthy")
	}
	if !got.Valid {
		t.Error("uploaded entry should be valid")
	}
}

func TestTickParksWhenOffline(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sampler := &fakeSampler{reading: testReading(now)}
	up := &fakeUploader{online: false}

	e := newTestEngine(sampler, &fakeAnalyzer{res: healthyResult()}, up)

	for i := 0; i < 3; i++ {
		e.tick(context.Background())
	}

	if len(up.uploads) != 0 {
		t.Errorf("uploads = %d, want 0 while offline", len(up.uploads))
	}
	if e.CacheCount() != 3 {
		t.Errorf("CacheCount() = %d, want 3", e.CacheCount())
	}
}

func TestTickDrainsCacheOnReconnect(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sampler := &fakeSampler{reading: testReading(now)}
	up := &fakeUploader{online: false}

	e := newTestEngine(sampler, &fakeAnalyzer{res: healthyResult()}, up)

	// Three offline ticks accumulate a backlog.
	for i := 0; i < 3; i++ {
		e.tick(context.Background())
	}

	// Connectivity returns: next tick drains backlog plus the live entry.
	up.online = true
	e.tick(context.Background())

	if len(up.uploads) != 4 {
		t.Fatalf("uploads = %d, want 4 (3 cached + 1 live)", len(up.uploads))
	}
	if e.CacheCount() != 0 {
		t.Errorf("CacheCount() = %d after drain, want 0", e.CacheCount())
	}
}

func TestTickDrainFailureKeepsCache(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sampler := &fakeSampler{reading: testReading(now)}
	up := &fakeUploader{online: false}

	e := newTestEngine(sampler, &fakeAnalyzer{res: healthyResult()}, up)

	for i := 0; i < 3; i++ {
		e.tick(context.Background())
	}

	// Second cached upload fails: nothing may be lost, and the live
	// reading joins the backlog.
	up.online = true
	up.failFrom = 2
	e.tick(context.Background())

	if e.CacheCount() != 4 {
		t.Errorf("CacheCount() = %d, want 4 (3 kept + 1 parked)", e.CacheCount())
	}
}

func TestTickLiveFailureParksEntry(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sampler := &fakeSampler{reading: testReading(now)}

	// Empty cache, so the first (and only) upload this tick is the live
	// entry, and it fails.
	up := &fakeUploader{online: true, failFrom: 1}

	e := newTestEngine(sampler, &fakeAnalyzer{res: healthyResult()}, up)
	e.tick(context.Background())

	if e.CacheCount() != 1 {
		t.Errorf("CacheCount() = %d, want 1 after live upload failure", e.CacheCount())
	}
}

func TestTickSampleFailureSkips(t *testing.T) {
	sampler := &fakeSampler{err: errors.New("no frame yet")}
	up := &fakeUploader{online: true}

	e := newTestEngine(sampler, &fakeAnalyzer{res: healthyResult()}, up)
	e.tick(context.Background())

	if len(up.uploads) != 0 {
		t.Errorf("uploads = %d, want 0 when sampling fails", len(up.uploads))
	}
	if e.CacheCount() != 0 {
		t.Errorf("CacheCount() = %d, want 0 when sampling fails", e.CacheCount())
	}
	if e.history.Current(0) != 0 {
		t.Error("history should stay empty when sampling fails")
	}
}

func TestTickInferenceFailureStillShips(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sampler := &fakeSampler{reading: testReading(now)}
	up := &fakeUploader{online: true}

	e := newTestEngine(sampler, &fakeAnalyzer{err: errors.New("model unavailable")}, up)
	e.tick(context.Background())

	if len(up.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(up.uploads))
	}

	got := up.uploads[0]
	if got.HealthStatus != "Unknown" {
		t.Errorf("HealthStatus = %q, want %q", got.HealthStatus, "Unknown")
	}
	if got.PlantStatus != "Unknown" {
		t.Errorf("PlantStatus = %q, want %q", got.PlantStatus, "Unknown")
	}
	if got.EnvironmentalMismatch != "none" {
		t.Errorf("EnvironmentalMismatch = %q, want %q", got.EnvironmentalMismatch, "none")
	}
	if got.Reading.SoilMoisture != 45 {
		t.Errorf("raw reading not preserved: SoilMoisture = %v", got.Reading.SoilMoisture)
	}
}

// =============================================================================
// Prediction upload gating
// =============================================================================

func TestTickNoPredictionWithoutHistory(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sampler := &fakeSampler{reading: testReading(now)}
	up := &fakeUploader{online: true}

	e := newTestEngine(sampler, &fakeAnalyzer{res: healthyResult()}, up)
	e.tick(context.Background())

	if len(up.predictions) != 0 {
		t.Errorf("predictions = %d, want 0 with no moisture history", len(up.predictions))
	}
}

func TestTickUploadsConfidentPrediction(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Three days of perfectly steady decline at 0.5 %/hour. The live
	// reading continues the slope, so every pair is usable with zero
	// spread: confidence lands at 100, well past the 30-point gate.
	start := now.Add(-73 * time.Hour)
	reading := testReading(now)
	reading.SoilMoisture = 48.5

	sampler := &fakeSampler{reading: reading}
	up := &fakeUploader{online: true}

	e := newTestEngine(sampler, &fakeAnalyzer{res: healthyResult()}, up)
	e.now = func() time.Time { return now }

	moisture := 85.0
	for i := 0; i <= 72; i++ {
		e.water.Add(moisture, start.Add(time.Duration(i)*time.Hour))
		moisture -= 0.5
	}

	e.tick(context.Background())

	if len(up.predictions) != 1 {
		t.Fatalf("predictions = %d, want 1", len(up.predictions))
	}

	pred := up.predictions[0]
	if pred.DailyConsumptionRate != 12 {
		t.Errorf("DailyConsumptionRate = %v, want 12", pred.DailyConsumptionRate)
	}
	if pred.NextWatering == nil {
		t.Fatal("NextWatering = nil, want a forecast")
	}
	if pred.Confidence <= 30 {
		t.Errorf("Confidence = %v, want > 30", pred.Confidence)
	}
}

// =============================================================================
// Persistence round trip
// =============================================================================

func TestStateSurvivesRestart(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sampler := &fakeSampler{reading: testReading(now)}
	store := newFakeStore()

	e1 := New(
		Config{Serial: "VS-TEST"},
		Options{
			Sampler:  sampler,
			Ranges:   fakeResolver{},
			Analyzer: &fakeAnalyzer{res: healthyResult()},
			Uploader: &fakeUploader{online: false},
			Store:    store,
		},
	)

	for i := 0; i < 2; i++ {
		e1.tick(context.Background())
	}
	if e1.CacheCount() != 2 {
		t.Fatalf("CacheCount() = %d before restart, want 2", e1.CacheCount())
	}

	// Fresh engine over the same store: restore brings the backlog and
	// histories back.
	e2 := New(
		Config{Serial: "VS-TEST"},
		Options{
			Sampler:  sampler,
			Ranges:   fakeResolver{},
			Analyzer: &fakeAnalyzer{res: healthyResult()},
			Uploader: &fakeUploader{online: false},
			Store:    store,
		},
	)
	e2.persist.restore(context.Background(), e2.history, e2.water, e2.cache)

	if e2.CacheCount() != 2 {
		t.Errorf("CacheCount() = %d after restore, want 2", e2.CacheCount())
	}
	if e2.water.Len() != 2 {
		t.Errorf("water.Len() = %d after restore, want 2", e2.water.Len())
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestStartStop(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sampler := &fakeSampler{reading: testReading(now)}
	up := &fakeUploader{online: true}

	e := New(
		Config{Serial: "VS-TEST", Interval: time.Hour},
		Options{
			Sampler:  sampler,
			Ranges:   fakeResolver{},
			Analyzer: &fakeAnalyzer{res: healthyResult()},
			Uploader: up,
		},
	)

	e.Start(context.Background())
	e.Stop()
	e.Stop() // Safe to call twice.
}

func TestKickNeverBlocks(t *testing.T) {
	e := newTestEngine(
		&fakeSampler{},
		&fakeAnalyzer{res: healthyResult()},
		&fakeUploader{},
	)

	// No loop running; repeated kicks must not block.
	e.Kick()
	e.Kick()
	e.Kick()
}
