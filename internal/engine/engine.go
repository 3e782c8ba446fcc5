package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/verdantsense/verdant-core/internal/analysis"
	"github.com/verdantsense/verdant-core/internal/habitat"
	"github.com/verdantsense/verdant-core/internal/history"
	"github.com/verdantsense/verdant-core/internal/infrastructure/metrics"
	"github.com/verdantsense/verdant-core/internal/sensor"
	"github.com/verdantsense/verdant-core/internal/telemetry"
	"github.com/verdantsense/verdant-core/internal/water"
)

// Defaults applied by New when the config leaves them zero.
const (
	defaultInterval          = 60 * time.Second
	defaultMoistureThreshold = 30.0
	defaultMinPredConfidence = 30.0
)

// Sampler produces the current sensor reading.
// Implemented by sensor.Bus and sensor.Simulator.
type Sampler interface {
	Sample(ctx context.Context) (sensor.Reading, error)
}

// RangeResolver supplies the plant's habitat envelope.
// Implemented by habitat.Provider; never fails, only degrades.
type RangeResolver interface {
	Resolve(ctx context.Context, name, variety string) habitat.Range
}

// Analyzer classifies a reading. Implemented by analysis.Pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, reading sensor.Reading, rng habitat.Range, trends analysis.TrendSource) (analysis.Result, error)
}

// Uploader is the cloud-facing capability: connectivity state, telemetry
// entry upload (live and cached share one document shape), and watering
// prediction upload.
type Uploader interface {
	telemetry.Sink

	// IsOnline reports whether uploads can be attempted this tick.
	IsOnline() bool

	// UploadPrediction ships a watering forecast.
	UploadPrediction(ctx context.Context, pred water.Prediction) error
}

// Mirror receives a local copy of readings and predictions, typically an
// InfluxDB bucket. Best-effort and optional.
type Mirror interface {
	MirrorReading(reading sensor.Reading)
	MirrorPrediction(pred water.Prediction)
	MirrorCacheDepth(depth int)
}

// Logger interface for engine logging.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the engine's tunables.
type Config struct {
	// Serial is the device serial number keying all persisted state.
	Serial string

	// PlantName and PlantVariety identify the monitored plant for
	// habitat resolution and telemetry documents.
	PlantName    string
	PlantVariety string

	// Interval is the tick period. Default 60s.
	Interval time.Duration

	// MoistureThreshold is the soil moisture percentage at which
	// watering is due. Default 30.
	MoistureThreshold float64

	// MinPredictionConfidence gates prediction uploads: forecasts at or
	// below this confidence stay on the device. Default 30.
	MinPredictionConfidence float64
}

// Options carries the engine's collaborators. Sampler, Ranges, Analyzer
// and Uploader are required; Store, Mirror and Logger are optional.
type Options struct {
	Sampler  Sampler
	Ranges   RangeResolver
	Analyzer Analyzer
	Uploader Uploader
	Store    StateStore
	Mirror   Mirror
	Logger   Logger
}

// Engine is the periodic analytics task.
//
// Thread Safety:
//   - The buffers (histories, cache) are mutated only by the tick loop.
//   - Kick and Stop may be called from any goroutine.
type Engine struct {
	cfg      Config
	sampler  Sampler
	ranges   RangeResolver
	analyzer Analyzer
	uploader Uploader
	mirror   Mirror
	logger   Logger

	persist *persister

	history *history.Store
	water   *water.History
	cache   *telemetry.Cache

	now func() time.Time

	// kick wakes the loop early when connectivity returns.
	kick chan struct{}

	// Shutdown coordination (stopOnce prevents double-close panics).
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates an Engine.
func New(cfg Config, opts Options) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.MoistureThreshold == 0 {
		cfg.MoistureThreshold = defaultMoistureThreshold
	}
	if cfg.MinPredictionConfidence == 0 {
		cfg.MinPredictionConfidence = defaultMinPredConfidence
	}

	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &Engine{
		cfg:      cfg,
		sampler:  opts.Sampler,
		ranges:   opts.Ranges,
		analyzer: opts.Analyzer,
		uploader: opts.Uploader,
		mirror:   opts.Mirror,
		logger:   logger,
		persist:  newPersister(opts.Store, cfg.Serial, logger),
		history:  history.NewStore(),
		water:    water.NewHistory(),
		cache:    telemetry.NewCache(),
		now:      time.Now,
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start restores persisted state and launches the tick loop.
// Call Stop to shut down.
func (e *Engine) Start(ctx context.Context) {
	e.persist.restore(ctx, e.history, e.water, e.cache)
	metrics.CacheDepth.Set(float64(e.cache.Count()))
	e.logger.Info("engine started",
		"interval", e.cfg.Interval,
		"cached_entries", e.cache.Count(),
		"water_samples", e.water.Len(),
	)

	e.wg.Add(1)
	go e.loop(ctx)
}

// Stop shuts the tick loop down and waits for an in-flight tick to
// finish. Safe to call multiple times.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.done)
		e.wg.Wait()
	})
}

// Kick wakes the loop for an immediate tick, used when connectivity
// returns so cached telemetry drains without waiting out the interval.
// Never blocks; a pending kick is enough.
func (e *Engine) Kick() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// CacheCount returns the current offline cache depth.
func (e *Engine) CacheCount() int {
	return e.cache.Count()
}

// loop runs ticks until the context is cancelled or Stop is called.
func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	// First tick immediately rather than one interval in.
	e.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-ticker.C:
			e.tick(ctx)
		case <-e.kick:
			e.logger.Info("connectivity kick, running tick early")
			e.tick(ctx)
		}
	}
}

// tick runs one full pipeline pass.
func (e *Engine) tick(ctx context.Context) {
	defer metrics.TicksTotal.Inc()

	reading, err := e.sampler.Sample(ctx)
	if err != nil {
		metrics.SampleFailures.Inc()
		e.logger.Warn("no reading this tick", "error", err)
		return
	}

	// Histories first: even an unclassifiable reading feeds the trends.
	e.history.Record(reading)
	e.water.Add(reading.SoilMoisture, reading.Timestamp)
	e.persist.saveHistory(ctx, e.history)
	e.persist.saveWater(ctx, e.water)

	if e.mirror != nil {
		e.mirror.MirrorReading(reading)
	}

	rng := e.ranges.Resolve(ctx, e.cfg.PlantName, e.cfg.PlantVariety)

	var entry telemetry.Entry
	res, err := e.analyzer.Analyze(ctx, reading, rng, e.history)
	if err != nil {
		metrics.InferenceFailures.Inc()
		e.logger.Warn("analysis failed, caching raw reading", "error", err)
		entry = telemetry.NewUnanalysedEntry(reading)
	} else {
		entry = telemetry.NewEntry(reading, res)
		e.logger.Debug("reading analysed",
			"class", res.Class.String(),
			"confidence", res.Confidence,
			"mismatch", res.Mismatch.String(),
		)
	}

	pred := e.predict(reading)

	if e.uploader.IsOnline() {
		e.ship(ctx, entry, pred)
	} else {
		e.park(ctx, entry)
	}

	metrics.CacheDepth.Set(float64(e.cache.Count()))
	if e.mirror != nil {
		e.mirror.MirrorCacheDepth(e.cache.Count())
	}
}

// predict runs the watering forecast for this tick.
func (e *Engine) predict(reading sensor.Reading) water.Prediction {
	pred, err := e.water.Predict(e.now(), reading.SoilMoisture, e.cfg.MoistureThreshold)
	switch {
	case errors.Is(err, water.ErrInsufficientData):
		e.logger.Debug("not enough history for watering forecast", "samples", e.water.Len())
	case err != nil:
		e.logger.Warn("watering forecast failed", "error", err)
	default:
		metrics.WateringConfidence.Set(pred.Confidence)
		if e.mirror != nil {
			e.mirror.MirrorPrediction(pred)
		}
	}
	return pred
}

// ship drains the cache, uploads the live entry, and publishes the
// forecast. Any upload failure parks the live entry and leaves the cache
// for the next attempt; the cache clears only after everything went out.
func (e *Engine) ship(ctx context.Context, entry telemetry.Entry, pred water.Prediction) {
	if err := e.cache.Drain(ctx, e.uploader); err != nil {
		metrics.UploadFailures.WithLabelValues(metrics.UploadCached).Inc()
		e.logger.Warn("cache drain aborted, keeping cache intact",
			"cached", e.cache.Count(), "error", err)
		e.park(ctx, entry)
		return
	}

	drained := e.cache.Count()
	if err := e.uploader.Upload(ctx, entry); err != nil {
		metrics.UploadFailures.WithLabelValues(metrics.UploadLive).Inc()
		e.logger.Warn("live upload failed, caching entry", "error", err)
		e.park(ctx, entry)
		return
	}
	metrics.UploadsTotal.WithLabelValues(metrics.UploadLive).Inc()

	// Everything is out: now, and only now, the cache can go.
	if drained > 0 {
		metrics.UploadsTotal.WithLabelValues(metrics.UploadCached).Add(float64(drained))
		e.cache.Clear()
		e.persist.saveCache(ctx, e.cache)
		e.logger.Info("offline cache drained", "entries", drained)
	}

	if pred.Confidence > e.cfg.MinPredictionConfidence {
		if err := e.uploader.UploadPrediction(ctx, pred); err != nil {
			metrics.UploadFailures.WithLabelValues(metrics.UploadPrediction).Inc()
			e.logger.Warn("prediction upload failed", "error", err)
		} else {
			metrics.UploadsTotal.WithLabelValues(metrics.UploadPrediction).Inc()
		}
	}
}

// park enqueues an entry into the offline cache and persists it.
func (e *Engine) park(ctx context.Context, entry telemetry.Entry) {
	e.cache.Enqueue(entry)
	e.persist.saveCache(ctx, e.cache)
}

// nopLogger discards everything; used when no logger is wired.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
