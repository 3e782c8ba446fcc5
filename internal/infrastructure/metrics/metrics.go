package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload kind label values.
const (
	UploadLive       = "live"
	UploadCached     = "cached"
	UploadPrediction = "prediction"
)

var (
	// TicksTotal counts completed pipeline ticks.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdant_ticks_total",
		Help: "Completed analytics pipeline ticks.",
	})

	// SampleFailures counts ticks where no reading could be obtained.
	SampleFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdant_sample_failures_total",
		Help: "Ticks aborted because no sensor reading was available.",
	})

	// InferenceFailures counts readings dropped from analysis because
	// the classifier failed.
	InferenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdant_inference_failures_total",
		Help: "Readings that could not be classified.",
	})

	// UploadsTotal counts successful uploads by kind (live, cached,
	// prediction).
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verdant_uploads_total",
		Help: "Successful telemetry uploads by kind.",
	}, []string{"kind"})

	// UploadFailures counts failed uploads by kind.
	UploadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verdant_upload_failures_total",
		Help: "Failed telemetry uploads by kind.",
	}, []string{"kind"})

	// PersistFailures counts best-effort state saves that failed.
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdant_persist_failures_total",
		Help: "State snapshot saves that failed (processing continued in memory).",
	})

	// CacheDepth tracks the offline telemetry cache fill level.
	CacheDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "verdant_cache_depth",
		Help: "Entries currently held in the offline telemetry cache.",
	})

	// WateringConfidence tracks the latest forecast confidence (0-100).
	WateringConfidence = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "verdant_watering_confidence",
		Help: "Confidence of the latest watering forecast, 0-100.",
	})
)
