// Verdant - Plant Health & Water-Usage Analytics Daemon
//
// This is the main entry point for the Verdant daemon. Verdant runs on
// the plant monitor's hub and is designed for:
//   - Offline-first operation (telemetry is cached through outages)
//   - Battery-conscious periodic sampling
//   - Graceful degradation (analysis falls back, uploads defer, the
//     device keeps measuring)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/verdantsense/verdant-core/migrations"

	"github.com/verdantsense/verdant-core/internal/analysis"
	"github.com/verdantsense/verdant-core/internal/engine"
	"github.com/verdantsense/verdant-core/internal/habitat"
	"github.com/verdantsense/verdant-core/internal/inference"
	"github.com/verdantsense/verdant-core/internal/infrastructure/config"
	"github.com/verdantsense/verdant-core/internal/infrastructure/database"
	"github.com/verdantsense/verdant-core/internal/infrastructure/influxdb"
	"github.com/verdantsense/verdant-core/internal/infrastructure/logging"
	"github.com/verdantsense/verdant-core/internal/infrastructure/metrics"
	"github.com/verdantsense/verdant-core/internal/infrastructure/mqtt"
	"github.com/verdantsense/verdant-core/internal/sensor"
	"github.com/verdantsense/verdant-core/internal/storage"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Verdant",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Key-value state store backing histories, the offline cache, and the
	// habitat profile cache
	store := storage.NewSQLiteStore(db.DB)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Device.Serial)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetLogger(log)
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional local mirror)
	var influxClient *influxdb.Client
	var mirror engine.Mirror
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		mirror = influxdb.NewMirror(influxClient, cfg.Device.Serial)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start metrics server (optional)
	var metricsErr <-chan error
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Addr)
		metricsErr = metricsServer.Start()
		defer func() {
			log.Info("stopping metrics server")
			if stopErr := metricsServer.Stop(); stopErr != nil {
				log.Error("error stopping metrics server", "error", stopErr)
			}
		}()
		log.Info("metrics server started", "addr", cfg.Metrics.Addr)
	} else {
		log.Info("metrics server disabled")
	}

	// Habitat catalogue provider (remote fetch with cached fallback)
	habitatProvider := habitat.NewProvider(cfg.Habitat.CatalogueURL, store)
	habitatProvider.SetLogger(log)

	// Health classifier: remote model service if configured, otherwise the
	// built-in heuristic baseline
	var scorer analysis.Scorer
	if cfg.Inference.ServiceURL != "" {
		scorer = inference.NewHTTPScorer(cfg.Inference.ServiceURL)
		log.Info("using remote inference service", "url", cfg.Inference.ServiceURL)
	} else {
		scorer = inference.Baseline{}
		log.Info("using baseline classifier")
	}
	pipeline := analysis.NewPipeline(scorer)

	// Reading source: live frames from the measurement head, or the
	// simulator for development
	sampler, err := buildSampler(cfg, mqttClient, log)
	if err != nil {
		return fmt.Errorf("setting up reading source: %w", err)
	}
	log.Info("reading source ready", "source", cfg.Sampling.Source)

	// Cloud uploader publishing telemetry and forecasts over MQTT
	uploader := engine.NewMQTTUploader(
		mqttClient,
		cfg.Device.Serial,
		cfg.Device.PlantName,
		cfg.Device.PlantVariety,
		byte(cfg.MQTT.QoS),
	)

	// Assemble and start the analytics engine
	eng := engine.New(engine.Config{
		Serial:                  cfg.Device.Serial,
		PlantName:               cfg.Device.PlantName,
		PlantVariety:            cfg.Device.PlantVariety,
		Interval:                cfg.GetSamplingInterval(),
		MoistureThreshold:       cfg.Device.MoistureThreshold,
		MinPredictionConfidence: cfg.Device.PredictionMinConfidence,
	}, engine.Options{
		Sampler:  sampler,
		Ranges:   habitatProvider,
		Analyzer: pipeline,
		Uploader: uploader,
		Store:    store,
		Mirror:   mirror,
		Logger:   log,
	})
	eng.Start(ctx)
	defer func() {
		log.Info("stopping engine")
		eng.Stop()
	}()

	// Wake the engine when connectivity returns so the offline cache
	// drains immediately rather than waiting out the interval
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		eng.Kick()
	})

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal or a metrics server failure
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case err := <-metricsErr:
		if err != nil {
			return err
		}
		<-ctx.Done()
		log.Info("shutdown signal received, cleaning up")
	}

	// Deferred Close() calls will run in reverse order:
	// 1. Engine
	// 2. Metrics server (if enabled)
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("Verdant stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses VERDANT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("VERDANT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildSampler creates the reading source named by the config.
//
// Parameters:
//   - cfg: Application configuration
//   - mqttClient: MQTT client carrying raw sensor frames
//   - log: Logger instance
//
// Returns:
//   - engine.Sampler: Ready reading source
//   - error: If the frame subscription fails
func buildSampler(cfg *config.Config, mqttClient *mqtt.Client, log *logging.Logger) (engine.Sampler, error) {
	if cfg.Sampling.Source == "sim" {
		return sensor.NewSimulator(cfg.Sampling.SimSeed), nil
	}

	bus := sensor.NewBus(cfg.GetFrameMaxAge())
	bus.SetLogger(log)

	adapter := &frameSubscriberAdapter{client: mqttClient}
	topic := mqtt.Topics{}.Readings(cfg.Device.Serial)
	if err := bus.Start(adapter, topic, byte(cfg.MQTT.QoS)); err != nil {
		return nil, err
	}
	return bus, nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// frameSubscriberAdapter adapts the infrastructure MQTT client to the
// sensor bus's Subscriber interface. The difference is the handler
// signature:
//   - Infrastructure mqtt: func(topic string, payload []byte) error
//   - Sensor bus expects:  func(topic string, payload []byte)
type frameSubscriberAdapter struct {
	client *mqtt.Client
}

// Subscribe implements sensor.Subscriber.
func (a *frameSubscriberAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	// Wrap the void handler to return nil error (frame handlers don't
	// return errors; bad frames are dropped inside the bus)
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}
