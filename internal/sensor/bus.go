package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Subscriber is the transport capability Bus needs to receive raw frames.
// This is typically implemented by an adapter over the MQTT client.
type Subscriber interface {
	// Subscribe registers a handler for messages on the specified topic.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// Bus is a reading source fed by raw sensor frames arriving over the
// message bus. The measurement head publishes a JSON frame per sample;
// Bus retains the latest valid frame and hands it to the engine on demand.
//
// Frames arrive on broker goroutines while Sample is called from the
// engine's periodic task, so the latest-frame slot is mutex-guarded. The
// engine's own buffers never see more than one writer.
type Bus struct {
	maxAge time.Duration
	now    func() time.Time

	latest   Reading
	hasFrame bool
	mu       sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// NewBus creates a Bus.
//
// Parameters:
//   - maxAge: Sample fails with ErrStaleReading when the latest frame is
//     older than this. Zero disables the staleness check.
func NewBus(maxAge time.Duration) *Bus {
	return &Bus{
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Start subscribes to the raw frame topic. Must be called once before the
// engine starts sampling.
func (b *Bus) Start(sub Subscriber, topic string, qos byte) error {
	if err := sub.Subscribe(topic, qos, b.handleFrame); err != nil {
		return fmt.Errorf("subscribing to frame topic: %w", err)
	}
	return nil
}

// SetLogger sets the logger for dropped-frame warnings.
func (b *Bus) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

// Sample returns the most recent valid frame.
//
// Returns:
//   - Reading: the latest frame
//   - error: ErrNoReading before the first frame, ErrStaleReading when the
//     frame has outlived maxAge
func (b *Bus) Sample(_ context.Context) (Reading, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.hasFrame {
		return Reading{}, ErrNoReading
	}
	if b.maxAge > 0 {
		if age := b.now().Sub(b.latest.Timestamp); age > b.maxAge {
			return Reading{}, fmt.Errorf("%w: frame is %s old", ErrStaleReading, age.Round(time.Second))
		}
	}
	return b.latest, nil
}

// handleFrame decodes and validates an incoming frame, keeping it as the
// latest reading. Malformed or out-of-range frames are dropped.
func (b *Bus) handleFrame(topic string, payload []byte) {
	var r Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		b.warn("dropping undecodable sensor frame", "topic", topic, "error", err)
		return
	}

	// Frames without a timestamp are stamped on arrival.
	if r.Timestamp.IsZero() {
		r.Timestamp = b.now()
	}

	if err := r.Validate(); err != nil {
		b.warn("dropping invalid sensor frame", "topic", topic, "error", err)
		return
	}

	b.mu.Lock()
	b.latest = r
	b.hasFrame = true
	b.mu.Unlock()
}

func (b *Bus) warn(msg string, args ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, args...)
	}
}
