package engine

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/verdantsense/verdant-core/internal/history"
	"github.com/verdantsense/verdant-core/internal/infrastructure/metrics"
	"github.com/verdantsense/verdant-core/internal/storage"
	"github.com/verdantsense/verdant-core/internal/telemetry"
	"github.com/verdantsense/verdant-core/internal/water"
)

// StateStore is the persistence capability the engine snapshots into.
// Satisfied by storage.SQLiteStore.
type StateStore interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// persister handles the best-effort snapshot round trips. Every save
// failure is logged and counted but never stops the pipeline; the
// documented degraded mode is in-memory state that a reboot would lose.
type persister struct {
	store  StateStore
	serial string
	logger Logger
}

func newPersister(store StateStore, serial string, logger Logger) *persister {
	return &persister{store: store, serial: serial, logger: logger}
}

// restore loads all three buffers at boot. Missing keys are a clean cold
// start; corrupt snapshots are logged and skipped.
func (p *persister) restore(ctx context.Context, h *history.Store, w *water.History, c *telemetry.Cache) {
	if p.store == nil {
		return
	}

	var histSnap history.Snapshot
	if p.load(ctx, storage.HistoryKey(p.serial), &histSnap) {
		if err := h.Restore(histSnap); err != nil {
			p.logger.Warn("discarding channel history snapshot", "error", err)
		}
	}

	var waterSnap water.Snapshot
	if p.load(ctx, storage.WaterKey(p.serial), &waterSnap) {
		if err := w.Restore(waterSnap); err != nil {
			p.logger.Warn("discarding water history snapshot", "error", err)
		}
	}

	var cacheSnap telemetry.Snapshot
	if p.load(ctx, storage.CacheKey(p.serial), &cacheSnap) {
		if err := c.Restore(cacheSnap); err != nil {
			p.logger.Warn("discarding telemetry cache snapshot", "error", err)
		}
	}
}

// load reads and decodes one snapshot, reporting whether it is usable.
func (p *persister) load(ctx context.Context, key string, into any) bool {
	data, err := p.store.Load(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		p.logger.Warn("loading persisted state failed, starting cold", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(data, into); err != nil {
		p.logger.Warn("persisted state is corrupt, starting cold", "key", key, "error", err)
		return false
	}
	return true
}

func (p *persister) saveHistory(ctx context.Context, h *history.Store) {
	p.save(ctx, storage.HistoryKey(p.serial), h.Snapshot())
}

func (p *persister) saveWater(ctx context.Context, w *water.History) {
	p.save(ctx, storage.WaterKey(p.serial), w.Snapshot())
}

func (p *persister) saveCache(ctx context.Context, c *telemetry.Cache) {
	p.save(ctx, storage.CacheKey(p.serial), c.Snapshot())
}

func (p *persister) save(ctx context.Context, key string, snap any) {
	if p.store == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		metrics.PersistFailures.Inc()
		p.logger.Error("encoding state snapshot failed", "key", key, "error", err)
		return
	}

	if err := p.store.Save(ctx, key, data); err != nil {
		metrics.PersistFailures.Inc()
		p.logger.Warn("saving state failed, continuing in memory", "key", key, "error", err)
	}
}
