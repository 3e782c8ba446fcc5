package habitat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Staleness limit for cached profiles. A cached copy older than this is
// refreshed from the catalogue when possible, but still beats the
// built-in defaults when the catalogue is down.
const cacheStaleAfter = 24 * time.Hour

// defaultFetchTimeout bounds a single catalogue request.
const defaultFetchTimeout = 10 * time.Second

// KV is the persistence capability Provider needs for the cached profile.
// Implemented by the storage package's SQLite store.
type KV interface {
	// Save stores value under key, replacing any existing value.
	Save(ctx context.Context, key string, value []byte) error

	// Load returns the value stored under key, or an error satisfying
	// errors.Is(err, storage.ErrNotFound) when absent.
	Load(ctx context.Context, key string) ([]byte, error)
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// cachedProfile is the persisted envelope: the profile plus when it was
// fetched, so staleness can be judged at load time.
type cachedProfile struct {
	Profile   Profile   `json:"profile"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Provider resolves the habitat range for a plant through a fallback
// chain: remote catalogue, key-value cached copy, built-in defaults.
//
// Thread Safety:
//   - Resolve is called only from the engine's periodic task; the logger
//     field is the only state touched from elsewhere and is mutex-guarded.
type Provider struct {
	baseURL string
	client  *http.Client
	kv      KV
	now     func() time.Time

	logger   Logger
	loggerMu sync.RWMutex
}

// NewProvider creates a Provider against the given catalogue base URL.
//
// Parameters:
//   - baseURL: catalogue endpoint, e.g. "https://plants.example.com/api".
//     Empty disables remote fetching; resolution uses cache then defaults.
//   - kv: persistence for the cached profile. Nil disables caching.
func NewProvider(baseURL string, kv KV) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultFetchTimeout},
		kv:      kv,
		now:     time.Now,
	}
}

// SetLogger sets the logger for fallback warnings.
func (p *Provider) SetLogger(logger Logger) {
	p.loggerMu.Lock()
	p.logger = logger
	p.loggerMu.Unlock()
}

// Resolve returns the habitat range for the named plant.
//
// The chain is: fresh cached copy, else catalogue fetch (cached on
// success), else any cached copy regardless of age, else DefaultRange.
// Resolve never fails; a degraded source is logged, not returned.
func (p *Provider) Resolve(ctx context.Context, name, variety string) Range {
	cached, cacheErr := p.loadCached(ctx, name, variety)
	if cacheErr == nil {
		return cached.Profile.Range
	}

	profile, fetchErr := p.Fetch(ctx, name, variety)
	if fetchErr == nil {
		return profile.Range
	}

	// A stale cached copy still describes the right species.
	if cached != nil {
		p.warn("habitat catalogue unreachable, using stale cached profile",
			"plant", name, "variety", variety, "error", fetchErr)
		return cached.Profile.Range
	}

	p.warn("no habitat profile available, using defaults",
		"plant", name, "variety", variety, "error", fetchErr)
	return DefaultRange()
}

// Fetch retrieves the plant's profile from the remote catalogue and
// caches it on success.
//
// Returns:
//   - *Profile: the catalogue entry
//   - error: wrapping ErrUnavailable when the catalogue cannot serve it
func (p *Provider) Fetch(ctx context.Context, name, variety string) (*Profile, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("%w: no catalogue configured", ErrUnavailable)
	}

	endpoint := fmt.Sprintf("%s/plants?name=%s&variety=%s",
		p.baseURL, url.QueryEscape(name), url.QueryEscape(variety))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: catalogue returned %s", ErrUnavailable, resp.Status)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decoding profile: %w", ErrUnavailable, err)
	}

	p.storeCached(ctx, name, variety, profile)
	return &profile, nil
}

// loadCached returns the cached profile when present and fresh.
// A stale copy is returned alongside ErrStale so callers can fall back
// to it after a failed fetch.
func (p *Provider) loadCached(ctx context.Context, name, variety string) (*cachedProfile, error) {
	if p.kv == nil {
		return nil, ErrNotCached
	}

	data, err := p.kv.Load(ctx, CacheKey(name, variety))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotCached, err)
	}

	var cached cachedProfile
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("%w: corrupt cached profile: %w", ErrNotCached, err)
	}

	if p.now().Sub(cached.FetchedAt) > cacheStaleAfter {
		return &cached, ErrStale
	}
	return &cached, nil
}

// storeCached writes the fetched profile to the key-value store.
// Best effort: a failed save degrades the next offline boot, nothing else.
func (p *Provider) storeCached(ctx context.Context, name, variety string, profile Profile) {
	if p.kv == nil {
		return
	}

	data, err := json.Marshal(cachedProfile{
		Profile:   profile,
		FetchedAt: p.now(),
	})
	if err != nil {
		return
	}

	if err := p.kv.Save(ctx, CacheKey(name, variety), data); err != nil {
		p.warn("failed to cache habitat profile",
			"plant", name, "variety", variety, "error", err)
	}
}

// CacheKey returns the key-value store key for a plant's cached profile.
func CacheKey(name, variety string) string {
	return fmt.Sprintf("habitat/%s_%s", name, variety)
}

func (p *Provider) warn(msg string, args ...any) {
	p.loggerMu.RLock()
	logger := p.logger
	p.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, args...)
	}
}
