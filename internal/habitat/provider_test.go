package habitat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeKV is an in-memory KV for provider tests.
type fakeKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	saveErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Save(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Load(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return v, nil
}

func testProfile() Profile {
	return Profile{
		PlantID:       "monstera-deliciosa",
		NativeRegion:  "Central America",
		GrowingSeason: "spring-summer",
		Range: Range{
			TemperatureMin: 20, TemperatureMax: 30,
			HumidityMin: 50, HumidityMax: 80,
			MoistureMin: 35, MoistureMax: 65,
			LightMin: 40, LightMax: 75,
		},
	}
}

func catalogueServer(t *testing.T, profile Profile) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(profile); err != nil {
			t.Errorf("encoding profile: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchCachesProfile(t *testing.T) {
	srv := catalogueServer(t, testProfile())
	kv := newFakeKV()
	p := NewProvider(srv.URL, kv)

	profile, err := p.Fetch(context.Background(), "monstera", "deliciosa")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if profile.PlantID != "monstera-deliciosa" {
		t.Errorf("PlantID = %q, want %q", profile.PlantID, "monstera-deliciosa")
	}

	if _, ok := kv.data[CacheKey("monstera", "deliciosa")]; !ok {
		t.Error("Fetch() did not cache the profile")
	}
}

func TestFetchUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, newFakeKV())
	_, err := p.Fetch(context.Background(), "monstera", "deliciosa")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrUnavailable", err)
	}
}

func TestFetchNoCatalogueConfigured(t *testing.T) {
	p := NewProvider("", newFakeKV())
	_, err := p.Fetch(context.Background(), "monstera", "deliciosa")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrUnavailable", err)
	}
}

func TestResolvePrefersFreshCache(t *testing.T) {
	// Catalogue serves a different range than the cache; a fresh cached
	// copy should win without a network round trip.
	remote := testProfile()
	remote.TemperatureMin = 99
	srv := catalogueServer(t, remote)

	kv := newFakeKV()
	p := NewProvider(srv.URL, kv)
	p.storeCached(context.Background(), "monstera", "deliciosa", testProfile())

	got := p.Resolve(context.Background(), "monstera", "deliciosa")
	if got.TemperatureMin != 20 {
		t.Errorf("Resolve() TemperatureMin = %v, want cached 20", got.TemperatureMin)
	}
}

func TestResolveFetchesWhenCacheStale(t *testing.T) {
	srv := catalogueServer(t, testProfile())
	kv := newFakeKV()
	p := NewProvider(srv.URL, kv)

	// Seed a stale cached copy with a different range.
	stale := testProfile()
	stale.Range.TemperatureMin = 5
	data, err := json.Marshal(cachedProfile{
		Profile:   stale,
		FetchedAt: time.Now().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("marshalling stale profile: %v", err)
	}
	if err := kv.Save(context.Background(), CacheKey("monstera", "deliciosa"), data); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	got := p.Resolve(context.Background(), "monstera", "deliciosa")
	if got.TemperatureMin != 20 {
		t.Errorf("Resolve() TemperatureMin = %v, want refetched 20", got.TemperatureMin)
	}
}

func TestResolveFallsBackToStaleCache(t *testing.T) {
	kv := newFakeKV()
	// No catalogue configured; only a stale cached copy exists.
	p := NewProvider("", kv)

	stale := testProfile()
	data, err := json.Marshal(cachedProfile{
		Profile:   stale,
		FetchedAt: time.Now().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("marshalling stale profile: %v", err)
	}
	if err := kv.Save(context.Background(), CacheKey("monstera", "deliciosa"), data); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	got := p.Resolve(context.Background(), "monstera", "deliciosa")
	if got != testProfile().Range {
		t.Errorf("Resolve() = %+v, want stale cached range", got)
	}
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	p := NewProvider("", newFakeKV())

	got := p.Resolve(context.Background(), "monstera", "deliciosa")
	if got != DefaultRange() {
		t.Errorf("Resolve() = %+v, want DefaultRange()", got)
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("monstera", "deliciosa"); got != "habitat/monstera_deliciosa" {
		t.Errorf("CacheKey() = %q, want %q", got, "habitat/monstera_deliciosa")
	}
}
