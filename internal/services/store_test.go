package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dispatch-nav-service/internal/adapters/osrm"
	"dispatch-nav-service/internal/config"
	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/ports"
)

// switchableProvider lets a test flip the provider into a failure mode
// between fetches without racing the in-flight goroutine.
type switchableProvider struct {
	inner osrm.MockProvider

	mu    sync.Mutex
	err   error
	calls int
}

func (p *switchableProvider) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func (p *switchableProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *switchableProvider) Trip(ctx context.Context, req ports.TripRequest) (*ports.TripResult, error) {
	p.mu.Lock()
	p.calls++
	err := p.err
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return p.inner.Trip(ctx, req)
}

func testNavConfig() config.NavConfig {
	cfg := config.DefaultNavConfig()
	cfg.DebounceMillis = 5
	cfg.MinFetchGapMillis = 0
	return cfg
}

func newTestStore(provider ports.RouteProvider, cfg config.NavConfig) *RouteStateStore {
	return NewRouteStateStore(NewRouteFetcher(provider, nil, cfg), cfg)
}

func validInput(start *domain.Coordinate) FetchInput {
	return FetchInput{
		Start:      start,
		Waypoints:  []*domain.Coordinate{pt(13.7460, 100.5350), pt(13.7300, 100.5200)},
		TripType:   domain.TripOneWay,
		TravelMode: domain.ModeDriving,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStoreDebouncesRapidInput(t *testing.T) {
	provider := &switchableProvider{}
	store := newTestStore(provider, testNavConfig())

	// A burst of updates inside the debounce window becomes one fetch.
	for i := 0; i < 5; i++ {
		store.SetInput(validInput(pt(13.7563+float64(i)*0.01, 100.5018)))
	}

	waitFor(t, "route commit", func() bool { return !store.Route().Empty() })

	if calls := provider.callCount(); calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
	if store.IsLoading() {
		t.Error("store still loading after commit")
	}
}

func TestStoreInvalidInputClearsImmediately(t *testing.T) {
	provider := &switchableProvider{}
	store := newTestStore(provider, testNavConfig())

	store.SetInput(validInput(pt(13.7563, 100.5018)))
	waitFor(t, "route commit", func() bool { return !store.Route().Empty() })

	// Clearing every waypoint is not an error; the route just goes away.
	store.SetInput(FetchInput{Start: pt(13.7563, 100.5018)})

	if !store.Route().Empty() {
		t.Error("route must clear synchronously on invalid input")
	}
	if store.LastError() != nil {
		t.Errorf("lastErr = %v, want nil", store.LastError())
	}

	// No extra fetch is dispatched for the cleared input.
	time.Sleep(30 * time.Millisecond)
	if calls := provider.callCount(); calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
}

func TestStoreDiscardsStaleResponse(t *testing.T) {
	provider := &switchableProvider{inner: osrm.MockProvider{Delay: 40 * time.Millisecond}}
	store := newTestStore(provider, testNavConfig())

	store.SetInput(validInput(pt(13.7563, 100.5018)))
	waitFor(t, "fetch dispatch", func() bool { return store.IsLoading() })

	// Input changes to empty while the fetch is in flight: the route clears
	// now and the late result must not resurrect it.
	store.SetInput(FetchInput{Start: pt(13.7563, 100.5018)})

	time.Sleep(80 * time.Millisecond)
	if !store.Route().Empty() {
		t.Error("stale in-flight result overwrote the cleared route")
	}
}

func TestStoreKeepsRouteOnFetchFailure(t *testing.T) {
	provider := &switchableProvider{}
	store := newTestStore(provider, testNavConfig())

	store.SetInput(validInput(pt(13.7563, 100.5018)))
	waitFor(t, "route commit", func() bool { return !store.Route().Empty() })
	committed := store.Route()

	provider.setErr(errors.New("optimizer unreachable"))
	store.SetInput(validInput(pt(13.9000, 100.6000)))
	waitFor(t, "fetch failure", func() bool { return store.LastError() != nil })

	if store.Route() != committed {
		t.Error("failed fetch must keep the previous route")
	}

	// Recovery clears the surfaced error.
	provider.setErr(nil)
	store.SetInput(validInput(pt(13.9100, 100.6100)))
	waitFor(t, "recovery", func() bool { return store.LastError() == nil && store.Route() != committed })
}

func TestStoreOfflineQueuesFetch(t *testing.T) {
	provider := &switchableProvider{}
	store := newTestStore(provider, testNavConfig())

	store.SetOffline(true)
	store.SetInput(validInput(pt(13.7563, 100.5018)))

	time.Sleep(30 * time.Millisecond)
	if calls := provider.callCount(); calls != 0 {
		t.Fatalf("provider calls while offline = %d, want 0", calls)
	}

	store.SetOffline(false)
	waitFor(t, "queued fetch", func() bool { return !store.Route().Empty() })

	if calls := provider.callCount(); calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
}

func TestStoreRerouteRefetches(t *testing.T) {
	provider := &switchableProvider{}
	store := newTestStore(provider, testNavConfig())

	in := validInput(pt(13.7563, 100.5018))
	in.Navigating = true
	store.SetInput(in)
	waitFor(t, "route commit", func() bool { return !store.Route().Empty() })

	store.RequestReroute()
	waitFor(t, "reroute fetch", func() bool { return provider.callCount() == 2 && !store.IsLoading() })

	if store.Route().Empty() {
		t.Error("reroute must commit a fresh route")
	}
}

func TestStoreResetDiscardsRoute(t *testing.T) {
	provider := &switchableProvider{}
	store := newTestStore(provider, testNavConfig())

	store.SetInput(validInput(pt(13.7563, 100.5018)))
	waitFor(t, "route commit", func() bool { return !store.Route().Empty() })

	store.Reset()
	if !store.Route().Empty() {
		t.Error("Reset must drop the committed route")
	}
	if store.IsLoading() || store.LastError() != nil {
		t.Error("Reset must clear loading and error state")
	}
}

func TestStoreLegSummaries(t *testing.T) {
	provider := &switchableProvider{}
	store := newTestStore(provider, testNavConfig())

	store.SetInput(validInput(pt(13.7563, 100.5018)))
	waitFor(t, "route commit", func() bool { return !store.Route().Empty() })

	summaries := store.LegSummaries(1)
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
	if !summaries[0].Passed || summaries[0].Current {
		t.Errorf("leg 0 flags = %+v, want passed", summaries[0])
	}
	if summaries[1].Passed || !summaries[1].Current {
		t.Errorf("leg 1 flags = %+v, want current", summaries[1])
	}
}
