package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubPuller struct {
	calls  int
	status DeviceStatus
	err    error
}

func (s *stubPuller) pull(ctx context.Context) (DeviceStatus, error) {
	s.calls++
	return s.status, s.err
}

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestStatusCacheHitWithinTTL(t *testing.T) {
	puller := &stubPuller{status: DeviceStatus{WiFi: true, GPS: true, Heartbeat: true, LastUpdate: "2026-09-01T10:00:00Z"}}
	clock := &fakeClock{t: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}

	cache := NewStatusCache(puller.pull, 2*time.Second)
	cache.now = clock.now

	first := cache.Get(context.Background())
	clock.advance(1500 * time.Millisecond)
	second := cache.Get(context.Background())

	require.Equal(t, first, second)
	require.Equal(t, 1, puller.calls, "second read within TTL must not hit upstream")
}

func TestStatusCacheRefreshAfterExpiry(t *testing.T) {
	puller := &stubPuller{status: DeviceStatus{WiFi: true}}
	clock := &fakeClock{t: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}

	cache := NewStatusCache(puller.pull, 2*time.Second)
	cache.now = clock.now

	cache.Get(context.Background())
	clock.advance(2 * time.Second)
	cache.Get(context.Background())

	require.Equal(t, 2, puller.calls, "read after TTL must trigger exactly one refresh")
}

func TestStatusCacheAbsorbsPullFailure(t *testing.T) {
	puller := &stubPuller{err: errors.New("upstream down")}
	clock := &fakeClock{t: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}

	cache := NewStatusCache(puller.pull, 2*time.Second)
	cache.now = clock.now

	got := cache.Get(context.Background())
	require.False(t, got.WiFi)
	require.False(t, got.GPS)
	require.False(t, got.Heartbeat)
	require.Equal(t, clock.t.Format(time.RFC3339), got.LastUpdate)

	// The offline status poisons the cache until the TTL runs out.
	clock.advance(time.Second)
	cache.Get(context.Background())
	require.Equal(t, 1, puller.calls)

	clock.advance(2 * time.Second)
	cache.Get(context.Background())
	require.Equal(t, 2, puller.calls)
}

func TestStatusCacheDefaultTTL(t *testing.T) {
	cache := NewStatusCache(func(context.Context) (DeviceStatus, error) {
		return DeviceStatus{}, nil
	}, 0)
	require.Equal(t, DefaultStatusTTL, cache.ttl)
}
