package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DeviceStatus is the normalized connectivity view served to dashboards.
type DeviceStatus struct {
	WiFi       bool   `json:"wifi"`
	GPS        bool   `json:"gps"`
	Heartbeat  bool   `json:"heartbeat"`
	LastUpdate string `json:"lastUpdate"`
}

// StatusPullFunc fetches a fresh connectivity status from the live-data
// store.
type StatusPullFunc func(ctx context.Context) (DeviceStatus, error)

// StatusCache is a single-slot TTL cache in front of the status sub-tree.
// Dashboards poll the status endpoint aggressively; the cache keeps that
// burst off the live-data store. A failed pull is absorbed: an offline
// status is synthesized, cached for the same TTL, and returned without an
// error, so the endpoint never fails on upstream trouble.
type StatusCache struct {
	mu      sync.Mutex
	pull    StatusPullFunc
	ttl     time.Duration
	now     func() time.Time
	value   DeviceStatus
	fetched time.Time
	primed  bool
}

// DefaultStatusTTL bounds how stale a served status can be.
const DefaultStatusTTL = 2 * time.Second

func NewStatusCache(pull StatusPullFunc, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &StatusCache{
		pull: pull,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns the cached status when it is younger than the TTL, otherwise
// refreshes from source. It never returns an error.
func (c *StatusCache) Get(ctx context.Context) DeviceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.primed && now.Sub(c.fetched) < c.ttl {
		return c.value
	}

	status, err := c.pull(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("status pull failed, serving offline status")
		status = DeviceStatus{LastUpdate: now.Format(time.RFC3339)}
	}

	c.value = status
	c.fetched = now
	c.primed = true
	return c.value
}
