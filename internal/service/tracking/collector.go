package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
)

// RollingCollector keeps per-process counters over a fixed window and
// resets them on an interval driven by its own goroutine.
type RollingCollector struct {
	mu sync.Mutex

	updates        int64
	failures       int64
	geofenceEvents int64
	totalUpdateMs  float64

	interval time.Duration
	done     chan struct{}
	once     sync.Once
}

// NewRollingCollector returns a stopped collector; call Run to start the
// window resets.
func NewRollingCollector(interval time.Duration) *RollingCollector {
	return &RollingCollector{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Run resets the window every interval until ctx is canceled or Stop is
// called. Blocking; meant for its own goroutine.
func (c *RollingCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.reset()
		}
	}
}

// Stop terminates Run. Safe to call more than once.
func (c *RollingCollector) Stop() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *RollingCollector) RecordUpdate(duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.updates++
	if err != nil {
		c.failures++
	}
	c.totalUpdateMs += float64(duration.Microseconds()) / 1000.0
}

func (c *RollingCollector) RecordGeofenceEvents(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.geofenceEvents += int64(n)
}

func (c *RollingCollector) Snapshot() models.TrackingStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := models.TrackingStats{
		Updates:        c.updates,
		Failures:       c.failures,
		GeofenceEvents: c.geofenceEvents,
	}
	if c.updates > 0 {
		stats.AvgUpdateMs = c.totalUpdateMs / float64(c.updates)
	}
	return stats
}

func (c *RollingCollector) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.updates = 0
	c.failures = 0
	c.geofenceEvents = 0
	c.totalUpdateMs = 0
}
