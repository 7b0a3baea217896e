package tracking

import (
	"errors"
	"testing"
	"time"
)

func TestRollingCollectorCounts(t *testing.T) {
	c := NewRollingCollector(time.Minute)

	c.RecordUpdate(10*time.Millisecond, nil)
	c.RecordUpdate(30*time.Millisecond, nil)
	c.RecordUpdate(20*time.Millisecond, errors.New("boom"))
	c.RecordGeofenceEvents(2)

	stats := c.Snapshot()
	if stats.Updates != 3 {
		t.Errorf("updates: got %d, want 3", stats.Updates)
	}
	if stats.Failures != 1 {
		t.Errorf("failures: got %d, want 1", stats.Failures)
	}
	if stats.GeofenceEvents != 2 {
		t.Errorf("geofence events: got %d, want 2", stats.GeofenceEvents)
	}
	if stats.AvgUpdateMs < 19 || stats.AvgUpdateMs > 21 {
		t.Errorf("avg: got %v ms, want ~20", stats.AvgUpdateMs)
	}
}

func TestRollingCollectorEmptySnapshot(t *testing.T) {
	c := NewRollingCollector(time.Minute)

	stats := c.Snapshot()
	if stats.Updates != 0 || stats.AvgUpdateMs != 0 {
		t.Errorf("expected zero snapshot, got %+v", stats)
	}
}

func TestRollingCollectorReset(t *testing.T) {
	c := NewRollingCollector(time.Minute)

	c.RecordUpdate(time.Millisecond, nil)
	c.RecordGeofenceEvents(1)
	c.reset()

	stats := c.Snapshot()
	if stats.Updates != 0 || stats.GeofenceEvents != 0 || stats.AvgUpdateMs != 0 {
		t.Errorf("expected cleared window, got %+v", stats)
	}
}

func TestRollingCollectorStop(t *testing.T) {
	c := NewRollingCollector(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Run(t.Context())
		close(done)
	}()

	c.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
