package models

// CachePerformance summarizes the bounded latency ring kept in the cache.
type CachePerformance struct {
	Samples     int     `json:"samples"`
	AvgMillis   float64 `json:"avg_ms"`
	MaxMillis   float64 `json:"max_ms"`
	TotalMillis float64 `json:"total_ms"`
}

// CacheStats is a point-in-time diagnostic snapshot for one tenant.
type CacheStats struct {
	CompanyID      string `json:"company_id"`
	TrackedDrivers int64  `json:"tracked_drivers"`
	LatencySamples int64  `json:"latency_samples"`
}

// TrackingStats is the orchestrator collector's rolling-window snapshot.
type TrackingStats struct {
	Updates        int64   `json:"updates"`
	Failures       int64   `json:"failures"`
	GeofenceEvents int64   `json:"geofence_events"`
	AvgUpdateMs    float64 `json:"avg_update_ms"`
}
