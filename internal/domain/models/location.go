package models

import (
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
)

// GeoPoint is a WGS84 position in decimal degrees. Altitude is optional,
// in meters.
type GeoPoint struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// LocationMetadata is the immutable telemetry snapshot attached to one
// GPS sample.
type LocationMetadata struct {
	AccuracyMeters float64                `json:"accuracy_meters"`
	HeadingDegrees *float64               `json:"heading_degrees,omitempty"`
	SpeedMps       *float64               `json:"speed_mps,omitempty"`
	BatteryLevel   *float64               `json:"battery_level,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	Provider       types.LocationProvider `json:"provider"`
	Satellites     *int                   `json:"satellites,omitempty"`
	HDOP           *float64               `json:"hdop,omitempty"`
	PDOP           *float64               `json:"pdop,omitempty"`
}

// DriverLocation is the canonical per-driver record: exactly one logical
// instance per driver, last writer overwrites. It is mirrored into the
// cache (TTL-bound) and the durable store (authoritative).
type DriverLocation struct {
	DriverID      string             `json:"driver_id"`
	CompanyID     string             `json:"company_id"`
	Location      GeoPoint           `json:"location"`
	Metadata      LocationMetadata   `json:"metadata"`
	IsOnline      bool               `json:"is_online"`
	LastSeen      time.Time          `json:"last_seen"`
	CurrentZoneID *string            `json:"current_zone_id,omitempty"`
	CurrentJobID  *string            `json:"current_job_id,omitempty"`
	Status        types.DriverStatus `json:"status"`
}

// NearbyQuery describes a radius search against a tenant's geo index.
// Limit is forwarded to the store but the radius query is not guaranteed
// to honor it server-side; callers must not assume len(result) <= Limit.
type NearbyQuery struct {
	Center       GeoPoint `json:"center"`
	RadiusMeters float64  `json:"radius_meters"`
	Limit        int      `json:"limit,omitempty"`
}

// NearbyDriver is one radius-query match with its distance from the
// query center as reported by the geo index.
type NearbyDriver struct {
	DriverLocation
	DistanceMeters float64 `json:"distance_meters"`
}
