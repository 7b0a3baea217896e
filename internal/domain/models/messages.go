package models

import (
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
)

// RabbitMQ message: location:update → <location_fanout> exchange
type LocationUpdateMessage struct {
	Event          types.DomainEvent `json:"event"`
	DriverID       string            `json:"driver_id"`
	CompanyID      string            `json:"company_id"`
	Location       GeoPoint          `json:"location"`
	Metadata       LocationMetadata  `json:"metadata"`
	PriorLocation  *GeoPoint         `json:"prior_location,omitempty"`
	DistanceMeters float64           `json:"distance_meters"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
	CorrelationID  string            `json:"correlation_id,omitempty"`
}

// RabbitMQ message: geofence:enter / geofence:exit → <tracking_topic> exchange
type GeofenceEventMessage struct {
	Event types.DomainEvent `json:"event"`
	GeofenceEvent
	CorrelationID string `json:"correlation_id,omitempty"`
}

// RabbitMQ message: driver:online / driver:offline → <tracking_topic> exchange
type DriverPresenceMessage struct {
	Event     types.DomainEvent  `json:"event"`
	DriverID  string             `json:"driver_id"`
	CompanyID string             `json:"company_id,omitempty"`
	Status    types.DriverStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
}

// RabbitMQ message: error → <tracking_topic> exchange. The only failure
// signal consumers are guaranteed a chance to see for an aborted
// transition.
type ErrorMessage struct {
	Event     types.DomainEvent `json:"event"`
	DriverID  string            `json:"driver_id"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
}
