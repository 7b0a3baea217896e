package models

import (
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
)

// GeofenceEvent is synthesized on zone transitions, append-only, never
// updated.
type GeofenceEvent struct {
	ID        string                  `json:"id"`
	DriverID  string                  `json:"driver_id"`
	ZoneID    string                  `json:"zone_id"`
	EventType types.GeofenceEventType `json:"event_type"`
	Location  GeoPoint                `json:"location"`
	Timestamp time.Time               `json:"timestamp"`

	// SpeedMps is the distance/elapsed-time derivation between the two
	// samples bracketing the transition.
	SpeedMps float64 `json:"speed_mps"`
}
