package types

// Enum for driver status
type DriverStatus string

func (s DriverStatus) String() string {
	return string(s)
}

const (
	StatusAvailable DriverStatus = "available"
	StatusBusy      DriverStatus = "busy"
	StatusOffline   DriverStatus = "offline"
	StatusBreak     DriverStatus = "break"
)

// Enum for GPS sample provider
type LocationProvider string

const (
	ProviderGPS     LocationProvider = "GPS"
	ProviderNetwork LocationProvider = "NETWORK"
	ProviderPassive LocationProvider = "PASSIVE"
)

func (p LocationProvider) Valid() bool {
	switch p {
	case ProviderGPS, ProviderNetwork, ProviderPassive:
		return true
	default:
		return false
	}
}

// Enum for geofence event type. Dwell is part of the type but the
// orchestrator never emits it; dwell detection lives outside this core.
type GeofenceEventType string

func (t GeofenceEventType) String() string {
	return string(t)
}

const (
	GeofenceEnter GeofenceEventType = "enter"
	GeofenceExit  GeofenceEventType = "exit"
	GeofenceDwell GeofenceEventType = "dwell"
)
