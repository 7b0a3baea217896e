package types

// DomainEvent names the events published to downstream consumers.
type DomainEvent string

func (e DomainEvent) String() string {
	return string(e)
}

const (
	EventLocationUpdate DomainEvent = "location:update"
	EventGeofenceEnter  DomainEvent = "geofence:enter"
	EventGeofenceExit   DomainEvent = "geofence:exit"
	EventDriverOnline   DomainEvent = "driver:online"
	EventDriverOffline  DomainEvent = "driver:offline"
	EventError          DomainEvent = "error"
)
