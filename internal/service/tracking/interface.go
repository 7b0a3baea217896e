package tracking

import (
	"context"
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
)

/*=================Geospatial Cache=======================*/

type LocationCache interface {
	UpdateDriverLocation(ctx context.Context, loc models.DriverLocation) error
	GetDriverLocation(ctx context.Context, driverID string) (*models.DriverLocation, error)
	FindDriversNearby(ctx context.Context, companyID string, q models.NearbyQuery) ([]models.NearbyDriver, error)
	GetDriversInZone(ctx context.Context, zoneID string) ([]string, error)
	RemoveDriver(ctx context.Context, driverID, companyID string) error
	GetPerformanceMetrics(ctx context.Context) models.CachePerformance
	GetCacheStats(ctx context.Context, companyID string) models.CacheStats
}

/*=================Durable Store==========================*/

type DriverRegistry interface {
	GetCompanyID(ctx context.Context, driverID string) (string, error)
}

type LocationRepo interface {
	// Upsert reports applied=false when the write was fenced out by a
	// newer stored sample.
	Upsert(ctx context.Context, loc models.DriverLocation) (bool, error)
	Get(ctx context.Context, driverID string) (*models.DriverLocation, error)
	SetOffline(ctx context.Context, driverID string) error
}

type ZoneRepo interface {
	FindContainingZone(ctx context.Context, companyID string, point models.GeoPoint) (*models.ZoneRef, error)
	Get(ctx context.Context, zoneID string) (*models.GeofenceZone, error)
}

type GeofenceEventRepo interface {
	Insert(ctx context.Context, event models.GeofenceEvent) error
}

/*========================Publisher===============================*/

type Publisher interface {
	PublishLocationUpdate(ctx context.Context, msg models.LocationUpdateMessage) error
	PublishGeofenceEvent(ctx context.Context, msg models.GeofenceEventMessage) error
	PublishDriverPresence(ctx context.Context, msg models.DriverPresenceMessage) error
	PublishError(ctx context.Context, msg models.ErrorMessage) error
}

/*========================Collector===============================*/

// Collector accumulates per-process rolling counters over a fixed window.
// It is injected, not ambient: tests supply their own.
type Collector interface {
	RecordUpdate(duration time.Duration, err error)
	RecordGeofenceEvents(n int)
	Snapshot() models.TrackingStats
}
