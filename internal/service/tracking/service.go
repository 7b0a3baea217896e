package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
	"github.com/adilzhm/fleet-tracking-system/pkg/logger"
	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
	"github.com/adilzhm/fleet-tracking-system/pkg/metrics"
	"github.com/adilzhm/fleet-tracking-system/pkg/trm"
	"github.com/adilzhm/fleet-tracking-system/pkg/uuid"
)

const serviceName = "tracking-service"

// minMovingSpeedMps separates standstill jitter from actual movement in
// status derivation.
const minMovingSpeedMps = 0.5

/*
Service is the tracking orchestrator: it turns each GPS sample into one
full state transition across the cache, the durable store and the event
stream. The cache is read best-effort, the durable write is the commit
point, publishing happens after commit and never fails the transition.
*/
type Service struct {
	repos     repos
	cache     LocationCache
	publisher Publisher
	collector Collector
	trm       trm.TxManager
	l         logger.Logger

	// now is swapped out in tests; everything else uses the wall clock.
	now func() time.Time
}

type repos struct {
	driver   DriverRegistry
	location LocationRepo
	zone     ZoneRepo
	event    GeofenceEventRepo
}

// New returns the orchestrator with all dependencies injected.
func New(driverRepo DriverRegistry, locationRepo LocationRepo, zoneRepo ZoneRepo, eventRepo GeofenceEventRepo, cache LocationCache, publisher Publisher, collector Collector, trm trm.TxManager, l logger.Logger) *Service {
	return &Service{
		repos: repos{
			driver:   driverRepo,
			location: locationRepo,
			zone:     zoneRepo,
			event:    eventRepo,
		},
		cache:     cache,
		publisher: publisher,
		collector: collector,
		trm:       trm,
		l:         l,
		now:       time.Now,
	}
}

// LocationSample is one raw GPS report before orchestration.
type LocationSample struct {
	DriverID string
	Point    models.GeoPoint
	Metadata models.LocationMetadata
}

// UpdateLocation runs the full transition for one sample and returns the
// resulting canonical record. Failed transitions additionally publish an
// error event so stream consumers see more than a gap.
func (s *Service) UpdateLocation(ctx context.Context, driverID string, point models.GeoPoint, meta models.LocationMetadata) (*models.DriverLocation, error) {
	start := time.Now()
	ctx = wrap.WithAction(ctx, types.ActionLocationUpdate)
	ctx = wrap.WithDriverID(ctx, driverID)

	loc, err := s.processSample(ctx, driverID, point, meta)

	duration := time.Since(start)
	s.collector.RecordUpdate(duration, err)
	metrics.RecordLocationUpdate(serviceName, err, duration)

	if err != nil {
		s.publishFailure(ctx, driverID, err)
		return nil, err
	}
	return loc, nil
}

func (s *Service) processSample(ctx context.Context, driverID string, point models.GeoPoint, meta models.LocationMetadata) (*models.DriverLocation, error) {
	const op = "TrackingService.processSample"

	if err := validateSample(point, meta); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if meta.Timestamp.IsZero() {
		meta.Timestamp = s.now().UTC()
	}

	// Prior state is advisory: a cache miss only means no movement or
	// transition context for this sample.
	prior, _ := s.cache.GetDriverLocation(ctx, driverID)

	// Movement is measured between recorded sample times, not arrival
	// times, so a delayed sample does not inflate the elapsed window.
	var distanceMeters, elapsedSeconds float64
	if prior != nil {
		distanceMeters = Haversine(prior.Location, point)
		if d := meta.Timestamp.Sub(prior.LastSeen); d > 0 {
			elapsedSeconds = d.Seconds()
		}
	}

	// The registry is authoritative for tenant resolution. Cached state
	// can outlive a driver's registration by up to the TTL, so every
	// sample re-resolves instead of trusting the prior record.
	companyID, err := s.repos.driver.GetCompanyID(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	ctx = wrap.WithCompanyID(ctx, companyID)

	// Transition speed between the two samples. Used both for geofence
	// events and, absent a reported speed, for status derivation.
	var computedSpeed float64
	if elapsedSeconds > 0 {
		computedSpeed = distanceMeters / elapsedSeconds
	}

	zone, err := s.repos.zone.FindContainingZone(ctx, companyID, point)
	if err != nil {
		s.l.Warn(wrap.WithAction(ctx, types.ActionZoneLookup), "zone lookup failed, treating as no zone", "error", err.Error())
		zone = nil
	}

	// LastSeen carries the sample's recorded time, not arrival time: the
	// durable upsert fences on it, and only the recorded time lets a
	// late-arriving stale sample be rejected.
	loc := models.DriverLocation{
		DriverID:  driverID,
		CompanyID: companyID,
		Location:  point,
		Metadata:  meta,
		IsOnline:  true,
		LastSeen:  meta.Timestamp,
		Status:    deriveStatus(prior, meta.SpeedMps, computedSpeed),
	}
	if prior != nil {
		loc.CurrentJobID = prior.CurrentJobID
	}
	if zone != nil {
		loc.CurrentZoneID = &zone.ID
	}

	events, err := buildTransitionEvents(driverID, prior, zone, point, meta.Timestamp, computedSpeed)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	// Commit point: canonical upsert plus event appends in one
	// transaction. A fenced-out sample ends the transition quietly,
	// persisting and emitting nothing.
	applied := false
	err = s.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		applied, err = s.repos.location.Upsert(ctx, loc)
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}
		for _, ev := range events {
			if err := s.repos.event.Insert(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	if !applied {
		s.l.Debug(ctx, "stale sample fenced out by newer stored state", "sample_last_seen", loc.LastSeen)
		return &loc, nil
	}

	if err := s.cache.UpdateDriverLocation(ctx, loc); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionCacheOperationFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	// The gauge mirrors cache presence: count the driver when its record
	// first appears, whether it came through an explicit online call or a
	// plain update.
	if prior == nil {
		metrics.DriversOnlineGauge.WithLabelValues(serviceName).Inc()
	}

	s.publishTransition(ctx, loc, prior, distanceMeters, elapsedSeconds, events)

	return &loc, nil
}

// deriveStatus: standstill is always available; a moving driver is busy
// only while a job is attached.
func deriveStatus(prior *models.DriverLocation, reportedSpeed *float64, computedSpeed float64) types.DriverStatus {
	speed := computedSpeed
	if reportedSpeed != nil {
		speed = *reportedSpeed
	}
	if speed < minMovingSpeedMps {
		return types.StatusAvailable
	}
	if prior != nil && prior.CurrentJobID != nil {
		return types.StatusBusy
	}
	return types.StatusAvailable
}

// buildTransitionEvents synthesizes the zone boundary crossings between
// the prior and current sample: exit before enter, both in one transition
// when the driver moved straight from one zone into another. Dwell is
// never synthesized here.
func buildTransitionEvents(driverID string, prior *models.DriverLocation, zone *models.ZoneRef, point models.GeoPoint, at time.Time, speed float64) ([]models.GeofenceEvent, error) {
	var priorZoneID *string
	if prior != nil {
		priorZoneID = prior.CurrentZoneID
	}
	var newZoneID *string
	if zone != nil {
		newZoneID = &zone.ID
	}

	if equalZone(priorZoneID, newZoneID) {
		return nil, nil
	}

	var events []models.GeofenceEvent
	if priorZoneID != nil {
		ev, err := newGeofenceEvent(driverID, *priorZoneID, types.GeofenceExit, point, at, speed)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if newZoneID != nil {
		ev, err := newGeofenceEvent(driverID, *newZoneID, types.GeofenceEnter, point, at, speed)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func newGeofenceEvent(driverID, zoneID string, eventType types.GeofenceEventType, point models.GeoPoint, at time.Time, speed float64) (models.GeofenceEvent, error) {
	id, err := uuid.New()
	if err != nil {
		return models.GeofenceEvent{}, fmt.Errorf("generate event id: %w", err)
	}
	return models.GeofenceEvent{
		ID:        id.String(),
		DriverID:  driverID,
		ZoneID:    zoneID,
		EventType: eventType,
		Location:  point,
		Timestamp: at,
		SpeedMps:  speed,
	}, nil
}

func equalZone(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// publishTransition emits the post-commit event stream. Failures are
// logged and swallowed: delivery is at-most-once relative to committed
// state.
func (s *Service) publishTransition(ctx context.Context, loc models.DriverLocation, prior *models.DriverLocation, distanceMeters, elapsedSeconds float64, events []models.GeofenceEvent) {
	msg := models.LocationUpdateMessage{
		Event:          types.EventLocationUpdate,
		DriverID:       loc.DriverID,
		CompanyID:      loc.CompanyID,
		Location:       loc.Location,
		Metadata:       loc.Metadata,
		DistanceMeters: distanceMeters,
		ElapsedSeconds: elapsedSeconds,
		CorrelationID:  wrap.GetRequestID(ctx),
	}
	if prior != nil {
		priorPoint := prior.Location
		msg.PriorLocation = &priorPoint
	}
	if err := s.publisher.PublishLocationUpdate(ctx, msg); err != nil {
		s.l.Warn(ctx, "failed to publish location update", "error", err.Error())
	}

	if len(events) == 0 {
		return
	}
	s.collector.RecordGeofenceEvents(len(events))
	for _, ev := range events {
		evCtx := wrap.WithAction(ctx, types.ActionGeofenceTransition)
		metrics.GeofenceEventsTotal.WithLabelValues(serviceName, ev.EventType.String()).Inc()

		eventName := types.EventGeofenceEnter
		if ev.EventType == types.GeofenceExit {
			eventName = types.EventGeofenceExit
		}
		evMsg := models.GeofenceEventMessage{
			Event:         eventName,
			GeofenceEvent: ev,
			CorrelationID: wrap.GetRequestID(ctx),
		}
		if err := s.publisher.PublishGeofenceEvent(evCtx, evMsg); err != nil {
			s.l.Warn(evCtx, "failed to publish geofence event", "zone_id", ev.ZoneID, "error", err.Error())
		}
	}
}

// publishFailure pushes the generic error event for an aborted
// transition. Best effort.
func (s *Service) publishFailure(ctx context.Context, driverID string, cause error) {
	msg := models.ErrorMessage{
		Event:     types.EventError,
		DriverID:  driverID,
		Message:   cause.Error(),
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.PublishError(ctx, msg); err != nil {
		s.l.Warn(ctx, "failed to publish error event", "error", err.Error())
	}
}

func validateSample(point models.GeoPoint, meta models.LocationMetadata) error {
	if point.Latitude < -90 || point.Latitude > 90 {
		return types.ErrInvalidLatitude
	}
	if point.Longitude < -180 || point.Longitude > 180 {
		return types.ErrInvalidLongitude
	}
	if meta.Provider != "" && !meta.Provider.Valid() {
		return types.ErrInvalidProvider
	}
	return nil
}

/*=================Read side=======================*/

// GetDriverLocation serves the freshest view: cache first, canonical
// record as fallback when the cached one has expired.
func (s *Service) GetDriverLocation(ctx context.Context, driverID string) (*models.DriverLocation, error) {
	ctx = wrap.WithDriverID(ctx, driverID)

	if loc, err := s.cache.GetDriverLocation(ctx, driverID); err == nil && loc != nil {
		return loc, nil
	}

	loc, err := s.repos.location.Get(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return loc, nil
}

// FindNearbyDrivers is a straight cache radius query.
func (s *Service) FindNearbyDrivers(ctx context.Context, companyID string, q models.NearbyQuery) ([]models.NearbyDriver, error) {
	ctx = wrap.WithCompanyID(ctx, companyID)

	if q.RadiusMeters <= 0 {
		return nil, wrap.Error(ctx, fmt.Errorf("radius must be positive, got %v", q.RadiusMeters))
	}
	return s.cache.FindDriversNearby(ctx, companyID, q)
}

// GetDriversInZone validates the zone exists, then reads the cached
// membership set.
func (s *Service) GetDriversInZone(ctx context.Context, zoneID string) ([]string, error) {
	ctx = wrap.WithAction(ctx, types.ActionZoneLookup)

	if _, err := s.repos.zone.Get(ctx, zoneID); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return s.cache.GetDriversInZone(ctx, zoneID)
}

// StatsSnapshot aggregates the collector window with cache diagnostics.
type StatsSnapshot struct {
	Tracking         models.TrackingStats    `json:"tracking"`
	CachePerformance models.CachePerformance `json:"cache_performance"`
	Tenant           *models.CacheStats      `json:"tenant,omitempty"`
}

// GetStats returns the rolling window plus cache diagnostics; the tenant
// block is included only when companyID is given.
func (s *Service) GetStats(ctx context.Context, companyID string) StatsSnapshot {
	snapshot := StatsSnapshot{
		Tracking:         s.collector.Snapshot(),
		CachePerformance: s.cache.GetPerformanceMetrics(ctx),
	}
	if companyID != "" {
		stats := s.cache.GetCacheStats(ctx, companyID)
		snapshot.Tenant = &stats
	}
	return snapshot
}
