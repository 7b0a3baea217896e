package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
)

// Mocks record calls under a lock because BatchUpdateLocations drives
// them from concurrent goroutines.

type mockCache struct {
	getFn    func(ctx context.Context, driverID string) (*models.DriverLocation, error)
	updateFn func(ctx context.Context, loc models.DriverLocation) error
	removeFn func(ctx context.Context, driverID, companyID string) error

	mu          sync.Mutex
	stored      map[string]models.DriverLocation
	updateCalls []models.DriverLocation
	removeCalls []string
}

func newMockCache() *mockCache {
	return &mockCache{stored: make(map[string]models.DriverLocation)}
}

func (m *mockCache) UpdateDriverLocation(ctx context.Context, loc models.DriverLocation) error {
	m.mu.Lock()
	m.updateCalls = append(m.updateCalls, loc)
	m.mu.Unlock()
	if m.updateFn != nil {
		return m.updateFn(ctx, loc)
	}
	m.mu.Lock()
	m.stored[loc.DriverID] = loc
	m.mu.Unlock()
	return nil
}

func (m *mockCache) GetDriverLocation(ctx context.Context, driverID string) (*models.DriverLocation, error) {
	if m.getFn != nil {
		return m.getFn(ctx, driverID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if loc, ok := m.stored[driverID]; ok {
		cp := loc
		return &cp, nil
	}
	return nil, nil
}

func (m *mockCache) FindDriversNearby(ctx context.Context, companyID string, q models.NearbyQuery) ([]models.NearbyDriver, error) {
	return []models.NearbyDriver{}, nil
}

func (m *mockCache) GetDriversInZone(ctx context.Context, zoneID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, loc := range m.stored {
		if loc.CurrentZoneID != nil && *loc.CurrentZoneID == zoneID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockCache) RemoveDriver(ctx context.Context, driverID, companyID string) error {
	m.mu.Lock()
	m.removeCalls = append(m.removeCalls, driverID)
	m.mu.Unlock()
	if m.removeFn != nil {
		return m.removeFn(ctx, driverID, companyID)
	}
	m.mu.Lock()
	delete(m.stored, driverID)
	m.mu.Unlock()
	return nil
}

func (m *mockCache) GetPerformanceMetrics(ctx context.Context) models.CachePerformance {
	return models.CachePerformance{}
}

func (m *mockCache) GetCacheStats(ctx context.Context, companyID string) models.CacheStats {
	return models.CacheStats{CompanyID: companyID}
}

type mockDriverRegistry struct {
	getCompanyIDFn func(ctx context.Context, driverID string) (string, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockDriverRegistry) GetCompanyID(ctx context.Context, driverID string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, driverID)
	m.mu.Unlock()
	if m.getCompanyIDFn != nil {
		return m.getCompanyIDFn(ctx, driverID)
	}
	return "company-1", nil
}

type mockLocationRepo struct {
	upsertFn     func(ctx context.Context, loc models.DriverLocation) (bool, error)
	getFn        func(ctx context.Context, driverID string) (*models.DriverLocation, error)
	setOfflineFn func(ctx context.Context, driverID string) error

	mu           sync.Mutex
	upsertCalls  []models.DriverLocation
	offlineCalls []string
}

func (m *mockLocationRepo) Upsert(ctx context.Context, loc models.DriverLocation) (bool, error) {
	m.mu.Lock()
	m.upsertCalls = append(m.upsertCalls, loc)
	m.mu.Unlock()
	if m.upsertFn != nil {
		return m.upsertFn(ctx, loc)
	}
	return true, nil
}

func (m *mockLocationRepo) Get(ctx context.Context, driverID string) (*models.DriverLocation, error) {
	if m.getFn != nil {
		return m.getFn(ctx, driverID)
	}
	return nil, nil
}

func (m *mockLocationRepo) SetOffline(ctx context.Context, driverID string) error {
	m.mu.Lock()
	m.offlineCalls = append(m.offlineCalls, driverID)
	m.mu.Unlock()
	if m.setOfflineFn != nil {
		return m.setOfflineFn(ctx, driverID)
	}
	return nil
}

type mockZoneRepo struct {
	findFn func(ctx context.Context, companyID string, point models.GeoPoint) (*models.ZoneRef, error)
	getFn  func(ctx context.Context, zoneID string) (*models.GeofenceZone, error)
}

func (m *mockZoneRepo) FindContainingZone(ctx context.Context, companyID string, point models.GeoPoint) (*models.ZoneRef, error) {
	if m.findFn != nil {
		return m.findFn(ctx, companyID, point)
	}
	return nil, nil
}

func (m *mockZoneRepo) Get(ctx context.Context, zoneID string) (*models.GeofenceZone, error) {
	if m.getFn != nil {
		return m.getFn(ctx, zoneID)
	}
	return &models.GeofenceZone{ID: zoneID, IsActive: true}, nil
}

type mockEventRepo struct {
	insertFn func(ctx context.Context, event models.GeofenceEvent) error

	mu    sync.Mutex
	calls []models.GeofenceEvent
}

func (m *mockEventRepo) Insert(ctx context.Context, event models.GeofenceEvent) error {
	m.mu.Lock()
	m.calls = append(m.calls, event)
	m.mu.Unlock()
	if m.insertFn != nil {
		return m.insertFn(ctx, event)
	}
	return nil
}

type mockPublisher struct {
	locationFn func(ctx context.Context, msg models.LocationUpdateMessage) error
	geofenceFn func(ctx context.Context, msg models.GeofenceEventMessage) error

	mu           sync.Mutex
	locationMsgs []models.LocationUpdateMessage
	geofenceMsgs []models.GeofenceEventMessage
	presenceMsgs []models.DriverPresenceMessage
	errorMsgs    []models.ErrorMessage
}

func (m *mockPublisher) PublishLocationUpdate(ctx context.Context, msg models.LocationUpdateMessage) error {
	m.mu.Lock()
	m.locationMsgs = append(m.locationMsgs, msg)
	m.mu.Unlock()
	if m.locationFn != nil {
		return m.locationFn(ctx, msg)
	}
	return nil
}

func (m *mockPublisher) PublishGeofenceEvent(ctx context.Context, msg models.GeofenceEventMessage) error {
	m.mu.Lock()
	m.geofenceMsgs = append(m.geofenceMsgs, msg)
	m.mu.Unlock()
	if m.geofenceFn != nil {
		return m.geofenceFn(ctx, msg)
	}
	return nil
}

func (m *mockPublisher) PublishDriverPresence(ctx context.Context, msg models.DriverPresenceMessage) error {
	m.mu.Lock()
	m.presenceMsgs = append(m.presenceMsgs, msg)
	m.mu.Unlock()
	return nil
}

func (m *mockPublisher) PublishError(ctx context.Context, msg models.ErrorMessage) error {
	m.mu.Lock()
	m.errorMsgs = append(m.errorMsgs, msg)
	m.mu.Unlock()
	return nil
}

// mockTxManager runs the callback without a real transaction.
type mockTxManager struct{}

func (mockTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockCollector struct {
	mu             sync.Mutex
	updates        int
	failures       int
	geofenceEvents int
}

func (m *mockCollector) RecordUpdate(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if err != nil {
		m.failures++
	}
}

func (m *mockCollector) RecordGeofenceEvents(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.geofenceEvents += n
}

func (m *mockCollector) Snapshot() models.TrackingStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.TrackingStats{
		Updates:        int64(m.updates),
		Failures:       int64(m.failures),
		GeofenceEvents: int64(m.geofenceEvents),
	}
}
