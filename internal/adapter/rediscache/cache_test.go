package rediscache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
	"github.com/adilzhm/fleet-tracking-system/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Integration tests against a live Redis. Set REDIS_ADDR (e.g.
// localhost:6379) to run them; they use an isolated key prefix and clean
// up after themselves.
func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *redis.Client) {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}

	prefix := fmt.Sprintf("trk-test-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		ctx := context.Background()
		iter := client.Scan(ctx, 0, prefix+":*", 0).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
		client.Close()
	})

	log := logger.InitLogger("tracking-service-test", logger.LevelError)
	return New(client, ttl, prefix, log), client
}

func testLocation(driverID, companyID string, lat, lon float64) models.DriverLocation {
	now := time.Now().UTC()
	return models.DriverLocation{
		DriverID:  driverID,
		CompanyID: companyID,
		Location:  models.GeoPoint{Latitude: lat, Longitude: lon},
		Metadata: models.LocationMetadata{
			AccuracyMeters: 5,
			Timestamp:      now,
			Provider:       types.ProviderGPS,
		},
		IsOnline: true,
		LastSeen: now,
		Status:   types.StatusAvailable,
	}
}

func TestUpdateAndGetDriverLocation(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	loc := testLocation("d1", "c1", 43.238949, 76.889709)
	loc.CurrentZoneID = ptrS("z1")

	if err := cache.UpdateDriverLocation(ctx, loc); err != nil {
		t.Fatalf("UpdateDriverLocation: %v", err)
	}

	got, err := cache.GetDriverLocation(ctx, "d1")
	if err != nil {
		t.Fatalf("GetDriverLocation: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached record, got miss")
	}
	if got.DriverID != "d1" || got.CompanyID != "c1" {
		t.Errorf("identity mismatch: %s/%s", got.DriverID, got.CompanyID)
	}
	if got.CurrentZoneID == nil || *got.CurrentZoneID != "z1" {
		t.Errorf("zone mismatch: %v", got.CurrentZoneID)
	}

	members, err := cache.GetDriversInZone(ctx, "z1")
	if err != nil {
		t.Fatalf("GetDriversInZone: %v", err)
	}
	if len(members) != 1 || members[0] != "d1" {
		t.Errorf("expected [d1] in zone, got %v", members)
	}
}

func TestGetDriverLocationMiss(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)

	got, err := cache.GetDriverLocation(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetDriverLocation: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss, got %+v", got)
	}
}

func TestTTLExpiry(t *testing.T) {
	cache, _ := newTestCache(t, 300*time.Millisecond)
	ctx := context.Background()

	loc := testLocation("d1", "c1", 43.2, 76.9)
	loc.CurrentZoneID = ptrS("z1")
	if err := cache.UpdateDriverLocation(ctx, loc); err != nil {
		t.Fatalf("UpdateDriverLocation: %v", err)
	}

	time.Sleep(500 * time.Millisecond)

	got, err := cache.GetDriverLocation(ctx, "d1")
	if err != nil {
		t.Fatalf("GetDriverLocation: %v", err)
	}
	if got != nil {
		t.Errorf("expected record to expire, got %+v", got)
	}

	nearby, err := cache.FindDriversNearby(ctx, "c1", models.NearbyQuery{
		Center:       models.GeoPoint{Latitude: 43.2, Longitude: 76.9},
		RadiusMeters: 1000,
	})
	if err != nil {
		t.Fatalf("FindDriversNearby: %v", err)
	}
	if len(nearby) != 0 {
		t.Errorf("expected empty radius result after expiry, got %d", len(nearby))
	}

	members, _ := cache.GetDriversInZone(ctx, "z1")
	if len(members) != 0 {
		t.Errorf("expected zone set to expire, got %v", members)
	}
}

func TestFindDriversNearby(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	// Two drivers ~157m apart, one ~15km away, one in another tenant.
	near1 := testLocation("near1", "c1", 43.238949, 76.889709)
	near2 := testLocation("near2", "c1", 43.240000, 76.891000)
	far := testLocation("far", "c1", 43.100000, 76.889709)
	other := testLocation("other", "c2", 43.238949, 76.889709)

	for _, loc := range []models.DriverLocation{near1, near2, far, other} {
		if err := cache.UpdateDriverLocation(ctx, loc); err != nil {
			t.Fatalf("UpdateDriverLocation(%s): %v", loc.DriverID, err)
		}
	}

	result, err := cache.FindDriversNearby(ctx, "c1", models.NearbyQuery{
		Center:       models.GeoPoint{Latitude: 43.238949, Longitude: 76.889709},
		RadiusMeters: 2000,
		Limit:        10,
	})
	if err != nil {
		t.Fatalf("FindDriversNearby: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result))
	}
	// ASC sort: nearest first.
	if result[0].DriverID != "near1" {
		t.Errorf("expected near1 first, got %s", result[0].DriverID)
	}
	if result[1].DriverID != "near2" {
		t.Errorf("expected near2 second, got %s", result[1].DriverID)
	}
	if result[1].DistanceMeters < 100 || result[1].DistanceMeters > 250 {
		t.Errorf("implausible distance for near2: %v m", result[1].DistanceMeters)
	}
}

func TestZoneTransitionUpdatesMembership(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	loc := testLocation("d1", "c1", 43.2, 76.9)
	loc.CurrentZoneID = ptrS("z1")
	if err := cache.UpdateDriverLocation(ctx, loc); err != nil {
		t.Fatalf("UpdateDriverLocation: %v", err)
	}

	loc.CurrentZoneID = ptrS("z2")
	if err := cache.UpdateDriverLocation(ctx, loc); err != nil {
		t.Fatalf("UpdateDriverLocation: %v", err)
	}

	old, _ := cache.GetDriversInZone(ctx, "z1")
	if len(old) != 0 {
		t.Errorf("expected d1 removed from z1, got %v", old)
	}
	cur, _ := cache.GetDriversInZone(ctx, "z2")
	if len(cur) != 1 || cur[0] != "d1" {
		t.Errorf("expected [d1] in z2, got %v", cur)
	}

	loc.CurrentZoneID = nil
	if err := cache.UpdateDriverLocation(ctx, loc); err != nil {
		t.Fatalf("UpdateDriverLocation: %v", err)
	}
	cur, _ = cache.GetDriversInZone(ctx, "z2")
	if len(cur) != 0 {
		t.Errorf("expected d1 removed from z2 after leaving all zones, got %v", cur)
	}

	// The detail hash must not keep the departed zone either, or the next
	// transition would see a prior state still inside z2.
	got, err := cache.GetDriverLocation(ctx, "d1")
	if err != nil {
		t.Fatalf("GetDriverLocation: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached record, got miss")
	}
	if got.CurrentZoneID != nil {
		t.Errorf("expected no zone on record after leaving all zones, got %q", *got.CurrentZoneID)
	}
}

func TestRemoveDriver(t *testing.T) {
	cache, client := newTestCache(t, time.Minute)
	ctx := context.Background()

	loc := testLocation("d1", "c1", 43.2, 76.9)
	loc.CurrentZoneID = ptrS("z1")
	if err := cache.UpdateDriverLocation(ctx, loc); err != nil {
		t.Fatalf("UpdateDriverLocation: %v", err)
	}

	if err := cache.RemoveDriver(ctx, "d1", "c1"); err != nil {
		t.Fatalf("RemoveDriver: %v", err)
	}

	if got, _ := cache.GetDriverLocation(ctx, "d1"); got != nil {
		t.Errorf("expected detail record gone, got %+v", got)
	}
	if members, _ := cache.GetDriversInZone(ctx, "z1"); len(members) != 0 {
		t.Errorf("expected zone membership gone, got %v", members)
	}
	if n, _ := client.ZCard(ctx, cache.geoKey("c1")).Result(); n != 0 {
		t.Errorf("expected geo index empty, got %d members", n)
	}
}

func TestPerformanceMetricsAndStats(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		loc := testLocation(fmt.Sprintf("d%d", i), "c1", 43.2+float64(i)/1000, 76.9)
		if err := cache.UpdateDriverLocation(ctx, loc); err != nil {
			t.Fatalf("UpdateDriverLocation: %v", err)
		}
	}

	perf := cache.GetPerformanceMetrics(ctx)
	if perf.Samples != 3 {
		t.Errorf("expected 3 latency samples, got %d", perf.Samples)
	}
	if perf.MaxMillis < perf.AvgMillis {
		t.Errorf("max %v below avg %v", perf.MaxMillis, perf.AvgMillis)
	}

	stats := cache.GetCacheStats(ctx, "c1")
	if stats.TrackedDrivers != 3 {
		t.Errorf("expected 3 tracked drivers, got %d", stats.TrackedDrivers)
	}
	if stats.LatencySamples != 3 {
		t.Errorf("expected 3 latency entries, got %d", stats.LatencySamples)
	}
}
