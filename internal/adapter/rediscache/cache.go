package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	"github.com/adilzhm/fleet-tracking-system/pkg/logger"
	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
	"github.com/adilzhm/fleet-tracking-system/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const serviceName = "tracking-service"

// latencyLogSize bounds the rolling latency ring kept in Redis.
const latencyLogSize = 1000

/*
Cache is the ephemeral, TTL-scoped geospatial view of driver positions.

Per tenant it keeps a GEO index for radius queries, per driver a flattened
detail hash and a reverse index of zone memberships, and per zone a driver
membership set. All entries share one injectable TTL, refreshed together
on every update but expiring independently. The cache is never the system
of record: TTL lazy expiry is the only removal mechanism besides
RemoveDriver.
*/
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    logger.Logger
}

// New returns a Cache over the given client. ttl scopes every key family;
// prefix namespaces all keys (e.g. "tracking").
func New(client *redis.Client, ttl time.Duration, prefix string, log logger.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		log:    log,
	}
}

// Key layout. The driver-zones reverse index exists so removal does not
// have to scan every zone key.
func (c *Cache) geoKey(companyID string) string {
	return fmt.Sprintf("%s:geo:%s", c.prefix, companyID)
}
func (c *Cache) driverKey(driverID string) string {
	return fmt.Sprintf("%s:driver:%s", c.prefix, driverID)
}
func (c *Cache) zoneKey(zoneID string) string { return fmt.Sprintf("%s:zone:%s", c.prefix, zoneID) }
func (c *Cache) driverZonesKey(driverID string) string {
	return fmt.Sprintf("%s:driver-zones:%s", c.prefix, driverID)
}
func (c *Cache) latencyKey() string { return fmt.Sprintf("%s:latency", c.prefix) }

type latencySample struct {
	Op        string  `json:"op"`
	Millis    float64 `json:"ms"`
	Timestamp int64   `json:"ts"`
}

// UpdateDriverLocation writes the driver's position, detail record and
// zone membership in one MULTI/EXEC batch, refreshing every TTL. Any
// failure rejects the whole batch and propagates; there is no
// partial-success signaling at this layer.
func (c *Cache) UpdateDriverLocation(ctx context.Context, loc models.DriverLocation) error {
	const op = "Cache.UpdateDriverLocation"
	start := time.Now()

	// Reverse-index read outside the pipeline: memberships the driver no
	// longer holds are dropped in the same batch below. A miss here only
	// delays cleanup until the stale sets expire.
	stale, err := c.client.SMembers(ctx, c.driverZonesKey(loc.DriverID)).Result()
	if err != nil {
		c.log.Warn(ctx, "failed to read zone reverse index", "error", err.Error())
		stale = nil
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		geoKey := c.geoKey(loc.CompanyID)
		pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
			Name:      loc.DriverID,
			Longitude: loc.Location.Longitude,
			Latitude:  loc.Location.Latitude,
		})
		pipe.Expire(ctx, geoKey, c.ttl)

		detailKey := c.driverKey(loc.DriverID)
		pipe.HSet(ctx, detailKey, flattenRecord(loc))
		pipe.Expire(ctx, detailKey, c.ttl)

		revKey := c.driverZonesKey(loc.DriverID)
		if loc.CurrentZoneID != nil {
			zoneKey := c.zoneKey(*loc.CurrentZoneID)
			pipe.SAdd(ctx, zoneKey, loc.DriverID)
			pipe.Expire(ctx, zoneKey, c.ttl)
			pipe.SAdd(ctx, revKey, *loc.CurrentZoneID)
			pipe.Expire(ctx, revKey, c.ttl)
		}
		for _, zoneID := range stale {
			if loc.CurrentZoneID != nil && zoneID == *loc.CurrentZoneID {
				continue
			}
			pipe.SRem(ctx, c.zoneKey(zoneID), loc.DriverID)
			pipe.SRem(ctx, revKey, zoneID)
		}

		sample, merr := json.Marshal(latencySample{
			Op:        "update_driver_location",
			Millis:    float64(time.Since(start).Microseconds()) / 1000.0,
			Timestamp: time.Now().UnixMilli(),
		})
		if merr == nil {
			pipe.LPush(ctx, c.latencyKey(), sample)
			pipe.LTrim(ctx, c.latencyKey(), 0, latencyLogSize-1)
		}
		return nil
	})

	metrics.RecordCacheOperation(serviceName, "update_driver_location", err, time.Since(start))
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// GetDriverLocation reads the detail hash and reconstructs the record.
// Misses, partial records and read failures all yield (nil, nil): this
// layer prefers availability over surfacing cache errors on reads.
func (c *Cache) GetDriverLocation(ctx context.Context, driverID string) (*models.DriverLocation, error) {
	fields, err := c.client.HGetAll(ctx, c.driverKey(driverID)).Result()
	if err != nil {
		c.log.Warn(ctx, "cache read failed, treating as miss", "driver_id", driverID, "error", err.Error())
		return nil, nil
	}
	// HGETALL on a missing key returns an empty map; a record written
	// without its required field is treated the same way.
	if len(fields) == 0 || fields[fieldDriverID] == "" {
		return nil, nil
	}

	loc, err := parseRecord(fields)
	if err != nil {
		c.log.Warn(ctx, "cache record malformed, treating as miss", "driver_id", driverID, "error", err.Error())
		return nil, nil
	}
	return loc, nil
}

// FindDriversNearby runs a radius query against the tenant's geo index
// and batch-fetches each match's detail record in one round trip. Any
// error yields an empty result, never a failure. The limit is forwarded
// via COUNT but callers must not assume the store honors it.
func (c *Cache) FindDriversNearby(ctx context.Context, companyID string, q models.NearbyQuery) ([]models.NearbyDriver, error) {
	start := time.Now()

	query := &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  q.Center.Longitude,
			Latitude:   q.Center.Latitude,
			Radius:     q.RadiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
			Count:      q.Limit,
		},
		WithDist: true,
	}

	matches, err := c.client.GeoSearchLocation(ctx, c.geoKey(companyID), query).Result()
	metrics.RecordCacheOperation(serviceName, "find_drivers_nearby", err, time.Since(start))
	if err != nil {
		c.log.Warn(ctx, "geo radius query failed", "company_id", companyID, "error", err.Error())
		return []models.NearbyDriver{}, nil
	}
	if len(matches) == 0 {
		return []models.NearbyDriver{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(matches))
	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, m := range matches {
			cmds[i] = pipe.HGetAll(ctx, c.driverKey(m.Name))
		}
		return nil
	})
	if err != nil {
		c.log.Warn(ctx, "detail batch fetch failed", "company_id", companyID, "error", err.Error())
		return []models.NearbyDriver{}, nil
	}

	result := make([]models.NearbyDriver, 0, len(matches))
	for i, m := range matches {
		fields, err := cmds[i].Result()
		if err != nil || len(fields) == 0 || fields[fieldDriverID] == "" {
			// Detail record expired between the geo query and the batch
			// fetch; skip the member.
			continue
		}
		loc, err := parseRecord(fields)
		if err != nil {
			continue
		}
		result = append(result, models.NearbyDriver{
			DriverLocation: *loc,
			DistanceMeters: m.Dist,
		})
	}
	return result, nil
}

// GetDriversInZone returns the zone's membership set; empty on error.
func (c *Cache) GetDriversInZone(ctx context.Context, zoneID string) ([]string, error) {
	members, err := c.client.SMembers(ctx, c.zoneKey(zoneID)).Result()
	if err != nil {
		c.log.Warn(ctx, "zone membership read failed", "zone_id", zoneID, "error", err.Error())
		return []string{}, nil
	}
	return members, nil
}

// RemoveDriver deletes the driver from the tenant's geo index, drops its
// detail record and removes it from every zone set named by the reverse
// index. Write-path errors propagate.
func (c *Cache) RemoveDriver(ctx context.Context, driverID, companyID string) error {
	const op = "Cache.RemoveDriver"
	start := time.Now()

	revKey := c.driverZonesKey(driverID)
	zones, err := c.client.SMembers(ctx, revKey).Result()
	if err != nil {
		metrics.RecordCacheOperation(serviceName, "remove_driver", err, time.Since(start))
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, c.geoKey(companyID), driverID)
		pipe.Del(ctx, c.driverKey(driverID))
		for _, zoneID := range zones {
			pipe.SRem(ctx, c.zoneKey(zoneID), driverID)
		}
		pipe.Del(ctx, revKey)
		return nil
	})

	metrics.RecordCacheOperation(serviceName, "remove_driver", err, time.Since(start))
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// GetPerformanceMetrics summarizes the bounded latency ring. Diagnostics
// only: zero values on any failure.
func (c *Cache) GetPerformanceMetrics(ctx context.Context) models.CachePerformance {
	entries, err := c.client.LRange(ctx, c.latencyKey(), 0, -1).Result()
	if err != nil {
		return models.CachePerformance{}
	}

	var perf models.CachePerformance
	for _, raw := range entries {
		var s latencySample
		if json.Unmarshal([]byte(raw), &s) != nil {
			continue
		}
		perf.Samples++
		perf.TotalMillis += s.Millis
		if s.Millis > perf.MaxMillis {
			perf.MaxMillis = s.Millis
		}
	}
	if perf.Samples > 0 {
		perf.AvgMillis = perf.TotalMillis / float64(perf.Samples)
	}
	return perf
}

// GetCacheStats reports per-tenant index size and latency-ring length.
// Diagnostics only: zero values on any failure.
func (c *Cache) GetCacheStats(ctx context.Context, companyID string) models.CacheStats {
	stats := models.CacheStats{CompanyID: companyID}

	if n, err := c.client.ZCard(ctx, c.geoKey(companyID)).Result(); err == nil {
		stats.TrackedDrivers = n
	}
	if n, err := c.client.LLen(ctx, c.latencyKey()).Result(); err == nil {
		stats.LatencySamples = n
	}
	return stats
}
