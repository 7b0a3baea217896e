package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
	"github.com/adilzhm/fleet-tracking-system/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceName = "tracking-service"

type LocationRepo struct {
	db *pgxpool.Pool
}

func NewLocationRepo(db *pgxpool.Pool) *LocationRepo {
	return &LocationRepo{
		db: db,
	}
}

// Upsert writes the driver's canonical record, one row per driver.
// last_seen carries the sample's recorded timestamp, so the conflict
// guard fences out-of-order arrivals: a late write whose last_seen is
// older than the stored row is rejected and reported as applied=false so
// the caller can drop the stale sample without failing.
func (r *LocationRepo) Upsert(ctx context.Context, loc models.DriverLocation) (bool, error) {
	const op = "LocationRepo.Upsert"
	query := `
		INSERT INTO driver_locations (
			driver_id, company_id, latitude, longitude, altitude,
			accuracy_meters, heading_degrees, speed_mps, battery_level,
			recorded_at, provider, satellites, hdop, pdop,
			is_online, last_seen, current_zone_id, current_job_id, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (driver_id) DO UPDATE SET
			company_id      = EXCLUDED.company_id,
			latitude        = EXCLUDED.latitude,
			longitude       = EXCLUDED.longitude,
			altitude        = EXCLUDED.altitude,
			accuracy_meters = EXCLUDED.accuracy_meters,
			heading_degrees = EXCLUDED.heading_degrees,
			speed_mps       = EXCLUDED.speed_mps,
			battery_level   = EXCLUDED.battery_level,
			recorded_at     = EXCLUDED.recorded_at,
			provider        = EXCLUDED.provider,
			satellites      = EXCLUDED.satellites,
			hdop            = EXCLUDED.hdop,
			pdop            = EXCLUDED.pdop,
			is_online       = EXCLUDED.is_online,
			last_seen       = EXCLUDED.last_seen,
			current_zone_id = EXCLUDED.current_zone_id,
			current_job_id  = EXCLUDED.current_job_id,
			status          = EXCLUDED.status
		WHERE driver_locations.last_seen <= EXCLUDED.last_seen;`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query,
		loc.DriverID,
		loc.CompanyID,
		loc.Location.Latitude,
		loc.Location.Longitude,
		loc.Location.Altitude,
		loc.Metadata.AccuracyMeters,
		loc.Metadata.HeadingDegrees,
		loc.Metadata.SpeedMps,
		loc.Metadata.BatteryLevel,
		loc.Metadata.Timestamp,
		string(loc.Metadata.Provider),
		loc.Metadata.Satellites,
		loc.Metadata.HDOP,
		loc.Metadata.PDOP,
		loc.IsOnline,
		loc.LastSeen,
		loc.CurrentZoneID,
		loc.CurrentJobID,
		loc.Status.String(),
	)
	metrics.RecordDatabaseQuery(serviceName, "upsert_location", err)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return false, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return tag.RowsAffected() > 0, nil
}

// Get returns the canonical record, types.ErrDriverNotFound when the
// driver has never reported.
func (r *LocationRepo) Get(ctx context.Context, driverID string) (*models.DriverLocation, error) {
	const op = "LocationRepo.Get"
	query := `
		SELECT driver_id, company_id, latitude, longitude, altitude,
			accuracy_meters, heading_degrees, speed_mps, battery_level,
			recorded_at, provider, satellites, hdop, pdop,
			is_online, last_seen, current_zone_id, current_job_id, status
		FROM driver_locations
		WHERE driver_id = $1;`

	var (
		loc      models.DriverLocation
		provider string
		status   string
	)
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, driverID).Scan(
		&loc.DriverID,
		&loc.CompanyID,
		&loc.Location.Latitude,
		&loc.Location.Longitude,
		&loc.Location.Altitude,
		&loc.Metadata.AccuracyMeters,
		&loc.Metadata.HeadingDegrees,
		&loc.Metadata.SpeedMps,
		&loc.Metadata.BatteryLevel,
		&loc.Metadata.Timestamp,
		&provider,
		&loc.Metadata.Satellites,
		&loc.Metadata.HDOP,
		&loc.Metadata.PDOP,
		&loc.IsOnline,
		&loc.LastSeen,
		&loc.CurrentZoneID,
		&loc.CurrentJobID,
		&status,
	)
	metrics.RecordDatabaseQuery(serviceName, "get_location", err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDriverNotFound
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	loc.Metadata.Provider = types.LocationProvider(provider)
	loc.Status = types.DriverStatus(status)
	return &loc, nil
}

// SetOffline marks the driver offline without touching its last position.
func (r *LocationRepo) SetOffline(ctx context.Context, driverID string) error {
	const op = "LocationRepo.SetOffline"
	query := `
		UPDATE driver_locations
		SET is_online = false,
			status    = $2,
			last_seen = now()
		WHERE driver_id = $1;`

	_, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, types.StatusOffline.String())
	metrics.RecordDatabaseQuery(serviceName, "set_offline", err)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}
