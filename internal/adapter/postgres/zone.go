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

type ZoneRepo struct {
	db *pgxpool.Pool
}

func NewZoneRepo(db *pgxpool.Pool) *ZoneRepo {
	return &ZoneRepo{
		db: db,
	}
}

// FindContainingZone resolves the single zone a point belongs to: the
// highest-priority active zone of the tenant whose boundary contains the
// point, ties broken by id so overlapping equal-priority zones resolve
// deterministically. (nil, nil) when no zone contains the point.
func (r *ZoneRepo) FindContainingZone(ctx context.Context, companyID string, point models.GeoPoint) (*models.ZoneRef, error) {
	const op = "ZoneRepo.FindContainingZone"
	query := `
		SELECT id, name, priority
		FROM geofence_zones
		WHERE company_id = $1
			AND is_active
			AND ST_Contains(boundary, ST_SetSRID(ST_MakePoint($2, $3), 4326))
		ORDER BY priority DESC, id ASC
		LIMIT 1;`

	var zone models.ZoneRef
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, companyID, point.Longitude, point.Latitude).
		Scan(&zone.ID, &zone.Name, &zone.Priority)
	metrics.RecordDatabaseQuery(serviceName, "find_containing_zone", err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return &zone, nil
}

// Get returns a zone's configuration, types.ErrZoneNotFound when absent.
func (r *ZoneRepo) Get(ctx context.Context, zoneID string) (*models.GeofenceZone, error) {
	const op = "ZoneRepo.Get"
	query := `
		SELECT id, company_id, name, alert_on_entry, alert_on_exit,
			alert_on_dwell, dwell_time_minutes, priority, is_active
		FROM geofence_zones
		WHERE id = $1;`

	var zone models.GeofenceZone
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, zoneID).Scan(
		&zone.ID,
		&zone.CompanyID,
		&zone.Name,
		&zone.AlertOnEntry,
		&zone.AlertOnExit,
		&zone.AlertOnDwell,
		&zone.DwellTimeMinutes,
		&zone.Priority,
		&zone.IsActive,
	)
	metrics.RecordDatabaseQuery(serviceName, "get_zone", err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrZoneNotFound
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return &zone, nil
}
