package postgres

import (
	"context"
	"fmt"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
	"github.com/adilzhm/fleet-tracking-system/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GeofenceEventRepo struct {
	db *pgxpool.Pool
}

func NewGeofenceEventRepo(db *pgxpool.Pool) *GeofenceEventRepo {
	return &GeofenceEventRepo{
		db: db,
	}
}

// Insert appends one transition event. Events are immutable; there is no
// update path.
func (r *GeofenceEventRepo) Insert(ctx context.Context, event models.GeofenceEvent) error {
	const op = "GeofenceEventRepo.Insert"
	query := `
		INSERT INTO geofence_events (id, driver_id, zone_id, event_type, latitude, longitude, speed_mps, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := TxorDB(ctx, r.db).Exec(ctx, query,
		event.ID,
		event.DriverID,
		event.ZoneID,
		event.EventType.String(),
		event.Location.Latitude,
		event.Location.Longitude,
		event.SpeedMps,
		event.Timestamp,
	)
	metrics.RecordDatabaseQuery(serviceName, "insert_geofence_event", err)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}
