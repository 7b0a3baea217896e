package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
	"github.com/adilzhm/fleet-tracking-system/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DriverRepo struct {
	db *pgxpool.Pool
}

func NewDriverRepo(db *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{
		db: db,
	}
}

// GetCompanyID resolves a driver to its tenant. Unknown drivers yield
// types.ErrDriverNotFound.
func (r *DriverRepo) GetCompanyID(ctx context.Context, driverID string) (string, error) {
	const op = "DriverRepo.GetCompanyID"
	query := `
		SELECT company_id
		FROM drivers
		WHERE id = $1;`

	var companyID string
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, driverID).Scan(&companyID)
	metrics.RecordDatabaseQuery(serviceName, "get_company_id", err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", types.ErrDriverNotFound
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return companyID, nil
}
