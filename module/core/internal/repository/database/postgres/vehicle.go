package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/FrankOrac/car-track/module/core/domain"
	"github.com/FrankOrac/car-track/module/core/internal/repository/database"
)

var _ database.VehicleRepository = (*VehicleRepo)(nil)

const vehicleColumns = `id, user_id, name, license_plate, is_active, speed_limit_kmh`

type VehicleRepo struct {
	db *sql.DB
}

func NewVehicleRepo(db *sql.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

func (r *VehicleRepo) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`,
		id,
	)
	return scanVehicleRow(row)
}

func (r *VehicleRepo) GetOwned(ctx context.Context, ownerID, id int64) (*domain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	return scanVehicleRow(row)
}

func (r *VehicleRepo) ListOwned(ctx context.Context, ownerID int64) ([]domain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE user_id = $1 ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *v)
	}
	return results, rows.Err()
}

func scanVehicleRow(row *sql.Row) (*domain.Vehicle, error) {
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return v, err
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.LicensePlate, &v.IsActive, &v.SpeedLimitKmh); err != nil {
		return nil, err
	}
	return &v, nil
}
