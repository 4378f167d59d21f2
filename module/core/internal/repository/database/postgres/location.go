package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/FrankOrac/car-track/module/core/domain"
	"github.com/FrankOrac/car-track/module/core/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

const locationColumns = `id, vehicle_id, latitude, longitude, speed, address, created_at`

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, loc *domain.Location) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO locations (vehicle_id, latitude, longitude, speed, address, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		loc.VehicleID, loc.Lat, loc.Lon, loc.Speed, loc.Address, loc.CreatedAt,
	).Scan(&loc.ID)
}

func (r *LocationRepo) GetLatest(ctx context.Context, vehicleID int64) (*domain.Location, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE vehicle_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		vehicleID,
	)

	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return loc, err
}

func (r *LocationRepo) GetPrevious(ctx context.Context, vehicleID, excludingID int64) (*domain.Location, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE vehicle_id = $1 AND id <> $2 ORDER BY created_at DESC, id DESC LIMIT 1`,
		vehicleID, excludingID,
	)

	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return loc, err
}

func (r *LocationRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Location, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE vehicle_id = $1 AND created_at >= $2 AND created_at <= $3 ORDER BY created_at ASC, id ASC`,
		query.VehicleID, query.Start, query.End,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *loc)
	}
	return results, rows.Err()
}

func scanLocation(row rowScanner) (*domain.Location, error) {
	var loc domain.Location
	if err := row.Scan(&loc.ID, &loc.VehicleID, &loc.Lat, &loc.Lon, &loc.Speed, &loc.Address, &loc.CreatedAt); err != nil {
		return nil, err
	}
	return &loc, nil
}
