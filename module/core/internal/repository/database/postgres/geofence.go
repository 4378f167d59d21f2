package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FrankOrac/car-track/module/core/domain"
	"github.com/FrankOrac/car-track/module/core/internal/repository/database"
)

var _ database.GeofenceRepository = (*GeofenceRepo)(nil)

const geofenceColumns = `g.id, g.user_id, g.name, g.description, g.type, g.latitude, g.longitude, g.radius, g.coordinates, g.is_active`

type GeofenceRepo struct {
	db *sql.DB
}

func NewGeofenceRepo(db *sql.DB) *GeofenceRepo {
	return &GeofenceRepo{db: db}
}

func (r *GeofenceRepo) GetActiveForVehicle(ctx context.Context, vehicleID int64) ([]domain.Geofence, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+geofenceColumns+` FROM geofences g JOIN geofence_vehicle gv ON gv.geofence_id = g.id WHERE gv.vehicle_id = $1 AND g.is_active ORDER BY g.id`,
		vehicleID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Geofence
	for rows.Next() {
		gf, err := scanGeofence(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *gf)
	}
	return results, rows.Err()
}

func (r *GeofenceRepo) GetOwned(ctx context.Context, ownerID, id int64) (*domain.Geofence, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+geofenceColumns+` FROM geofences g WHERE g.id = $1 AND g.user_id = $2`,
		id, ownerID,
	)

	gf, err := scanGeofence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return gf, err
}

func (r *GeofenceRepo) Attach(ctx context.Context, geofenceID, vehicleID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO geofence_vehicle (geofence_id, vehicle_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		geofenceID, vehicleID,
	)
	return err
}

func (r *GeofenceRepo) Detach(ctx context.Context, geofenceID, vehicleID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM geofence_vehicle WHERE geofence_id = $1 AND vehicle_id = $2`,
		geofenceID, vehicleID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanGeofence(row rowScanner) (*domain.Geofence, error) {
	var (
		gf     domain.Geofence
		gfType string
		coords []byte
	)
	if err := row.Scan(&gf.ID, &gf.UserID, &gf.Name, &gf.Description, &gfType,
		&gf.Lat, &gf.Lon, &gf.Radius, &coords, &gf.IsActive); err != nil {
		return nil, err
	}
	gf.Type = domain.GeofenceType(gfType)

	if len(coords) > 0 {
		if err := json.Unmarshal(coords, &gf.Coordinates); err != nil {
			return nil, fmt.Errorf("geofence %d coordinates: %w", gf.ID, err)
		}
	}
	return &gf, nil
}
