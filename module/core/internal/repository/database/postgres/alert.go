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

var _ database.AlertRepository = (*AlertRepo)(nil)

const alertColumns = `a.id, a.vehicle_id, a.type, a.title, a.description, a.data, a.is_read, a.created_at`

type AlertRepo struct {
	db *sql.DB
}

func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{db: db}
}

func (r *AlertRepo) Insert(ctx context.Context, alert *domain.Alert) error {
	data, err := json.Marshal(alert.Data)
	if err != nil {
		return fmt.Errorf("marshal alert data: %w", err)
	}

	// lib/pq sends []byte as bytea, jsonb needs text
	return r.db.QueryRowContext(ctx,
		`INSERT INTO alerts (vehicle_id, type, title, description, data) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		alert.VehicleID, string(alert.Type), alert.Title, alert.Description, string(data),
	).Scan(&alert.ID, &alert.CreatedAt)
}

func (r *AlertRepo) ListForVehicle(ctx context.Context, vehicleID int64) ([]domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts a WHERE a.vehicle_id = $1 ORDER BY a.created_at DESC, a.id DESC`,
		vehicleID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *alert)
	}
	return results, rows.Err()
}

func (r *AlertRepo) GetOwned(ctx context.Context, ownerID, id int64) (*domain.Alert, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts a JOIN vehicles v ON v.id = a.vehicle_id WHERE a.id = $1 AND v.user_id = $2`,
		id, ownerID,
	)

	alert, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return alert, err
}

func (r *AlertRepo) MarkAsRead(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE alerts SET is_read = TRUE WHERE id = $1`, id)
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

func scanAlert(row rowScanner) (*domain.Alert, error) {
	var (
		alert     domain.Alert
		alertType string
		data      []byte
	)
	if err := row.Scan(&alert.ID, &alert.VehicleID, &alertType, &alert.Title, &alert.Description,
		&data, &alert.IsRead, &alert.CreatedAt); err != nil {
		return nil, err
	}
	alert.Type = domain.AlertType(alertType)

	payload, err := domain.DecodeAlertPayload(alert.Type, data)
	if err != nil {
		return nil, fmt.Errorf("alert %d: %w", alert.ID, err)
	}
	alert.Data = payload
	return &alert, nil
}
