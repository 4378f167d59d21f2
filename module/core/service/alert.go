package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/FrankOrac/car-track/module/core/domain"
	"github.com/FrankOrac/car-track/module/core/internal/repository/database"
	"github.com/FrankOrac/car-track/module/core/internal/repository/publisher"
)

const DefaultSpeedLimitKmh = 120

// SpeedAlert returns an alert when the fix carries a speed strictly above
// limitKmh.
func SpeedAlert(vehicle *domain.Vehicle, loc *domain.Location, limitKmh float64) *domain.Alert {
	if loc.Speed == nil || *loc.Speed <= limitKmh {
		return nil
	}
	speed := *loc.Speed
	return &domain.Alert{
		VehicleID: vehicle.ID,
		Type:      domain.AlertSpeed,
		Title:     "Speed Limit Exceeded",
		Description: fmt.Sprintf("Vehicle exceeded speed limit of %s km/h. Current speed: %s km/h.",
			formatFloat(limitKmh), formatFloat(speed)),
		Data: domain.SpeedPayload{
			Speed:      speed,
			SpeedLimit: limitKmh,
			Lat:        loc.Lat,
			Lon:        loc.Lon,
			Timestamp:  loc.CreatedAt,
		},
	}
}

// GeofenceAlert returns an enter or exit alert, or nil for TransitionNone.
func GeofenceAlert(vehicle *domain.Vehicle, gf domain.Geofence, loc *domain.Location, tr domain.Transition) *domain.Alert {
	alert := &domain.Alert{
		VehicleID: vehicle.ID,
		Data: domain.GeofencePayload{
			GeofenceID:   gf.ID,
			GeofenceName: gf.Name,
			Lat:          loc.Lat,
			Lon:          loc.Lon,
			Timestamp:    loc.CreatedAt,
		},
	}

	switch tr {
	case domain.TransitionEntered:
		alert.Type = domain.AlertGeofenceEnter
		alert.Title = "Entered Geofence: " + gf.Name
		alert.Description = fmt.Sprintf("Vehicle entered the %s geofence area.", gf.Name)
	case domain.TransitionExited:
		alert.Type = domain.AlertGeofenceExit
		alert.Title = "Exited Geofence: " + gf.Name
		alert.Description = fmt.Sprintf("Vehicle exited the %s geofence area.", gf.Name)
	default:
		return nil
	}
	return alert
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type AlertService struct {
	repo      database.AlertRepository
	publisher publisher.AlertPublisher
	logger    zerolog.Logger
}

func NewAlertService(repo database.AlertRepository, pub publisher.AlertPublisher, logger zerolog.Logger) *AlertService {
	return &AlertService{repo: repo, publisher: pub, logger: logger}
}

// Emit stores the alert and then fans it out. Only the store is reported
// back; a failed publish is logged since the alert is already durable.
func (s *AlertService) Emit(ctx context.Context, alert *domain.Alert) error {
	if err := s.repo.Insert(ctx, alert); err != nil {
		alertWriteFailures.Inc()
		return fmt.Errorf("persist alert: %w", err)
	}
	alertsEmitted.WithLabelValues(string(alert.Type)).Inc()

	if err := s.publisher.PublishAlert(ctx, alert); err != nil {
		s.logger.Warn().
			Err(err).
			Int64("alert_id", alert.ID).
			Str("type", string(alert.Type)).
			Msg("publish alert")
	}
	return nil
}

func (s *AlertService) List(ctx context.Context, vehicleID int64) ([]domain.Alert, error) {
	return s.repo.ListForVehicle(ctx, vehicleID)
}

func (s *AlertService) MarkAsRead(ctx context.Context, ownerID, alertID int64) (*domain.Alert, error) {
	alert, err := s.repo.GetOwned(ctx, ownerID, alertID)
	if err != nil {
		return nil, err
	}
	if alert.IsRead {
		return alert, nil
	}
	if err := s.repo.MarkAsRead(ctx, alertID); err != nil {
		return nil, err
	}
	alert.IsRead = true
	return alert, nil
}
