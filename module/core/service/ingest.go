package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/FrankOrac/car-track/module/core/domain"
	"github.com/FrankOrac/car-track/module/core/internal/repository/database"
)

const maxAddressLength = 255

type alertEmitter interface {
	Emit(ctx context.Context, alert *domain.Alert) error
}

type geofenceEvaluator interface {
	Evaluate(ctx context.Context, vehicle *domain.Vehicle, previous *domain.Location, current *domain.Location) ([]*domain.Alert, error)
}

// IngestService stores location reports and raises speed and geofence alerts
// for them. Only the location write can fail an ingest.
type IngestService struct {
	locations  database.LocationRepository
	geofences  geofenceEvaluator
	alerts     alertEmitter
	locker     *VehicleLocker
	speedLimit float64
	logger     zerolog.Logger
	now        func() time.Time
}

func NewIngestService(locations database.LocationRepository, geofences geofenceEvaluator, alerts alertEmitter,
	locker *VehicleLocker, speedLimitKmh float64, logger zerolog.Logger) *IngestService {
	if speedLimitKmh <= 0 {
		speedLimitKmh = DefaultSpeedLimitKmh
	}
	return &IngestService{
		locations:  locations,
		geofences:  geofences,
		alerts:     alerts,
		locker:     locker,
		speedLimit: speedLimitKmh,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *IngestService) Ingest(ctx context.Context, vehicle *domain.Vehicle, report domain.LocationReport) (*domain.Location, error) {
	if err := validateReport(&report); err != nil {
		reportsRejected.Inc()
		return nil, err
	}

	// insert, previous lookup and alert writes must not interleave with
	// another fix from the same vehicle
	unlock := s.locker.Lock(vehicle.ID)
	defer unlock()

	loc := &domain.Location{
		VehicleID: vehicle.ID,
		Lat:       report.Latitude,
		Lon:       report.Longitude,
		Speed:     report.Speed,
		Address:   report.Address,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.locations.Insert(ctx, loc); err != nil {
		return nil, fmt.Errorf("persist location: %w", err)
	}
	locationsIngested.Inc()

	logger := s.logger.With().
		Int64("vehicle_id", vehicle.ID).
		Int64("location_id", loc.ID).
		Logger()

	if alert := SpeedAlert(vehicle, loc, s.speedLimitFor(vehicle)); alert != nil {
		s.emit(ctx, logger, alert)
	}

	previous, err := s.locations.GetPrevious(ctx, vehicle.ID, loc.ID)
	if err != nil {
		logger.Error().Err(err).Msg("load previous location, skipping geofence check")
		return loc, nil
	}

	alerts, err := s.geofences.Evaluate(ctx, vehicle, previous, loc)
	if err != nil {
		logger.Error().Err(err).Msg("geofence check failed")
		return loc, nil
	}
	for _, alert := range alerts {
		s.emit(ctx, logger, alert)
	}

	return loc, nil
}

func (s *IngestService) speedLimitFor(vehicle *domain.Vehicle) float64 {
	if vehicle.SpeedLimitKmh != nil && *vehicle.SpeedLimitKmh > 0 {
		return *vehicle.SpeedLimitKmh
	}
	return s.speedLimit
}

func (s *IngestService) emit(ctx context.Context, logger zerolog.Logger, alert *domain.Alert) {
	if err := s.alerts.Emit(ctx, alert); err != nil {
		logger.Error().
			Err(err).
			Str("type", string(alert.Type)).
			Msg("alert dropped")
		return
	}
	logger.Info().
		Int64("alert_id", alert.ID).
		Str("type", string(alert.Type)).
		Msg(alert.Title)
}

func validateReport(r *domain.LocationReport) error {
	var verr domain.ValidationError
	if r.Latitude < -90 || r.Latitude > 90 {
		verr.Add("latitude", "must be between -90 and 90")
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		verr.Add("longitude", "must be between -180 and 180")
	}
	if r.Speed != nil && *r.Speed < 0 {
		verr.Add("speed", "must be at least 0")
	}
	if r.Address != nil && utf8.RuneCountInString(*r.Address) > maxAddressLength {
		verr.Add("address", fmt.Sprintf("must not be longer than %d characters", maxAddressLength))
	}
	if verr.Empty() {
		return nil
	}
	return &verr
}
