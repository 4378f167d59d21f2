package service

import (
	"context"
	"fmt"

	"github.com/FrankOrac/car-track/module/core/domain"
	"github.com/FrankOrac/car-track/module/core/internal/repository/database"
)

// Contains reports whether the point lies inside the geofence. The circle
// boundary is inclusive. Polygon geofences are stored but not evaluated yet
// and never contain anything; ray casting over Coordinates would go here.
// Malformed geofences contain nothing.
func Contains(gf domain.Geofence, lat, lon float64) bool {
	switch gf.Type {
	case domain.GeofenceCircle:
		if gf.Lat == nil || gf.Lon == nil || gf.Radius == nil || *gf.Radius <= 0 {
			return false
		}
		return DistanceMeters(*gf.Lat, *gf.Lon, lat, lon) <= *gf.Radius
	case domain.GeofencePolygon:
		return false
	default:
		return false
	}
}

// Classify compares membership of the previous and current fix. A nil
// previous fix counts as outside, so a vehicle's first fix never enters.
func Classify(gf domain.Geofence, previous *domain.Location, current domain.Location) domain.Transition {
	wasInside := previous != nil && Contains(gf, previous.Lat, previous.Lon)
	isInside := Contains(gf, current.Lat, current.Lon)

	switch {
	case isInside && !wasInside:
		return domain.TransitionEntered
	case !isInside && wasInside:
		return domain.TransitionExited
	default:
		return domain.TransitionNone
	}
}

type GeofenceService struct {
	repo     database.GeofenceRepository
	vehicles database.VehicleRepository
}

func NewGeofenceService(repo database.GeofenceRepository, vehicles database.VehicleRepository) *GeofenceService {
	return &GeofenceService{repo: repo, vehicles: vehicles}
}

// Evaluate returns one alert per active attached geofence whose membership
// changed between previous and current.
func (s *GeofenceService) Evaluate(ctx context.Context, vehicle *domain.Vehicle, previous *domain.Location, current *domain.Location) ([]*domain.Alert, error) {
	geofences, err := s.repo.GetActiveForVehicle(ctx, vehicle.ID)
	if err != nil {
		return nil, fmt.Errorf("load geofences: %w", err)
	}

	var alerts []*domain.Alert
	for _, gf := range geofences {
		if !gf.IsActive {
			continue
		}
		if alert := GeofenceAlert(vehicle, gf, current, Classify(gf, previous, *current)); alert != nil {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

func (s *GeofenceService) Attach(ctx context.Context, ownerID, geofenceID, vehicleID int64) error {
	if err := s.checkOwnership(ctx, ownerID, geofenceID, vehicleID); err != nil {
		return err
	}
	return s.repo.Attach(ctx, geofenceID, vehicleID)
}

func (s *GeofenceService) Detach(ctx context.Context, ownerID, geofenceID, vehicleID int64) error {
	if err := s.checkOwnership(ctx, ownerID, geofenceID, vehicleID); err != nil {
		return err
	}
	return s.repo.Detach(ctx, geofenceID, vehicleID)
}

func (s *GeofenceService) checkOwnership(ctx context.Context, ownerID, geofenceID, vehicleID int64) error {
	if _, err := s.repo.GetOwned(ctx, ownerID, geofenceID); err != nil {
		return fmt.Errorf("geofence %d: %w", geofenceID, err)
	}
	if _, err := s.vehicles.GetOwned(ctx, ownerID, vehicleID); err != nil {
		return fmt.Errorf("vehicle %d: %w", vehicleID, err)
	}
	return nil
}
