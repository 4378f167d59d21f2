package service

import (
	"context"

	"github.com/FrankOrac/car-track/module/core/domain"
	"github.com/FrankOrac/car-track/module/core/internal/repository/database"
)

type VehicleService struct {
	repo database.VehicleRepository
}

func NewVehicleService(repo database.VehicleRepository) *VehicleService {
	return &VehicleService{repo: repo}
}

// Get looks a vehicle up without owner scoping, for device channels.
func (s *VehicleService) Get(ctx context.Context, vehicleID int64) (*domain.Vehicle, error) {
	return s.repo.GetByID(ctx, vehicleID)
}

func (s *VehicleService) GetOwned(ctx context.Context, ownerID, vehicleID int64) (*domain.Vehicle, error) {
	return s.repo.GetOwned(ctx, ownerID, vehicleID)
}

func (s *VehicleService) ListOwned(ctx context.Context, ownerID int64) ([]domain.Vehicle, error) {
	return s.repo.ListOwned(ctx, ownerID)
}
