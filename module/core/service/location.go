package service

import (
	"context"

	"github.com/FrankOrac/car-track/module/core/domain"
	"github.com/FrankOrac/car-track/module/core/internal/repository/database"
)

type LocationService struct {
	repo database.LocationRepository
}

func NewLocationService(repo database.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

func (s *LocationService) GetLatest(ctx context.Context, vehicleID int64) (*domain.Location, error) {
	return s.repo.GetLatest(ctx, vehicleID)
}

func (s *LocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Location, error) {
	return s.repo.GetHistory(ctx, query)
}
