package database

import (
	"context"

	"github.com/FrankOrac/car-track/module/core/domain"
)

// Lookups of a single row return domain.ErrNotFound when nothing matches.

type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	GetOwned(ctx context.Context, ownerID, id int64) (*domain.Vehicle, error)
	ListOwned(ctx context.Context, ownerID int64) ([]domain.Vehicle, error)
}

type LocationRepository interface {
	// Insert stores loc and sets loc.ID.
	Insert(ctx context.Context, loc *domain.Location) error
	GetLatest(ctx context.Context, vehicleID int64) (*domain.Location, error)
	// GetPrevious returns the most recent location of the vehicle other than
	// excludingID, or nil when there is none.
	GetPrevious(ctx context.Context, vehicleID, excludingID int64) (*domain.Location, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Location, error)
}

type GeofenceRepository interface {
	GetActiveForVehicle(ctx context.Context, vehicleID int64) ([]domain.Geofence, error)
	GetOwned(ctx context.Context, ownerID, id int64) (*domain.Geofence, error)
	Attach(ctx context.Context, geofenceID, vehicleID int64) error
	Detach(ctx context.Context, geofenceID, vehicleID int64) error
}

type AlertRepository interface {
	// Insert stores alert and sets alert.ID and alert.CreatedAt.
	Insert(ctx context.Context, alert *domain.Alert) error
	ListForVehicle(ctx context.Context, vehicleID int64) ([]domain.Alert, error)
	GetOwned(ctx context.Context, ownerID, id int64) (*domain.Alert, error)
	MarkAsRead(ctx context.Context, id int64) error
}
