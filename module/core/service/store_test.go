package service

import (
	"context"
	"sort"
	"sync"

	"github.com/FrankOrac/car-track/module/core/domain"
)

// In-memory repositories shared by the service tests.

type memLocations struct {
	mu          sync.Mutex
	nextID      int64
	rows        []domain.Location
	insertErr   error
	previousErr error
}

func (m *memLocations) Insert(_ context.Context, loc *domain.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.nextID++
	loc.ID = m.nextID
	m.rows = append(m.rows, *loc)
	return nil
}

func (m *memLocations) GetLatest(_ context.Context, vehicleID int64) (*domain.Location, error) {
	return m.latest(vehicleID, 0)
}

func (m *memLocations) GetPrevious(_ context.Context, vehicleID, excludingID int64) (*domain.Location, error) {
	if m.previousErr != nil {
		return nil, m.previousErr
	}
	loc, err := m.latest(vehicleID, excludingID)
	if err == domain.ErrNotFound {
		return nil, nil
	}
	return loc, err
}

func (m *memLocations) latest(vehicleID, excludingID int64) (*domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var candidates []domain.Location
	for _, l := range m.rows {
		if l.VehicleID == vehicleID && l.ID != excludingID {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID > candidates[j].ID
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	loc := candidates[0]
	return &loc, nil
}

func (m *memLocations) GetHistory(_ context.Context, q *domain.HistoryQuery) ([]domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Location
	for _, l := range m.rows {
		if l.VehicleID == q.VehicleID && !l.CreatedAt.Before(q.Start) && !l.CreatedAt.After(q.End) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLocations) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memGeofences struct {
	owned    map[int64]domain.Geofence
	attached map[int64][]domain.Geofence
	loadErr  error
	attaches [][2]int64
	detaches [][2]int64
}

func (m *memGeofences) GetActiveForVehicle(_ context.Context, vehicleID int64) ([]domain.Geofence, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.attached[vehicleID], nil
}

func (m *memGeofences) GetOwned(_ context.Context, ownerID, id int64) (*domain.Geofence, error) {
	gf, ok := m.owned[id]
	if !ok || gf.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &gf, nil
}

func (m *memGeofences) Attach(_ context.Context, geofenceID, vehicleID int64) error {
	m.attaches = append(m.attaches, [2]int64{geofenceID, vehicleID})
	return nil
}

func (m *memGeofences) Detach(_ context.Context, geofenceID, vehicleID int64) error {
	m.detaches = append(m.detaches, [2]int64{geofenceID, vehicleID})
	return nil
}

type memAlerts struct {
	mu        sync.Mutex
	nextID    int64
	rows      []domain.Alert
	insertErr error
}

func (m *memAlerts) Insert(_ context.Context, alert *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.nextID++
	alert.ID = m.nextID
	m.rows = append(m.rows, *alert)
	return nil
}

func (m *memAlerts) ListForVehicle(_ context.Context, vehicleID int64) ([]domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Alert
	for _, a := range m.rows {
		if a.VehicleID == vehicleID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAlerts) GetOwned(_ context.Context, _ int64, id int64) (*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memAlerts) MarkAsRead(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].IsRead = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memAlerts) ofType(t domain.AlertType) []domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Alert
	for _, a := range m.rows {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func (m *memAlerts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memVehicles struct {
	rows map[int64]domain.Vehicle
}

func (m *memVehicles) GetByID(_ context.Context, id int64) (*domain.Vehicle, error) {
	v, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (m *memVehicles) GetOwned(ctx context.Context, ownerID, id int64) (*domain.Vehicle, error) {
	v, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *memVehicles) ListOwned(_ context.Context, ownerID int64) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	for _, v := range m.rows {
		if v.UserID == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

type mockAlertPublisher struct {
	mu        sync.Mutex
	publishFn func(ctx context.Context, alert *domain.Alert) error
	calls     []*domain.Alert
}

func (m *mockAlertPublisher) PublishAlert(ctx context.Context, alert *domain.Alert) error {
	m.mu.Lock()
	m.calls = append(m.calls, alert)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, alert)
	}
	return nil
}

func floatPtr(v float64) *float64 { return &v }
