package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrankOrac/car-track/module/core/domain"
)

type pipeline struct {
	svc       *IngestService
	locations *memLocations
	geofences *memGeofences
	alerts    *memAlerts
}

func newPipeline(attached ...domain.Geofence) *pipeline {
	locations := &memLocations{}
	geofences := &memGeofences{attached: map[int64][]domain.Geofence{1: attached}}
	alerts := &memAlerts{}

	svc := NewIngestService(
		locations,
		NewGeofenceService(geofences, nil),
		NewAlertService(alerts, &mockAlertPublisher{}, zerolog.Nop()),
		NewVehicleLocker(),
		120,
		zerolog.Nop(),
	)

	// strictly increasing clock so fixes are totally ordered
	var mu sync.Mutex
	clock := time.Unix(1715000000, 0)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	return &pipeline{svc: svc, locations: locations, geofences: geofences, alerts: alerts}
}

var (
	testVehicle = &domain.Vehicle{ID: 1, UserID: 1, IsActive: true}
	inDepot     = domain.LocationReport{Latitude: 40.0, Longitude: -74.0}
	outOfDepot  = domain.LocationReport{Latitude: 40.1, Longitude: -74.0}
)

func (p *pipeline) ingest(t *testing.T, r domain.LocationReport) *domain.Location {
	t.Helper()
	loc, err := p.svc.Ingest(context.Background(), testVehicle, r)
	require.NoError(t, err)
	return loc
}

func TestIngest_ReturnsStoredLocation(t *testing.T) {
	p := newPipeline()
	addr := "5th Avenue"

	loc := p.ingest(t, domain.LocationReport{Latitude: 40, Longitude: -74, Speed: floatPtr(30), Address: &addr})

	assert.Equal(t, int64(1), loc.ID)
	assert.Equal(t, int64(1), loc.VehicleID)
	assert.Equal(t, 40.0, loc.Lat)
	assert.Equal(t, -74.0, loc.Lon)
	assert.Equal(t, 30.0, *loc.Speed)
	assert.Equal(t, "5th Avenue", *loc.Address)
	assert.False(t, loc.CreatedAt.IsZero())
	assert.Equal(t, 1, p.locations.count())
	assert.Equal(t, 0, p.alerts.count())
}

func TestIngest_FirstFixNeverTransitions(t *testing.T) {
	p := newPipeline(circle(1, 40.0, -74.0, 500))

	p.ingest(t, inDepot)

	assert.Equal(t, 0, p.alerts.count())
}

func TestIngest_Enter(t *testing.T) {
	p := newPipeline(circle(1, 40.0, -74.0, 500))

	p.ingest(t, outOfDepot)
	assert.Equal(t, 0, p.alerts.count())

	p.ingest(t, inDepot)

	enters := p.alerts.ofType(domain.AlertGeofenceEnter)
	require.Len(t, enters, 1)
	assert.Equal(t, 1, p.alerts.count())
	payload := enters[0].Data.(domain.GeofencePayload)
	assert.Equal(t, int64(1), payload.GeofenceID)
	assert.Equal(t, "Depot", payload.GeofenceName)
	assert.Equal(t, "Entered Geofence: Depot", enters[0].Title)
}

func TestIngest_Exit(t *testing.T) {
	p := newPipeline(circle(1, 40.0, -74.0, 500))

	p.ingest(t, inDepot)
	p.ingest(t, outOfDepot)

	exits := p.alerts.ofType(domain.AlertGeofenceExit)
	require.Len(t, exits, 1)
	assert.Equal(t, 1, p.alerts.count())
	assert.Equal(t, int64(1), exits[0].Data.(domain.GeofencePayload).GeofenceID)
}

func TestIngest_StayingInsideIsQuiet(t *testing.T) {
	p := newPipeline(circle(1, 40.0, -74.0, 500))

	p.ingest(t, outOfDepot)
	p.ingest(t, inDepot)
	p.ingest(t, inDepot)
	p.ingest(t, domain.LocationReport{Latitude: 40.001, Longitude: -74.0})

	assert.Len(t, p.alerts.ofType(domain.AlertGeofenceEnter), 1)
	assert.Equal(t, 1, p.alerts.count())
}

func TestIngest_InactiveGeofenceNeverAlerts(t *testing.T) {
	gf := circle(1, 40.0, -74.0, 500)
	gf.IsActive = false
	p := newPipeline(gf)

	for _, r := range []domain.LocationReport{outOfDepot, inDepot, outOfDepot, inDepot} {
		p.ingest(t, r)
	}

	assert.Equal(t, 0, p.alerts.count())
}

func TestIngest_PolygonGeofenceNeverAlerts(t *testing.T) {
	p := newPipeline(domain.Geofence{
		ID:          2,
		Type:        domain.GeofencePolygon,
		Coordinates: [][2]float64{{39, -75}, {41, -75}, {41, -73}, {39, -73}},
		IsActive:    true,
	})

	p.ingest(t, domain.LocationReport{Latitude: 50, Longitude: -74})
	p.ingest(t, inDepot)

	assert.Equal(t, 0, p.alerts.count())
}

func TestIngest_SpeedAlert(t *testing.T) {
	p := newPipeline()

	loc := p.ingest(t, domain.LocationReport{Latitude: 40, Longitude: -74, Speed: floatPtr(121)})

	speeds := p.alerts.ofType(domain.AlertSpeed)
	require.Len(t, speeds, 1)
	assert.Equal(t, domain.SpeedPayload{
		Speed:      121,
		SpeedLimit: 120,
		Lat:        40,
		Lon:        -74,
		Timestamp:  loc.CreatedAt,
	}, speeds[0].Data)
}

func TestIngest_SpeedAtLimit(t *testing.T) {
	p := newPipeline()

	p.ingest(t, domain.LocationReport{Latitude: 40, Longitude: -74, Speed: floatPtr(120)})

	assert.Equal(t, 0, p.alerts.count())
}

func TestIngest_VehicleSpeedLimitOverride(t *testing.T) {
	p := newPipeline()
	vehicle := &domain.Vehicle{ID: 1, IsActive: true, SpeedLimitKmh: floatPtr(80)}

	_, err := p.svc.Ingest(context.Background(), vehicle, domain.LocationReport{Latitude: 40, Longitude: -74, Speed: floatPtr(90)})
	require.NoError(t, err)

	speeds := p.alerts.ofType(domain.AlertSpeed)
	require.Len(t, speeds, 1)
	assert.Equal(t, 80.0, speeds[0].Data.(domain.SpeedPayload).SpeedLimit)
}

func TestIngest_SpeedAndTransitionTogether(t *testing.T) {
	p := newPipeline(circle(1, 40.0, -74.0, 500))

	p.ingest(t, outOfDepot)
	p.ingest(t, domain.LocationReport{Latitude: 40.0, Longitude: -74.0, Speed: floatPtr(150)})

	assert.Len(t, p.alerts.ofType(domain.AlertSpeed), 1)
	assert.Len(t, p.alerts.ofType(domain.AlertGeofenceEnter), 1)
}

func TestIngest_ValidationRejectsBeforePersisting(t *testing.T) {
	long := strings.Repeat("a", 256)
	tests := []struct {
		name   string
		report domain.LocationReport
		field  string
	}{
		{"lat too high", domain.LocationReport{Latitude: 91, Longitude: 0, Speed: floatPtr(200)}, "latitude"},
		{"lat too low", domain.LocationReport{Latitude: -91, Longitude: 0}, "latitude"},
		{"lon too high", domain.LocationReport{Latitude: 0, Longitude: 181}, "longitude"},
		{"lon too low", domain.LocationReport{Latitude: 0, Longitude: -181}, "longitude"},
		{"negative speed", domain.LocationReport{Latitude: 0, Longitude: 0, Speed: floatPtr(-1)}, "speed"},
		{"address too long", domain.LocationReport{Latitude: 0, Longitude: 0, Address: &long}, "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(circle(1, 0, 0, 500))

			loc, err := p.svc.Ingest(context.Background(), testVehicle, tt.report)
			assert.Nil(t, loc)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Equal(t, 0, p.locations.count())
			assert.Equal(t, 0, p.alerts.count())
		})
	}
}

func TestIngest_BoundaryValuesAccepted(t *testing.T) {
	p := newPipeline()
	addr := strings.Repeat("é", 255)

	for _, r := range []domain.LocationReport{
		{Latitude: 90, Longitude: 180},
		{Latitude: -90, Longitude: -180, Speed: floatPtr(0)},
		{Latitude: 0, Longitude: 0, Address: &addr},
	} {
		p.ingest(t, r)
	}
	assert.Equal(t, 3, p.locations.count())
}

func TestIngest_InactiveVehicleStillRecorded(t *testing.T) {
	p := newPipeline()

	loc, err := p.svc.Ingest(context.Background(), &domain.Vehicle{ID: 1, IsActive: false},
		domain.LocationReport{Latitude: 40, Longitude: -74, Speed: floatPtr(130)})

	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, 1, p.locations.count())
	assert.Equal(t, 1, p.alerts.count())
}

func TestIngest_TimestampMicrosecondPrecision(t *testing.T) {
	p := newPipeline()
	p.svc.now = func() time.Time {
		return time.Date(2024, 5, 6, 13, 50, 56, 123456789, time.UTC)
	}

	loc, err := p.svc.Ingest(context.Background(), testVehicle,
		domain.LocationReport{Latitude: 40, Longitude: -74, Speed: floatPtr(130)})
	require.NoError(t, err)

	want := time.Date(2024, 5, 6, 13, 50, 56, 123456000, time.UTC)
	assert.True(t, loc.CreatedAt.Equal(want), "created_at %v", loc.CreatedAt)

	require.Len(t, p.alerts.rows, 1)
	payload, ok := p.alerts.rows[0].Data.(domain.SpeedPayload)
	require.True(t, ok)
	assert.True(t, payload.Timestamp.Equal(loc.CreatedAt))
}

func TestIngest_LocationStoreErrorIsFatal(t *testing.T) {
	p := newPipeline(circle(1, 40.0, -74.0, 500))
	p.locations.insertErr = errors.New("db error")

	loc, err := p.svc.Ingest(context.Background(), testVehicle, domain.LocationReport{Latitude: 40, Longitude: -74, Speed: floatPtr(200)})

	require.Error(t, err)
	assert.Nil(t, loc)
	assert.Equal(t, 0, p.alerts.count())
}

func TestIngest_AlertStoreErrorIsNotFatal(t *testing.T) {
	p := newPipeline(circle(1, 40.0, -74.0, 500))
	p.ingest(t, outOfDepot)
	p.alerts.insertErr = errors.New("db error")

	loc, err := p.svc.Ingest(context.Background(), testVehicle, domain.LocationReport{Latitude: 40, Longitude: -74, Speed: floatPtr(200)})

	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, 2, p.locations.count())
	assert.Equal(t, 0, p.alerts.count())
}

func TestIngest_PreviousLookupErrorSkipsGeofences(t *testing.T) {
	p := newPipeline(circle(1, 40.0, -74.0, 500))
	p.ingest(t, outOfDepot)
	p.locations.previousErr = errors.New("db error")

	loc, err := p.svc.Ingest(context.Background(), testVehicle, domain.LocationReport{Latitude: 40, Longitude: -74, Speed: floatPtr(200)})

	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Len(t, p.alerts.ofType(domain.AlertSpeed), 1)
	assert.Empty(t, p.alerts.ofType(domain.AlertGeofenceEnter))
}

func TestIngest_GeofenceLoadErrorIsNotFatal(t *testing.T) {
	p := newPipeline(circle(1, 40.0, -74.0, 500))
	p.ingest(t, outOfDepot)
	p.geofences.loadErr = errors.New("db error")

	_, err := p.svc.Ingest(context.Background(), testVehicle, inDepot)

	require.NoError(t, err)
	assert.Equal(t, 0, p.alerts.count())
}

// Duplicate submissions of the same fix racing each other are serialized per
// vehicle, so only the first one observes the outside-to-inside change.
func TestIngest_ConcurrentDuplicatesBounded(t *testing.T) {
	p := newPipeline(circle(1, 40.0, -74.0, 500))
	p.ingest(t, outOfDepot)

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.svc.Ingest(context.Background(), testVehicle, inDepot); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, n+1, p.locations.count())
	assert.Len(t, p.alerts.ofType(domain.AlertGeofenceEnter), 1)
	assert.Equal(t, 0, p.svc.locker.held())
}

func TestNewIngestService_DefaultSpeedLimit(t *testing.T) {
	svc := NewIngestService(nil, nil, nil, NewVehicleLocker(), 0, zerolog.Nop())
	assert.Equal(t, float64(DefaultSpeedLimitKmh), svc.speedLimit)
}
