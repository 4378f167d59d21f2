package core

import (
	"context"
	"database/sql"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	handler "github.com/FrankOrac/car-track/module/core/internal/handler/http"
	"github.com/FrankOrac/car-track/module/core/internal/handler/subscriber"
	"github.com/FrankOrac/car-track/module/core/internal/repository/database/postgres"
	"github.com/FrankOrac/car-track/module/core/internal/repository/publisher/rabbitmq"
	"github.com/FrankOrac/car-track/module/core/service"
)

type Module struct {
	IngestSvc *service.IngestService
	AlertSvc  *service.AlertService

	vehicleHandler  *handler.VehicleHandler
	alertHandler    *handler.AlertHandler
	geofenceHandler *handler.GeofenceHandler
	subscriber      *subscriber.LocationSubscriber
}

// Build wires repositories, services and handlers. speedLimitKmh is the
// fleet-wide default used for vehicles without their own limit.
func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, speedLimitKmh float64, logger zerolog.Logger) (*Module, error) {
	vehicleRepo := postgres.NewVehicleRepo(db)
	locationRepo := postgres.NewLocationRepo(db)
	geofenceRepo := postgres.NewGeofenceRepo(db)
	alertRepo := postgres.NewAlertRepo(db)

	alertPub, err := rabbitmq.NewAlertPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("alert publisher: %w", err)
	}

	vehicleSvc := service.NewVehicleService(vehicleRepo)
	locationSvc := service.NewLocationService(locationRepo)
	geofenceSvc := service.NewGeofenceService(geofenceRepo, vehicleRepo)
	alertSvc := service.NewAlertService(alertRepo, alertPub, logger)
	ingestSvc := service.NewIngestService(locationRepo, geofenceSvc, alertSvc, service.NewVehicleLocker(), speedLimitKmh, logger)

	return &Module{
		IngestSvc:       ingestSvc,
		AlertSvc:        alertSvc,
		vehicleHandler:  handler.NewVehicleHandler(vehicleSvc, locationSvc, ingestSvc, alertSvc),
		alertHandler:    handler.NewAlertHandler(alertSvc),
		geofenceHandler: handler.NewGeofenceHandler(geofenceSvc),
		subscriber:      subscriber.NewLocationSubscriber(mqttClient, vehicleSvc, ingestSvc, logger),
	}, nil
}

// RegisterRoutes mounts the tenant-scoped API. Callers without an owner
// header get 401.
func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("", handler.RequireOwner())
	m.vehicleHandler.Register(g)
	m.alertHandler.Register(g)
	m.geofenceHandler.Register(g)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

// Migrate applies the embedded schema. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	return postgres.Migrate(ctx, db)
}

// RequestLogger is exposed for the server's gin engine.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return handler.RequestLogger(logger)
}
