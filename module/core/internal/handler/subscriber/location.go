package subscriber

import (
	"context"
	"encoding/json"
	"errors"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/FrankOrac/car-track/module/core/domain"
)

const topicPattern = "/fleet/vehicle/+/location"

type vehicleService interface {
	Get(ctx context.Context, vehicleID int64) (*domain.Vehicle, error)
}

type ingestService interface {
	Ingest(ctx context.Context, vehicle *domain.Vehicle, report domain.LocationReport) (*domain.Location, error)
}

type locationMessage struct {
	VehicleID int64    `json:"vehicle_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Speed     *float64 `json:"speed,omitempty"`
	Address   *string  `json:"address,omitempty"`
}

type LocationSubscriber struct {
	client     mqtt.Client
	vehicleSvc vehicleService
	ingestSvc  ingestService
	logger     zerolog.Logger
}

func NewLocationSubscriber(client mqtt.Client, vehicleSvc vehicleService, ingestSvc ingestService, logger zerolog.Logger) *LocationSubscriber {
	return &LocationSubscriber{
		client:     client,
		vehicleSvc: vehicleSvc,
		ingestSvc:  ingestSvc,
		logger:     logger.With().Str("component", "mqtt_subscriber").Logger(),
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	logger := s.logger.With().Str("topic", msg.Topic()).Logger()

	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		logger.Warn().Err(err).Msg("invalid location message")
		return
	}

	if raw.VehicleID <= 0 || raw.Latitude == nil || raw.Longitude == nil {
		logger.Warn().Int64("vehicle_id", raw.VehicleID).Msg("location message missing vehicle_id, latitude or longitude")
		return
	}

	ctx := context.Background()

	vehicle, err := s.vehicleSvc.Get(ctx, raw.VehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn().Int64("vehicle_id", raw.VehicleID).Msg("unknown vehicle")
			return
		}
		logger.Error().Err(err).Int64("vehicle_id", raw.VehicleID).Msg("vehicle lookup failed")
		return
	}

	loc, err := s.ingestSvc.Ingest(ctx, vehicle, domain.LocationReport{
		Latitude:  *raw.Latitude,
		Longitude: *raw.Longitude,
		Speed:     raw.Speed,
		Address:   raw.Address,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			logger.Warn().Int64("vehicle_id", vehicle.ID).Str("reason", verr.Error()).Msg("location rejected")
			return
		}
		logger.Error().Err(err).Int64("vehicle_id", vehicle.ID).Msg("ingest failed")
		return
	}

	logger.Debug().Int64("vehicle_id", vehicle.ID).Int64("location_id", loc.ID).Msg("location ingested")
}
