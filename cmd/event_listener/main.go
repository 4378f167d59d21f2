package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/FrankOrac/car-track/config"
	"github.com/FrankOrac/car-track/module/core/domain"
)

// Must match the server's alert publisher.
const (
	exchangeName = "fleet.events"
	queueName    = "vehicle_alerts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := config.NewLogger(&config.Config{LogLevel: "info"})
		fallback.Fatal().Err(err).Msg("load config")
	}
	logger := config.NewLogger(cfg)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("rabbitmq connect")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal().Err(err).Msg("rabbitmq channel")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		logger.Fatal().Err(err).Msg("declare exchange")
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		logger.Fatal().Err(err).Msg("declare queue")
	}

	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		logger.Fatal().Err(err).Msg("bind queue")
	}

	msgs, err := ch.Consume(queueName, "", true, false, false, false, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("consume")
	}

	logger.Info().Str("queue", queueName).Msg("waiting for vehicle alerts")

	go func() {
		for msg := range msgs {
			var alert domain.Alert
			if err := json.Unmarshal(msg.Body, &alert); err != nil {
				logger.Warn().Err(err).Str("type", msg.Type).Msg("undecodable alert")
				continue
			}

			ev := logger.Info().
				Int64("alert_id", alert.ID).
				Int64("vehicle_id", alert.VehicleID).
				Str("type", string(alert.Type)).
				Str("title", alert.Title)

			switch p := alert.Data.(type) {
			case domain.SpeedPayload:
				ev = ev.Float64("speed", p.Speed).Float64("speed_limit", p.SpeedLimit)
			case domain.GeofencePayload:
				ev = ev.Int64("geofence_id", p.GeofenceID).Str("geofence_name", p.GeofenceName)
			}
			ev.Msg(alert.Description)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")
}
