package config

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NewRabbitMQ dials the broker and tags the connection with the MQTT client
// id base so it can be told apart in the management UI.
func NewRabbitMQ(cfg *Config) (*amqp.Connection, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(cfg.MQTTClientID)

	conn, err := amqp.DialConfig(cfg.RabbitMQURL, amqp.Config{Properties: props})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect: %w", err)
	}
	return conn, nil
}
