package config

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// NewMQTT connects with a per-process client id so that several replicas
// sharing MQTT_CLIENT_ID do not disconnect each other.
func NewMQTT(cfg *Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(UniqueClientID(cfg.MQTTClientID)).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}

func UniqueClientID(base string) string {
	return base + "-" + uuid.New().String()
}
