package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/FrankOrac/car-track/config"
)

type locationMessage struct {
	VehicleID int64    `json:"vehicle_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Speed     *float64 `json:"speed,omitempty"`
}

// Fixes are scattered around this point, so a geofence centred on it sees
// both enters and exits.
const (
	centerLat = -6.2088
	centerLon = 106.8456
)

func parseVehicleIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid vehicle id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func randomFix(vehicleID int64) locationMessage {
	msg := locationMessage{VehicleID: vehicleID}

	// 40% near the center (~50m drift), otherwise up to ~5km away
	if rand.Float64() < 0.4 {
		msg.Latitude = centerLat + (rand.Float64()-0.5)*0.0005
		msg.Longitude = centerLon + (rand.Float64()-0.5)*0.0005
	} else {
		msg.Latitude = centerLat + (rand.Float64()-0.5)*0.09
		msg.Longitude = centerLon + (rand.Float64()-0.5)*0.09
	}

	// some fixes carry no speed, some exceed the default limit
	if rand.Float64() < 0.9 {
		speed := float64(rand.Intn(150))
		msg.Speed = &speed
	}
	return msg
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds> <vehicle_id,...>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	vehicleIDs, err := parseVehicleIDs(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(config.UniqueClientID("fleet-mock-publisher"))

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logger.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	logger.Info().
		Str("broker", cfg.MQTTBroker).
		Int("interval_s", intervalSec).
		Ints64("vehicles", vehicleIDs).
		Msg("publishing")

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		msg := randomFix(vehicleIDs[rand.Intn(len(vehicleIDs))])

		payload, _ := json.Marshal(msg)
		topic := fmt.Sprintf("/fleet/vehicle/%d/location", msg.VehicleID)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			logger.Error().Err(err).Str("topic", topic).Msg("publish")
			continue
		}

		logger.Debug().Str("topic", topic).RawJSON("payload", payload).Msg("published")
	}
}
