package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type AlertType string

const (
	AlertSpeed         AlertType = "speed"
	AlertGeofenceEnter AlertType = "geofence_enter"
	AlertGeofenceExit  AlertType = "geofence_exit"
)

type Alert struct {
	ID          int64        `json:"id"`
	VehicleID   int64        `json:"vehicle_id"`
	Type        AlertType    `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Data        AlertPayload `json:"data"`
	IsRead      bool         `json:"is_read"`
	CreatedAt   time.Time    `json:"created_at"`
}

// AlertPayload is implemented by SpeedPayload and GeofencePayload only.
type AlertPayload interface {
	isAlertPayload()
}

type SpeedPayload struct {
	Speed      float64   `json:"speed"`
	SpeedLimit float64   `json:"speed_limit"`
	Lat        float64   `json:"latitude"`
	Lon        float64   `json:"longitude"`
	Timestamp  time.Time `json:"timestamp"`
}

func (SpeedPayload) isAlertPayload() {}

type GeofencePayload struct {
	GeofenceID   int64     `json:"geofence_id"`
	GeofenceName string    `json:"geofence_name"`
	Lat          float64   `json:"latitude"`
	Lon          float64   `json:"longitude"`
	Timestamp    time.Time `json:"timestamp"`
}

func (GeofencePayload) isAlertPayload() {}

// DecodeAlertPayload picks the payload variant from the alert type.
func DecodeAlertPayload(t AlertType, raw []byte) (AlertPayload, error) {
	switch t {
	case AlertSpeed:
		var p SpeedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode speed payload: %w", err)
		}
		return p, nil
	case AlertGeofenceEnter, AlertGeofenceExit:
		var p GeofencePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode geofence payload: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown alert type %q", t)
	}
}

func (a *Alert) UnmarshalJSON(b []byte) error {
	type plain Alert
	var aux struct {
		plain
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*a = Alert(aux.plain)
	if len(aux.Data) == 0 || string(aux.Data) == "null" {
		a.Data = nil
		return nil
	}
	data, err := DecodeAlertPayload(a.Type, aux.Data)
	if err != nil {
		return err
	}
	a.Data = data
	return nil
}
