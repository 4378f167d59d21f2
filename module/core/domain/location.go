package domain

import "time"

type Location struct {
	ID        int64     `json:"id"`
	VehicleID int64     `json:"vehicle_id"`
	Lat       float64   `json:"latitude"`
	Lon       float64   `json:"longitude"`
	Speed     *float64  `json:"speed"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationReport is a raw fix as received from a device or the HTTP API,
// before validation.
type LocationReport struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Speed     *float64 `json:"speed"`
	Address   *string  `json:"address"`
}

type HistoryQuery struct {
	VehicleID int64
	Start     time.Time
	End       time.Time
}
