package domain

type Vehicle struct {
	ID           int64    `json:"id"`
	UserID       int64    `json:"user_id"`
	Name         string   `json:"name"`
	LicensePlate string   `json:"license_plate"`
	IsActive     bool     `json:"is_active"`
	// SpeedLimitKmh overrides the configured default limit when set.
	SpeedLimitKmh *float64 `json:"speed_limit_kmh"`
}
