package domain

type GeofenceType string

const (
	GeofenceCircle  GeofenceType = "circle"
	GeofencePolygon GeofenceType = "polygon"
)

// Geofence is either a circle (Lat, Lon, Radius in meters) or a polygon
// (Coordinates as ordered lat/lon vertices).
type Geofence struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"user_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Type        GeofenceType `json:"type"`
	Lat         *float64     `json:"latitude"`
	Lon         *float64     `json:"longitude"`
	Radius      *float64     `json:"radius"`
	Coordinates [][2]float64 `json:"coordinates"`
	IsActive    bool         `json:"is_active"`
}

type Transition int

const (
	TransitionNone Transition = iota
	TransitionEntered
	TransitionExited
)

func (t Transition) String() string {
	switch t {
	case TransitionEntered:
		return "entered"
	case TransitionExited:
		return "exited"
	default:
		return "none"
	}
}
