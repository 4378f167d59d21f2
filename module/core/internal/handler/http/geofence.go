package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type geofenceService interface {
	Attach(ctx context.Context, ownerID, geofenceID, vehicleID int64) error
	Detach(ctx context.Context, ownerID, geofenceID, vehicleID int64) error
}

type GeofenceHandler struct {
	geofenceSvc geofenceService
}

func NewGeofenceHandler(geofenceSvc geofenceService) *GeofenceHandler {
	return &GeofenceHandler{geofenceSvc: geofenceSvc}
}

func (h *GeofenceHandler) Register(r *gin.RouterGroup) {
	r.POST("/geofences/:geofence_id/vehicles/:vehicle_id", h.AttachVehicle)
	r.DELETE("/geofences/:geofence_id/vehicles/:vehicle_id", h.DetachVehicle)
}

func (h *GeofenceHandler) AttachVehicle(c *gin.Context) {
	geofenceID, vehicleID, ok := geofenceVehicleIDs(c)
	if !ok {
		return
	}

	if err := h.geofenceSvc.Attach(c.Request.Context(), ownerID(c), geofenceID, vehicleID); err != nil {
		writeError(c, err, "geofence or vehicle not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle attached to geofence successfully"})
}

func (h *GeofenceHandler) DetachVehicle(c *gin.Context) {
	geofenceID, vehicleID, ok := geofenceVehicleIDs(c)
	if !ok {
		return
	}

	if err := h.geofenceSvc.Detach(c.Request.Context(), ownerID(c), geofenceID, vehicleID); err != nil {
		writeError(c, err, "geofence or vehicle not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle detached from geofence successfully"})
}

func geofenceVehicleIDs(c *gin.Context) (int64, int64, bool) {
	geofenceID, ok := paramID(c, "geofence_id")
	if !ok {
		return 0, 0, false
	}
	vehicleID, ok := paramID(c, "vehicle_id")
	if !ok {
		return 0, 0, false
	}
	return geofenceID, vehicleID, true
}
