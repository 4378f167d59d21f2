package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FrankOrac/car-track/module/core/domain"
)

type vehicleService interface {
	GetOwned(ctx context.Context, ownerID, vehicleID int64) (*domain.Vehicle, error)
	ListOwned(ctx context.Context, ownerID int64) ([]domain.Vehicle, error)
}

type locationService interface {
	GetLatest(ctx context.Context, vehicleID int64) (*domain.Location, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Location, error)
}

type ingestService interface {
	Ingest(ctx context.Context, vehicle *domain.Vehicle, report domain.LocationReport) (*domain.Location, error)
}

type alertLister interface {
	List(ctx context.Context, vehicleID int64) ([]domain.Alert, error)
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Speed     *float64 `json:"speed"`
	Address   *string  `json:"address"`
}

type locationResponse struct {
	ID        int64    `json:"id"`
	VehicleID int64    `json:"vehicle_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Speed     *float64 `json:"speed"`
	Address   *string  `json:"address"`
	Timestamp int64    `json:"timestamp"`
}

type VehicleHandler struct {
	vehicleSvc  vehicleService
	locationSvc locationService
	ingestSvc   ingestService
	alertSvc    alertLister
}

func NewVehicleHandler(vehicleSvc vehicleService, locationSvc locationService, ingestSvc ingestService, alertSvc alertLister) *VehicleHandler {
	return &VehicleHandler{
		vehicleSvc:  vehicleSvc,
		locationSvc: locationSvc,
		ingestSvc:   ingestSvc,
		alertSvc:    alertSvc,
	}
}

func (h *VehicleHandler) Register(r *gin.RouterGroup) {
	r.GET("/vehicles", h.GetAllVehicles)
	r.POST("/vehicles/:vehicle_id/locations", h.StoreLocation)
	r.GET("/vehicles/:vehicle_id/locations", h.GetHistory)
	r.GET("/vehicles/:vehicle_id/locations/latest", h.GetLatestLocation)
	r.GET("/vehicles/:vehicle_id/alerts", h.GetAlerts)
}

func (h *VehicleHandler) GetAllVehicles(c *gin.Context) {
	vehicles, err := h.vehicleSvc.ListOwned(c.Request.Context(), ownerID(c))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch vehicles"})
		return
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}

	c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleHandler) StoreLocation(c *gin.Context) {
	vehicle, ok := h.ownedVehicle(c)
	if !ok {
		return
	}

	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			writeValidationError(c, map[string][]string{typeErr.Field: {"must be a " + typeErr.Type.String()}})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	missing := map[string][]string{}
	if req.Latitude == nil {
		missing["latitude"] = []string{"is required"}
	}
	if req.Longitude == nil {
		missing["longitude"] = []string{"is required"}
	}
	if len(missing) > 0 {
		writeValidationError(c, missing)
		return
	}

	loc, err := h.ingestSvc.Ingest(c.Request.Context(), vehicle, domain.LocationReport{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Speed:     req.Speed,
		Address:   req.Address,
	})
	if err != nil {
		writeError(c, err, "vehicle not found")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Location added successfully",
		"location": toLocationResponse(loc),
	})
}

func (h *VehicleHandler) GetLatestLocation(c *gin.Context) {
	vehicle, ok := h.ownedVehicle(c)
	if !ok {
		return
	}

	loc, err := h.locationSvc.GetLatest(c.Request.Context(), vehicle.ID)
	if err != nil {
		writeError(c, err, "no location data available for this vehicle")
		return
	}

	c.JSON(http.StatusOK, toLocationResponse(loc))
}

func (h *VehicleHandler) GetHistory(c *gin.Context) {
	vehicle, ok := h.ownedVehicle(c)
	if !ok {
		return
	}

	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}

	query := &domain.HistoryQuery{
		VehicleID: vehicle.ID,
		Start:     time.Unix(start, 0),
		End:       time.Unix(end, 0),
	}

	locations, err := h.locationSvc.GetHistory(c.Request.Context(), query)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]locationResponse, len(locations))
	for i := range locations {
		results[i] = toLocationResponse(&locations[i])
	}
	c.JSON(http.StatusOK, results)
}

func (h *VehicleHandler) GetAlerts(c *gin.Context) {
	vehicle, ok := h.ownedVehicle(c)
	if !ok {
		return
	}

	alerts, err := h.alertSvc.List(c.Request.Context(), vehicle.ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alerts"})
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}

	c.JSON(http.StatusOK, alerts)
}

// ownedVehicle resolves :vehicle_id for the caller and writes the error
// response itself when it returns false.
func (h *VehicleHandler) ownedVehicle(c *gin.Context) (*domain.Vehicle, bool) {
	vehicleID, ok := paramID(c, "vehicle_id")
	if !ok {
		return nil, false
	}

	vehicle, err := h.vehicleSvc.GetOwned(c.Request.Context(), ownerID(c), vehicleID)
	if err != nil {
		writeError(c, err, "vehicle not found")
		return nil, false
	}
	return vehicle, true
}

func toLocationResponse(loc *domain.Location) locationResponse {
	return locationResponse{
		ID:        loc.ID,
		VehicleID: loc.VehicleID,
		Latitude:  loc.Lat,
		Longitude: loc.Lon,
		Speed:     loc.Speed,
		Address:   loc.Address,
		Timestamp: loc.CreatedAt.Unix(),
	}
}
