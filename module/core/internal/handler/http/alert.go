package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FrankOrac/car-track/module/core/domain"
)

type alertService interface {
	MarkAsRead(ctx context.Context, ownerID, alertID int64) (*domain.Alert, error)
}

type AlertHandler struct {
	alertSvc alertService
}

func NewAlertHandler(alertSvc alertService) *AlertHandler {
	return &AlertHandler{alertSvc: alertSvc}
}

func (h *AlertHandler) Register(r *gin.RouterGroup) {
	r.PUT("/alerts/:alert_id/mark-as-read", h.MarkAsRead)
}

func (h *AlertHandler) MarkAsRead(c *gin.Context) {
	alertID, ok := paramID(c, "alert_id")
	if !ok {
		return
	}

	alert, err := h.alertSvc.MarkAsRead(c.Request.Context(), ownerID(c), alertID)
	if err != nil {
		writeError(c, err, "alert not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Alert marked as read",
		"alert":   alert,
	})
}
