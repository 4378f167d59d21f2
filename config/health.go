package config

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type amqpConn interface {
	IsClosed() bool
}

type mqttConn interface {
	IsConnected() bool
}

type HealthChecker struct {
	db   pinger
	amqp amqpConn
	mqtt mqttConn
}

func NewHealthChecker(db pinger, amqp amqpConn, mqtt mqttConn) *HealthChecker {
	return &HealthChecker{db: db, amqp: amqp, mqtt: mqtt}
}

// Register mounts /healthz and the Prometheus /metrics endpoint. Both sit
// outside the authenticated route group.
func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *HealthChecker) Handle(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}

	down := func(name, reason string) {
		deps[name] = gin.H{"status": "down", "error": reason}
		status = http.StatusServiceUnavailable
	}

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		down("postgres", err.Error())
	} else {
		deps["postgres"] = gin.H{"status": "up"}
	}

	if h.amqp.IsClosed() {
		down("rabbitmq", "connection closed")
	} else {
		deps["rabbitmq"] = gin.H{"status": "up"}
	}

	if !h.mqtt.IsConnected() {
		down("mqtt", "not connected")
	} else {
		deps["mqtt"] = gin.H{"status": "up"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
