package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	locationsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cartrack_locations_ingested_total",
		Help: "Locations persisted by the ingest pipeline.",
	})
	reportsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cartrack_location_reports_rejected_total",
		Help: "Location reports rejected by validation.",
	})
	alertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cartrack_alerts_emitted_total",
		Help: "Alerts persisted, by alert type.",
	}, []string{"type"})
	alertWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cartrack_alert_write_failures_total",
		Help: "Alerts lost because the alert store rejected the write.",
	})
)
