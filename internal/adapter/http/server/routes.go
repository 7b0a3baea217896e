package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers) {
	// System Health
	mux.HandleFunc("/health", routes.health.HealthCheck)
	setupMetricsRoute(mux)

	// Ingest
	mux.HandleFunc("POST /drivers/{driver_id}/location", routes.tracking.UpdateLocation)        // Single sample
	mux.HandleFunc("POST /drivers/{driver_id}/locations", routes.tracking.BatchUpdateLocations) // Batched samples
	mux.HandleFunc("POST /drivers/{driver_id}/online", routes.tracking.GoOnline)                // Driver goes online
	mux.HandleFunc("POST /drivers/{driver_id}/offline", routes.tracking.GoOffline)              // Driver goes offline

	// Queries
	mux.HandleFunc("GET /drivers/{driver_id}/location", routes.tracking.GetLocation)
	mux.HandleFunc("GET /companies/{company_id}/drivers/nearby", routes.tracking.FindNearby)
	mux.HandleFunc("GET /zones/{zone_id}/drivers", routes.tracking.GetZoneDrivers)
	mux.HandleFunc("GET /tracking/stats", routes.tracking.GetStats)
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
