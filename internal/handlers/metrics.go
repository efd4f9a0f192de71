package handlers

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMetricsRouter serves Prometheus metrics on /metrics. It runs on its own
// port so scrapes stay out of the API access log.
func NewMetricsRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return r
}
