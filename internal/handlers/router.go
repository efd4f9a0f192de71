package handlers

import (
	"github.com/gorilla/mux"
)

// NewRouter registers the curator API.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Analysis
	api.HandleFunc("/analysis/start", h.StartAnalysis).Methods("POST")
	api.HandleFunc("/analysis/reanalyze", h.Reanalyze).Methods("POST")
	api.HandleFunc("/analysis/status", h.GetStatus).Methods("GET")

	// Results of the last finished run
	api.HandleFunc("/duplicates", h.GetDuplicates).Methods("GET")
	api.HandleFunc("/categories", h.GetCategories).Methods("GET")
	api.HandleFunc("/photos/{id:.*}", h.GetPhoto).Methods("GET")

	// Cache
	api.HandleFunc("/cache", h.GetCacheStats).Methods("GET")
	api.HandleFunc("/cache", h.ClearCache).Methods("DELETE")

	return r
}
