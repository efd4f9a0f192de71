package handlers

import (
	"net/http"
	"runtime"
	"time"

	"photo-curator/internal/startup"
)

const (
	statusHealthy   = "healthy"
	statusAnalyzing = "analyzing"
	statusDegraded  = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Analyzing bool   `json:"analyzing"`
	Mode      string `json:"mode"`
	LastRun   string `json:"lastRun,omitempty"`
	LastError string `json:"lastError,omitempty"`

	// Progress info
	Completed int `json:"completed"`
	Total     int `json:"total"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	CacheEntries int `json:"cacheEntries"`
}

// HealthCheck returns the health status of the service. A failed last run
// reports degraded but still answers 200; the service keeps serving the
// previous results.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	status := h.curator.Status()
	run := h.curator.LastRun()

	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Analyzing:    status.Running,
		Mode:         status.ModeDisplay,
		Completed:    status.Completed,
		Total:        status.Total,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		CacheEntries: h.curator.CacheStats().Entries,
	}

	if status.Running {
		response.Status = statusAnalyzing
	}
	if !run.FinishedAt.IsZero() {
		response.LastRun = run.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if run.Error != "" {
		response.LastError = run.Error
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck always returns 200 while the server is running.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}
