package handlers

import (
	"net/http"
)

// CacheResponse describes the analysis cache.
type CacheResponse struct {
	Entries    int    `json:"entries"`
	Valid      bool   `json:"valid"`
	LastUpdate string `json:"lastUpdate,omitempty"`
}

// GetCacheStats returns analysis cache statistics.
func (h *Handlers) GetCacheStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.curator.CacheStats()
	response := CacheResponse{
		Entries: stats.Entries,
		Valid:   stats.Valid,
	}
	if !stats.LastUpdate.IsZero() {
		response.LastUpdate = stats.LastUpdate.Format("2006-01-02T15:04:05Z07:00")
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, response)
}

// ClearCache deletes the analysis cache. The delete runs in the background,
// or after the active run has flushed. Results of the last run stay available
// until the next run replaces them.
func (h *Handlers) ClearCache(w http.ResponseWriter, _ *http.Request) {
	h.curator.ClearCache()
	writeJSONStatus(w, "clearing", http.StatusAccepted)
}
