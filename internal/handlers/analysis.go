package handlers

import (
	"net/http"
	"strings"

	"photo-curator/internal/analysis"
	"photo-curator/internal/vision"

	"github.com/gorilla/mux"
)

const topLabelCount = 5

// StartAnalysis starts an analysis run unless one is already in progress.
func (h *Handlers) StartAnalysis(w http.ResponseWriter, _ *http.Request) {
	if !h.curator.Start() {
		writeJSONStatus(w, "already_running", http.StatusConflict)
		return
	}
	writeJSONStatus(w, "started", http.StatusAccepted)
}

// Reanalyze discards the cache and analyzes the whole library again.
func (h *Handlers) Reanalyze(w http.ResponseWriter, _ *http.Request) {
	h.curator.ForceReanalysis()
	writeJSONStatus(w, "queued", http.StatusAccepted)
}

// StatusResponse is the analysis status with the last run summary.
type StatusResponse struct {
	Progress        float64 `json:"progress"`
	ProgressPercent int     `json:"progressPercent"`
	Mode            string  `json:"mode"`
	ModeDisplay     string  `json:"modeDisplay"`
	Running         bool    `json:"running"`
	Completed       int     `json:"completed"`
	Total           int     `json:"total"`
	LastRun         lastRun `json:"lastRun"`
}

type lastRun struct {
	FinishedAt string  `json:"finishedAt,omitempty"`
	Seconds    float64 `json:"durationSeconds"`
	Photos     int     `json:"photos"`
	CacheHits  int     `json:"cacheHits"`
	Analyzed   int     `json:"analyzed"`
	Failed     int     `json:"failed"`
	Groups     int     `json:"duplicateGroups"`
	Error      string  `json:"error,omitempty"`
}

// GetStatus returns the analysis progress and the current processing mode.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	u := h.curator.Status()
	run := h.curator.LastRun()

	response := StatusResponse{
		Progress:        u.Progress,
		ProgressPercent: int(u.Progress * 100),
		Mode:            u.Mode.String(),
		ModeDisplay:     u.ModeDisplay,
		Running:         u.Running,
		Completed:       u.Completed,
		Total:           u.Total,
		LastRun: lastRun{
			Seconds:   run.Duration.Seconds(),
			Photos:    run.Photos,
			CacheHits: run.CacheHits,
			Analyzed:  run.Analyzed,
			Failed:    run.Failed,
			Groups:    run.Groups,
			Error:     run.Error,
		},
	}
	if !run.FinishedAt.IsZero() {
		response.LastRun.FinishedAt = run.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, response)
}

type duplicateGroup struct {
	Keeper   string   `json:"keeper"`
	PhotoIDs []string `json:"photoIds"`
}

// GetDuplicates returns the duplicate groups of the last finished run, best
// photo first.
func (h *Handlers) GetDuplicates(w http.ResponseWriter, _ *http.Request) {
	groups := h.curator.DuplicateGroups()
	response := make([]duplicateGroup, 0, len(groups))
	for _, g := range groups {
		response = append(response, duplicateGroup{Keeper: g.Keeper(), PhotoIDs: g.PhotoIDs})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"count":  len(response),
		"groups": response,
	})
}

type categoryResponse struct {
	Category analysis.Category `json:"category"`
	Count    int               `json:"count"`
	PhotoIDs []string          `json:"photoIds"`
}

// GetCategories returns every category in display order with its photos.
func (h *Handlers) GetCategories(w http.ResponseWriter, _ *http.Request) {
	byCategory := h.curator.Categories()
	response := make([]categoryResponse, 0, len(analysis.Categories))
	for _, c := range analysis.Categories {
		ids := byCategory[c]
		if ids == nil {
			ids = []string{}
		}
		response = append(response, categoryResponse{Category: c, Count: len(ids), PhotoIDs: ids})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// PhotoResponse is the analysis of one photo.
type PhotoResponse struct {
	ID               string            `json:"id"`
	Category         analysis.Category `json:"category,omitempty"`
	Confidence       float64           `json:"confidence"`
	Labels           []vision.Label    `json:"labels"`
	FaceCount        int               `json:"faceCount"`
	QualityScore     float64           `json:"qualityScore"`
	HasFeatureVector bool              `json:"hasFeatureVector"`
	FromCache        bool              `json:"fromCache"`
}

// GetPhoto returns the analysis of the photo named by the id path variable.
func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(mux.Vars(r)["id"], "/")
	if id == "" {
		writeJSONError(w, "photo id is required", http.StatusBadRequest)
		return
	}

	result, ok := h.curator.Result(id)
	if !ok {
		writeJSONError(w, "photo not analyzed", http.StatusNotFound)
		return
	}

	labels := result.TopLabels(topLabelCount)
	if labels == nil {
		labels = []vision.Label{}
	}
	response := PhotoResponse{
		ID:               id,
		Labels:           labels,
		FaceCount:        result.FaceCount,
		QualityScore:     result.QualityScore,
		HasFeatureVector: result.HadFeatureVector,
		FromCache:        result.FromCache,
	}
	if a, ok := h.curator.Assignment(id); ok {
		response.Category = a.Category
		response.Confidence = a.Confidence
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}
