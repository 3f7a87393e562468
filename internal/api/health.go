package api

import (
	"net/http"
	"time"
)

// LanguageSizer reports what datasets are loaded. Satisfied by
// *sample.Store.
type LanguageSizer interface {
	Languages() []string
	Size(language string) int
}

// HealthHandler reports service status and loaded datasets.
type HealthHandler struct {
	store     LanguageSizer
	version   string
	startTime time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(store LanguageSizer, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{store: store, version: version, startTime: startTime}
}

type healthResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Datasets      map[string]int `json:"datasets"`
}

// ServeHTTP handles GET /api/v1/health. Status degrades when no dataset is
// loaded, since every sample request would fail.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	datasets := make(map[string]int)
	for _, lang := range h.store.Languages() {
		datasets[lang] = h.store.Size(lang)
	}

	status := "ok"
	code := http.StatusOK
	if len(datasets) == 0 {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	WriteJSON(w, code, healthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Datasets:      datasets,
	})
}
