package handlers

import (
	"net/http"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// ConfigHandler handles settings and maintenance of the local databases.
type ConfigHandler struct {
	Query ports.QueryService
}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler(query ports.QueryService) *ConfigHandler {
	return &ConfigHandler{Query: query}
}

// HandleGetSettings returns the settings record
func (h *ConfigHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Query.Settings(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, s)
}

// HandleUpdateSettings applies a partial record and returns the result
func (h *ConfigHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeBody(w, r, &patch); err != nil {
		WriteError(w, err)
		return
	}
	s, err := h.Query.UpdateSettings(r.Context(), patch)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, s)
}

func (h *ConfigHandler) HandleClearKnownApps(w http.ResponseWriter, r *http.Request) {
	if err := h.Query.ClearKnownApps(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]bool{"cleared": true})
}

func (h *ConfigHandler) HandleOUIStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Query.VendorStats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, stats)
}

// HandleOUIRefresh downloads the registry now
func (h *ConfigHandler) HandleOUIRefresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.Query.RefreshVendors(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]int{"entries": n})
}

func (h *ConfigHandler) HandleDBStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Query.DBStats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, stats)
}

// HealthHandler answers liveness probes without touching storage.
type HealthHandler struct {
	Version string
	started time.Time
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{Version: version, started: time.Now()}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, map[string]any{
		"status":  "ok",
		"version": h.Version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}
