package handlers

import (
	"net/http"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// AlertHandler serves the alert history.
type AlertHandler struct {
	Query ports.QueryService
}

func NewAlertHandler(query ports.QueryService) *AlertHandler {
	return &AlertHandler{Query: query}
}

func (h *AlertHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Query.Alerts(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	WriteJSON(w, alerts)
}

func (h *AlertHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	recent := h.Query.RecentAlerts()
	if recent == nil {
		recent = []domain.Alert{}
	}
	WriteJSON(w, recent)
}

func (h *AlertHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.Query.MarkAlertRead(r.Context(), req.ID); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]int64{"id": req.ID})
}

func (h *AlertHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.Query.ClearAlerts(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]bool{"cleared": true})
}
