package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// DefaultHistoryWindow is used when a history query omits start.
const DefaultHistoryWindow = 24 * time.Hour

// HistoryHandler serves app usage and persisted history.
type HistoryHandler struct {
	Query ports.QueryService
	now   func() time.Time
}

func NewHistoryHandler(query ports.QueryService) *HistoryHandler {
	return &HistoryHandler{Query: query, now: time.Now}
}

func (h *HistoryHandler) HandleAppUsage(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Query.AppUsage(r.Context(), domain.ParseUsageRange(r.URL.Query().Get("range")))
	if err != nil {
		WriteError(w, err)
		return
	}
	if apps == nil {
		apps = []domain.AppUsage{}
	}
	WriteJSON(w, apps)
}

// HandleReport streams the app usage PDF as an attachment.
func (h *HistoryHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	rng := domain.ParseUsageRange(r.URL.Query().Get("range"))
	pdf, err := h.Query.UsageReport(r.Context(), rng)
	if err != nil {
		WriteError(w, err)
		return
	}
	filename := fmt.Sprintf("netguard_app_usage_%s_%s.pdf", rng, h.now().Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// HandleHistory answers start/end RFC3339 queries; end defaults to now and
// start to a day before end.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	end := h.now()
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			WriteError(w, errors.Join(domain.ErrInvalidRange, err))
			return
		}
		end = t
	}
	start := end.Add(-DefaultHistoryWindow)
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			WriteError(w, errors.Join(domain.ErrInvalidRange, err))
			return
		}
		start = t
	}

	history, err := h.Query.History(r.Context(), start, end)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, history)
}

func (h *HistoryHandler) HandleTrafficHistory(w http.ResponseWriter, r *http.Request) {
	points, err := h.Query.TrafficHistory(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if points == nil {
		points = []domain.TrafficPoint{}
	}
	WriteJSON(w, points)
}
