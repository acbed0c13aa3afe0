package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrOplus/NetGuard/internal/adapters/web/handlers"
	"github.com/MrOplus/NetGuard/internal/adapters/web/middleware"
)

// SetupRoutes builds the API router. /health stays public; everything else
// goes through the rate limiter and token check.
func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteStatus(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteStatus(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/health", s.HealthHandler.HandleHealth).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.RateLimitMiddleware(s.Limiter), middleware.AuthMiddleware(s.Auth))

	protected.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	protected.HandleFunc("/ws", s.WSManager.HandleWebSocket).Methods(http.MethodGet)

	api := protected.PathPrefix("/api").Subrouter()

	conns := s.ConnectionHandler
	api.HandleFunc("/connections", conns.HandleConnections).Methods(http.MethodGet)
	api.HandleFunc("/connections/block", conns.HandleBlockRemote).Methods(http.MethodPost)
	api.HandleFunc("/connections/kill", conns.HandleKill).Methods(http.MethodPost)
	api.HandleFunc("/traffic", conns.HandleTraffic).Methods(http.MethodGet)
	api.HandleFunc("/traffic/history", s.HistoryHandler.HandleTrafficHistory).Methods(http.MethodGet)

	devices := s.DeviceHandler
	api.HandleFunc("/devices", devices.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/devices/scan", devices.HandleScan).Methods(http.MethodPost)
	api.HandleFunc("/devices/name", devices.HandleSetName).Methods(http.MethodPost)
	api.HandleFunc("/devices/ports", devices.HandlePorts).Methods(http.MethodGet)
	api.HandleFunc("/devices/scan-ports", devices.HandleScanPorts).Methods(http.MethodPost)

	api.HandleFunc("/app-usage", s.HistoryHandler.HandleAppUsage).Methods(http.MethodGet)
	api.HandleFunc("/app-usage/report", s.HistoryHandler.HandleReport).Methods(http.MethodGet)
	api.HandleFunc("/history", s.HistoryHandler.HandleHistory).Methods(http.MethodGet)

	alerts := s.AlertHandler
	api.HandleFunc("/alerts", alerts.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/alerts/recent", alerts.HandleRecent).Methods(http.MethodGet)
	api.HandleFunc("/alerts/read", alerts.HandleMarkRead).Methods(http.MethodPost)
	api.HandleFunc("/alerts/clear", alerts.HandleClear).Methods(http.MethodPost)

	cfg := s.ConfigHandler
	api.HandleFunc("/settings", cfg.HandleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", cfg.HandleUpdateSettings).Methods(http.MethodPost)
	api.HandleFunc("/known-apps/clear", cfg.HandleClearKnownApps).Methods(http.MethodPost)
	api.HandleFunc("/oui/stats", cfg.HandleOUIStats).Methods(http.MethodGet)
	api.HandleFunc("/oui/refresh", cfg.HandleOUIRefresh).Methods(http.MethodPost)
	api.HandleFunc("/debug/db-stats", cfg.HandleDBStats).Methods(http.MethodGet)

	fw := s.FirewallHandler
	api.HandleFunc("/firewall/rules", fw.HandleRules).Methods(http.MethodGet)
	api.HandleFunc("/firewall/block", fw.HandleBlockApp).Methods(http.MethodPost)
	api.HandleFunc("/firewall/allow", fw.HandleAllowApp).Methods(http.MethodPost)
	api.HandleFunc("/firewall/remove", fw.HandleRemoveRule).Methods(http.MethodPost)
	api.HandleFunc("/pending-connections", fw.HandlePending).Methods(http.MethodGet)
	api.HandleFunc("/pending-connections/respond", fw.HandleRespond).Methods(http.MethodPost)

	return r
}
