package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MrOplus/NetGuard/internal/adapters/web/handlers"
	"github.com/MrOplus/NetGuard/internal/adapters/web/middleware"
	"github.com/MrOplus/NetGuard/internal/adapters/web/websocket"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// Options tunes the HTTP surface.
type Options struct {
	Token          string
	RateLimit      int
	RateWindow     time.Duration
	AllowedOrigins []string
	Version        string
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr      string
	Query     ports.QueryService
	Control   ports.ControlService
	WSManager *websocket.Manager
	Auth      *middleware.TokenAuth
	Limiter   *middleware.RateLimiter

	ConnectionHandler *handlers.ConnectionHandler
	DeviceHandler     *handlers.DeviceHandler
	HistoryHandler    *handlers.HistoryHandler
	AlertHandler      *handlers.AlertHandler
	ConfigHandler     *handlers.ConfigHandler
	FirewallHandler   *handlers.FirewallHandler
	HealthHandler     *handlers.HealthHandler
	srv               *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, query ports.QueryService, control ports.ControlService, opts Options) (*Server, error) {
	auth, err := middleware.NewTokenAuth(opts.Token)
	if err != nil {
		return nil, err
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 600
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}

	return &Server{
		Addr:      addr,
		Query:     query,
		Control:   control,
		WSManager: websocket.NewManager(query, opts.AllowedOrigins...),
		Auth:      auth,
		Limiter:   middleware.NewRateLimiter(opts.RateLimit, opts.RateWindow),

		ConnectionHandler: handlers.NewConnectionHandler(query, control),
		DeviceHandler:     handlers.NewDeviceHandler(query),
		HistoryHandler:    handlers.NewHistoryHandler(query),
		AlertHandler:      handlers.NewAlertHandler(query),
		ConfigHandler:     handlers.NewConfigHandler(query),
		FirewallHandler:   handlers.NewFirewallHandler(control),
		HealthHandler:     handlers.NewHealthHandler(opts.Version),
	}, nil
}

// Run starts the server and the broadcaster.
func (s *Server) Run(ctx context.Context) error {
	go s.WSManager.Start(ctx)
	defer s.Limiter.Stop()

	handler := otelhttp.NewHandler(SetupRoutes(s), "netguard-api")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
