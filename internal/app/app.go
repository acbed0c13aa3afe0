package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MrOplus/NetGuard/internal/adapters/analytics"
	"github.com/MrOplus/NetGuard/internal/adapters/dns"
	"github.com/MrOplus/NetGuard/internal/adapters/fingerprint"
	"github.com/MrOplus/NetGuard/internal/adapters/geoip"
	"github.com/MrOplus/NetGuard/internal/adapters/natsbus"
	"github.com/MrOplus/NetGuard/internal/adapters/netbios"
	"github.com/MrOplus/NetGuard/internal/adapters/portscan"
	"github.com/MrOplus/NetGuard/internal/adapters/privileged"
	"github.com/MrOplus/NetGuard/internal/adapters/reporting"
	"github.com/MrOplus/NetGuard/internal/adapters/storage"
	"github.com/MrOplus/NetGuard/internal/adapters/sysnet"
	webserver "github.com/MrOplus/NetGuard/internal/adapters/web/server"
	"github.com/MrOplus/NetGuard/internal/config"
	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
	"github.com/MrOplus/NetGuard/internal/core/services/alerts"
	"github.com/MrOplus/NetGuard/internal/core/services/control"
	"github.com/MrOplus/NetGuard/internal/core/services/discovery"
	"github.com/MrOplus/NetGuard/internal/core/services/identity"
	"github.com/MrOplus/NetGuard/internal/core/services/monitor"
	"github.com/MrOplus/NetGuard/internal/core/services/persistence"
	"github.com/MrOplus/NetGuard/internal/core/services/query"
	"github.com/MrOplus/NetGuard/internal/core/services/resolver"
	"github.com/MrOplus/NetGuard/internal/core/services/schedule"
	"github.com/MrOplus/NetGuard/internal/core/services/settings"
	"github.com/MrOplus/NetGuard/internal/telemetry"
)

// AlertQueueSize bounds alerts waiting to be persisted and fanned out.
const AlertQueueSize = 256

// Application holds the core components of the agent.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config  *config.Config
	Version string

	Store       *storage.SQLiteAdapter
	Settings    *settings.Service
	Alerts      *alerts.Pipeline
	Detector    *alerts.NewAppDetector
	Identities  *identity.Cache
	Hostnames   *resolver.Worker[string]
	LANNames    *resolver.Worker[string]
	Geo         *resolver.Worker[domain.GeoInfo]
	Enumerator  *monitor.Enumerator
	Traffic     *monitor.TrafficMonitor
	ConnLog     *monitor.ConnectionLogger
	Persistence *persistence.PersistenceManager
	Discovery   *discovery.Service
	Control     *control.Service
	Query       *query.Service
	Vendors     *fingerprint.Registry
	WebServer   *webserver.Server

	prober  *sysnet.Prober
	ouiDB   *fingerprint.OUIDatabase
	mirror  *analytics.ClickHouseMirror
	nats    *natsbus.Publisher
	clients []*privileged.Client
}

// New creates a new Application instance and bootstraps its components.
func New(ctx context.Context, cfg *config.Config, version string) (*Application, error) {
	app := &Application{Config: cfg, Version: version}
	if err := app.bootstrap(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap(ctx context.Context) error {
	telemetry.InitMetrics()

	// 1. Storage & settings
	if err := app.initStorage(); err != nil {
		return err
	}
	app.Settings = settings.NewService(app.Store)
	if _, err := app.Settings.Load(ctx); err != nil {
		log.Printf("Warning: could not load settings, using defaults: %v", err)
	}
	retention := func() int { return app.Settings.Current().EffectiveRetentionDays() }

	// 2. Alerts
	app.Alerts = alerts.NewPipeline(app.Store, AlertQueueSize)
	app.Detector = alerts.NewNewAppDetector(app.Store, app.Alerts).
		WithGate(func() bool { return app.Settings.Current().AskToConnect })

	// 3. Enrichment caches
	app.Identities = identity.NewCache(sysnet.ExeReader{}, sysnet.CmdlineReader{})

	hostCfg := resolver.DefaultHostnameConfig()
	hostCfg.QueueSize = app.Config.HostnameQueue
	// reverse DNS first, then a NetBIOS node-status query
	names := resolver.NewChain(dns.NewReverseResolver(), netbios.NewClient())
	app.Hostnames = resolver.NewHostnameWorker(hostCfg, names)

	lanCfg := resolver.DefaultHostnameConfig()
	lanCfg.Name = "lan-hostname"
	app.LANNames = resolver.NewHostnameWorker(lanCfg, names)

	geoCfg := resolver.DefaultGeoConfig()
	geoCfg.QueueSize = app.Config.GeoQueue
	app.Geo = resolver.NewGeoWorker(geoCfg, geoip.NewClient(app.Config.GeoIPEndpoint))

	// 4. Monitors
	procs := sysnet.Processes{}
	app.Enumerator = monitor.NewEnumerator(sysnet.NewConnectionTable(), app.Identities, procs, app.Hostnames, app.Geo)
	app.Traffic = monitor.NewTrafficMonitor(sysnet.NewNICCounters(), app.Store, retention)
	app.Persistence = persistence.NewPersistenceManager(app.Store, app.Config.PersistBuffer)
	app.ConnLog = monitor.NewConnectionLogger(app.Persistence, app.Store, app.Store, retention)

	// 5. Device discovery
	if err := app.initDiscovery(ctx); err != nil {
		return err
	}

	// 6. Optional sinks and collaborators
	app.initMirrors(ctx)
	firewall, interception := app.initPrivileged()
	app.Control = control.NewService(firewall, interception, procs, app.Enumerator, app.Store)

	// 7. Query & servers
	deps := query.Deps{
		Connections: app.Enumerator,
		Traffic:     app.Traffic,
		TrafficLog:  app.Store,
		Devices:     app.Discovery,
		Usage:       app.Store,
		Logs:        app.Store,
		Alerts:      app.Store,
		Recent:      app.Alerts,
		Settings:    app.Settings,
		KnownApps:   app.Store,
		Detector:    app.Detector,
		Reporter:    reporting.NewPDFExporter(),
		DB:          app.Store,
	}
	if app.Vendors != nil {
		deps.Vendors = app.Vendors
	}
	app.Query = query.NewService(deps)

	srv, err := webserver.NewServer(app.Config.Addr, app.Query, app.Control, webserver.Options{
		Token:          app.Config.APIToken,
		RateLimit:      app.Config.RateLimit,
		AllowedOrigins: app.Config.AllowOrigins,
		Version:        app.Version,
	})
	if err != nil {
		return fmt.Errorf("web server: %w", err)
	}
	app.WebServer = srv
	app.Alerts.Subscribe(srv.WSManager)

	return nil
}

func (app *Application) initStorage() error {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create DB directory: %w", err)
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init system storage: %w", err)
	}
	app.Store = store
	return nil
}

// initVendors opens the OUI registry. A missing or broken registry degrades
// to the static table.
func (app *Application) initVendors() ports.VendorLookup {
	static := fingerprint.StaticVendors(fingerprint.FallbackOUIs)

	db, err := fingerprint.NewOUIDatabase(app.Config.OUIDBPath, 10000, static)
	if err != nil {
		log.Printf("Warning: Failed to load OUI database: %v. Using static fallback.", err)
		return fingerprint.NewVendorLookup(static)
	}
	app.ouiDB = db
	app.Vendors = fingerprint.NewRegistry(db, fingerprint.NewManufSource(app.Config.OUISourceURL))
	return fingerprint.NewVendorLookup(db)
}

func (app *Application) initDiscovery(ctx context.Context) error {
	neighbors, err := sysnet.NewNeighborhood("/proc")
	if err != nil {
		return fmt.Errorf("neighbor table: %w", err)
	}

	app.prober = sysnet.NewProber()
	app.Discovery = discovery.NewService(discovery.DefaultConfig(), neighbors, app.prober, app.initVendors(),
		app.LANNames, app.Store, app.Alerts)
	app.Discovery.SetPortScanner(portscan.NewScanner(), portscan.CommonPorts())

	if err := app.Discovery.Load(ctx); err != nil {
		log.Printf("Warning: could not seed known devices: %v", err)
	}
	return nil
}

func (app *Application) initMirrors(ctx context.Context) {
	if app.Config.NATSURL != "" {
		pub, err := natsbus.NewPublisher(app.Config.NATSURL, app.Config.NATSSubject)
		if err != nil {
			log.Printf("Warning: NATS alert publishing disabled: %v", err)
		} else {
			app.nats = pub
			app.Alerts.Subscribe(pub)
		}
	}

	if ch := app.Config.ClickHouse; ch.Addr != "" {
		mirror, err := analytics.NewClickHouseMirror(ctx, analytics.Config{
			Addr:     ch.Addr,
			Database: ch.Database,
			Username: ch.Username,
			Password: ch.Password,
		})
		if err != nil {
			log.Printf("Warning: ClickHouse mirror disabled: %v", err)
		} else {
			app.mirror = mirror
			app.Traffic.SetMirror(mirror)
			app.Persistence.SetMirror(mirror)
		}
	}
}

// initPrivileged dials the configured collaborators. Unset addresses leave
// the interfaces nil so control reports the feature as unavailable.
func (app *Application) initPrivileged() (ports.FirewallController, ports.InterceptionController) {
	var (
		firewall     ports.FirewallController
		interception ports.InterceptionController
	)
	if addr := app.Config.FirewallAddr; addr != "" {
		if c, err := privileged.Dial(addr); err != nil {
			log.Printf("Warning: firewall collaborator disabled: %v", err)
		} else {
			app.clients = append(app.clients, c)
			firewall = c
		}
	}
	if addr := app.Config.InterceptionAddr; addr != "" {
		if c, err := privileged.Dial(addr); err != nil {
			log.Printf("Warning: interception collaborator disabled: %v", err)
		} else {
			app.clients = append(app.clients, c)
			interception = c
		}
	}
	return firewall, interception
}

// Run starts the application components and manages their execution lifecycle.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting NetGuard components...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.Persistence.Start(ctx)

	var g schedule.Group
	g.Run("alert-pipeline", func() { app.Alerts.Run(ctx) })
	g.Run("hostname-worker", func() { app.Hostnames.Run(ctx) })
	g.Run("geoip-worker", func() { app.Geo.Run(ctx) })
	if app.Vendors != nil {
		g.Run("oui-refresh", func() { app.Vendors.RefreshIfStale(ctx) })
	}
	app.startLoops(ctx, &g)

	errChan := make(chan error, 1)
	go func() {
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	slog.Info("NetGuard Ready. Press Ctrl+C to terminate.", "addr", app.Config.Addr)

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case runErr = <-errChan:
		cancel()
	}

	g.Wait()
	<-app.Persistence.Done()
	app.Close()
	return runErr
}

func (app *Application) startLoops(ctx context.Context, g *schedule.Group) {
	iv := app.Config.Intervals

	g.Go(ctx, "connections", iv.Connections, true, func(ctx context.Context) {
		conns, err := app.Enumerator.Poll(ctx)
		if err != nil {
			return
		}
		app.Detector.Check(ctx, conns)
	})
	g.Go(ctx, "traffic", iv.Traffic, true, func(ctx context.Context) {
		if _, err := app.Traffic.Sample(ctx); err != nil {
			slog.Warn("Traffic sample failed", "error", err)
		}
	})
	g.Go(ctx, "devices", iv.Devices, true, func(ctx context.Context) {
		if _, err := app.Discovery.Scan(ctx); err != nil {
			slog.Warn("Device scan failed", "error", err)
		}
	})
	g.Go(ctx, "offline-sweep", iv.OfflineSweep, false, func(ctx context.Context) {
		if _, err := app.Discovery.OfflineSweep(ctx); err != nil {
			slog.Warn("Offline sweep failed", "error", err)
		}
	})
	g.Go(ctx, "port-sweep", iv.PortSweep, false, func(ctx context.Context) {
		app.Discovery.PortSweep(ctx)
	})
	g.Go(ctx, "traffic-history", iv.History, false, func(ctx context.Context) {
		if err := app.Traffic.RecordHistory(ctx); err != nil {
			slog.Warn("Traffic history write failed", "error", err)
		}
	})
	g.Go(ctx, "connection-log", iv.ConnectionLog, false, func(ctx context.Context) {
		app.ConnLog.Log(ctx, app.Enumerator.Connections(false))
	})
	g.Go(ctx, "connection-log-reset", iv.SeenReset, false, func(ctx context.Context) {
		app.ConnLog.ResetSeen()
		if n, err := app.ConnLog.Prune(ctx); err != nil {
			slog.Warn("Connection log prune failed", "error", err)
		} else if n > 0 {
			slog.Debug("Pruned connection log", "rows", n)
		}
	})
	g.Go(ctx, "cache-purge", iv.CachePurge, false, func(ctx context.Context) {
		slog.Debug("Purged caches",
			"identities", app.Identities.Purge(),
			"hostnames", app.Hostnames.Purge()+app.LANNames.Purge(),
			"geo", app.Geo.Purge())
	})
}

// Close releases storage and network resources. Safe to call on a partially
// bootstrapped application.
func (app *Application) Close() {
	slog.Info("Cleaning up resources...")

	for _, c := range app.clients {
		c.Close()
	}
	app.clients = nil
	if app.nats != nil {
		app.nats.Close()
		app.nats = nil
	}
	if app.mirror != nil {
		app.mirror.Close()
		app.mirror = nil
	}
	if app.prober != nil {
		app.prober.Close()
		app.prober = nil
	}
	if app.ouiDB != nil {
		app.ouiDB.Close()
		app.ouiDB = nil
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
		app.Store = nil
	}
}
