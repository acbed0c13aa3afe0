// Package discovery finds devices on the local /24 and tracks their presence.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
	"github.com/MrOplus/NetGuard/internal/core/services/alerts"
	"github.com/MrOplus/NetGuard/internal/telemetry"
)

// Config bounds the fan-out of a discovery pass.
type Config struct {
	ProbeConcurrency    int
	ProbeTimeout        time.Duration
	ProbeCeiling        time.Duration
	HostnameConcurrency int64
	HostnameCeiling     time.Duration
	Ports               []int
}

// DefaultConfig returns the standard pass limits.
func DefaultConfig() Config {
	return Config{
		ProbeConcurrency:    50,
		ProbeTimeout:        100 * time.Millisecond,
		ProbeCeiling:        3 * time.Second,
		HostnameConcurrency: 5,
		HostnameCeiling:     30 * time.Second,
	}
}

// HostnameSource resolves a LAN address, normally through the hostname cache.
type HostnameSource interface {
	Resolve(ctx context.Context, ip string) (string, error)
}

// Service runs discovery passes and owns the known-device set.
type Service struct {
	cfg       Config
	network   ports.NetworkInspector
	prober    ports.Prober
	vendors   ports.VendorLookup
	hostnames HostnameSource
	store     ports.DeviceStore
	publisher ports.AlertPublisher
	scanner   ports.PortScanner

	passMu sync.Mutex

	mu            sync.RWMutex
	known         map[string]struct{}
	openPorts     map[string][]domain.OpenPort
	firstPassDone bool

	now func() time.Time
}

// NewService wires a discovery service. prober, hostnames and scanner may be nil.
func NewService(cfg Config, network ports.NetworkInspector, prober ports.Prober, vendors ports.VendorLookup,
	hostnames HostnameSource, store ports.DeviceStore, publisher ports.AlertPublisher) *Service {
	return &Service{
		cfg:       cfg,
		network:   network,
		prober:    prober,
		vendors:   vendors,
		hostnames: hostnames,
		store:     store,
		publisher: publisher,
		known:     make(map[string]struct{}),
		openPorts: make(map[string][]domain.OpenPort),
		now:       time.Now,
	}
}

// SetPortScanner enables the port sweep.
func (s *Service) SetPortScanner(scanner ports.PortScanner, portList []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanner = scanner
	s.cfg.Ports = portList
}

// Load seeds the known set from storage so persisted devices never alert again.
func (s *Service) Load(ctx context.Context) error {
	devices, err := s.store.GetAllDevices(ctx)
	if err != nil {
		return fmt.Errorf("load devices: %w", err)
	}
	s.mu.Lock()
	for _, d := range devices {
		s.known[d.MACAddress] = struct{}{}
		if len(d.OpenPorts) > 0 {
			s.openPorts[d.MACAddress] = d.OpenPorts
		}
	}
	s.mu.Unlock()
	slog.Info("Loaded known devices", "count", len(devices))
	return nil
}

// FirstPassDone reports whether a pass has completed since startup.
func (s *Service) FirstPassDone() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firstPassDone
}

// Scan runs one discovery pass and returns the devices seen in it.
// Passes never overlap.
func (s *Service) Scan(ctx context.Context) ([]domain.Device, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	gateway, err := s.network.DefaultGateway(ctx)
	if err != nil {
		slog.Warn("No default gateway, skipping probe sweep", "error", err)
	} else {
		s.sweep(ctx, gateway)
	}

	devices, err := s.collect(ctx)
	if err != nil {
		telemetry.PollFailures.WithLabelValues("devices").Inc()
		return nil, err
	}
	s.resolveHostnames(ctx, devices)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	var fresh []domain.Device

	s.mu.Lock()
	alerting := s.firstPassDone
	for i := range devices {
		d := &devices[i]
		d.FirstSeen, d.LastSeen, d.IsOnline = now, now, true
		if p, ok := s.openPorts[d.MACAddress]; ok {
			d.OpenPorts = p
		}
		if _, ok := s.known[d.MACAddress]; !ok {
			s.known[d.MACAddress] = struct{}{}
			if alerting {
				fresh = append(fresh, *d)
			}
		}
	}
	s.firstPassDone = true
	s.mu.Unlock()

	for _, d := range devices {
		if err := s.store.UpsertDevice(ctx, d); err != nil {
			slog.Error("Failed to upsert device", "mac", d.MACAddress, "error", err)
		}
	}
	for _, d := range fresh {
		s.publisher.Publish(alerts.NewDeviceAlert(d, now))
	}

	telemetry.DevicesKnown.WithLabelValues("online").Set(float64(len(devices)))
	slog.Debug("Discovery pass complete", "devices", len(devices), "new", len(fresh))
	return devices, nil
}

// sweep probes every host of the gateway's /24 except our own addresses so
// the neighbor table gets populated.
func (s *Service) sweep(ctx context.Context, gateway net.IP) {
	if s.prober == nil {
		return
	}
	gw := gateway.To4()
	if gw == nil {
		return
	}

	self := make(map[string]struct{})
	if addrs, err := s.network.LocalAddresses(); err == nil {
		for _, a := range addrs {
			self[a.String()] = struct{}{}
		}
	}

	sweepCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeCeiling)
	defer cancel()

	g, gctx := errgroup.WithContext(sweepCtx)
	g.SetLimit(s.cfg.ProbeConcurrency)
	for host := 1; host <= 254; host++ {
		target := net.IPv4(gw[0], gw[1], gw[2], byte(host))
		if _, mine := self[target.String()]; mine {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			pctx, pcancel := context.WithTimeout(gctx, s.cfg.ProbeTimeout)
			defer pcancel()
			_ = s.prober.Probe(pctx, target)
			return nil
		})
	}
	_ = g.Wait()
}

// collect reads the neighbor table and keeps one valid, dynamic entry per MAC.
func (s *Service) collect(ctx context.Context) ([]domain.Device, error) {
	entries, err := s.network.Neighbors(ctx)
	if err != nil {
		return nil, fmt.Errorf("read neighbor table: %w", err)
	}

	seen := make(map[string]struct{})
	var devices []domain.Device
	for _, e := range entries {
		if !e.Dynamic || !domain.IsValidDeviceIP(e.IPAddress) {
			continue
		}
		hw, err := net.ParseMAC(e.MACAddress)
		if err != nil || !domain.IsValidDeviceMAC(hw) {
			continue
		}
		mac, err := domain.NormalizeMAC(e.MACAddress)
		if err != nil {
			continue
		}
		if _, dup := seen[mac]; dup {
			continue
		}
		seen[mac] = struct{}{}

		dev := domain.Device{MACAddress: mac, IPAddress: e.IPAddress}
		if s.vendors != nil {
			vendor, err := s.vendors.LookupVendor(ctx, mac)
			if err != nil {
				slog.Debug("Vendor lookup failed", "mac", mac, "error", err)
			}
			dev.Vendor = vendor
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

// resolveHostnames fills hostnames with bounded concurrency. Hosts that do
// not answer before the ceiling keep an empty name for this pass.
func (s *Service) resolveHostnames(ctx context.Context, devices []domain.Device) {
	if s.hostnames == nil || len(devices) == 0 {
		return
	}
	hctx, cancel := context.WithTimeout(ctx, s.cfg.HostnameCeiling)
	defer cancel()

	var (
		mu    sync.Mutex
		names = make(map[int]string)
		wg    sync.WaitGroup
	)
	sem := semaphore.NewWeighted(s.cfg.HostnameConcurrency)

	for i := range devices {
		ip := devices[i].IPAddress
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := sem.Acquire(hctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			name, err := s.hostnames.Resolve(hctx, ip)
			if err != nil || name == "" {
				return
			}
			mu.Lock()
			names[idx] = name
			mu.Unlock()
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-hctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	for idx, name := range names {
		devices[idx].Hostname = name
	}
}

// OfflineSweep marks devices unseen for domain.OfflineAfter as offline.
func (s *Service) OfflineSweep(ctx context.Context) (int64, error) {
	n, err := s.store.MarkOffline(ctx, s.now().Add(-domain.OfflineAfter))
	if err != nil {
		return 0, fmt.Errorf("mark offline: %w", err)
	}
	if n > 0 {
		slog.Info("Devices went offline", "count", n)
	}
	return n, nil
}

// Devices returns every stored device with its derived online flag and
// cached open ports.
func (s *Service) Devices(ctx context.Context) ([]domain.Device, error) {
	devices, err := s.store.GetAllDevices(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	online := 0

	s.mu.RLock()
	for i := range devices {
		devices[i].IsOnline = devices[i].OnlineAt(now)
		if devices[i].IsOnline {
			online++
		}
		if p, ok := s.openPorts[devices[i].MACAddress]; ok {
			devices[i].OpenPorts = p
		}
	}
	s.mu.RUnlock()

	telemetry.DevicesKnown.WithLabelValues("online").Set(float64(online))
	telemetry.DevicesKnown.WithLabelValues("offline").Set(float64(len(devices) - online))
	return devices, nil
}

// SetCustomName stores a user-chosen label for a device.
func (s *Service) SetCustomName(ctx context.Context, mac, name string) error {
	normalized, err := domain.NormalizeMAC(mac)
	if err != nil {
		return err
	}
	return s.store.SetCustomName(ctx, normalized, name)
}
