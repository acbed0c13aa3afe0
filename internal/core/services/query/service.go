// Package query answers the read operations of the HTTP API from the live
// state holders and the store.
package query

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// HistoryLimit caps connection log rows returned by a history query.
const HistoryLimit = 500

// ConnectionView is the latest connection snapshot.
type ConnectionView interface {
	Connections(hideLocal bool) []domain.Connection
}

// TrafficView is the latest host traffic sample.
type TrafficView interface {
	Current() domain.TrafficStats
}

// DeviceDirectory is the discovery surface used by the API.
type DeviceDirectory interface {
	Devices(ctx context.Context) ([]domain.Device, error)
	Scan(ctx context.Context) ([]domain.Device, error)
	SetCustomName(ctx context.Context, mac, name string) error
	OpenPorts(mac string) []domain.OpenPort
	ScanPorts(ctx context.Context, ip, mac string) ([]domain.OpenPort, error)
}

// SettingsProvider loads and patches the settings record.
type SettingsProvider interface {
	Load(ctx context.Context) (domain.Settings, error)
	Current() domain.Settings
	Update(ctx context.Context, patch map[string]any) (domain.Settings, error)
}

// RecentAlerts is the in-memory alert ring.
type RecentAlerts interface {
	Recent() []domain.Alert
}

// Forgetter drops in-memory knowledge of applications.
type Forgetter interface {
	Forget()
}

// StatsReader reports storage row counts.
type StatsReader interface {
	Stats(ctx context.Context) (domain.DBStats, error)
}

// Deps collects the collaborators of the query service. Vendors and
// Reporter are optional.
type Deps struct {
	Connections ConnectionView
	Traffic     TrafficView
	TrafficLog  ports.TrafficHistoryStore
	Devices     DeviceDirectory
	Usage       ports.AppUsageStore
	Logs        ports.ConnectionLogStore
	Alerts      ports.AlertStore
	Recent      RecentAlerts
	Settings    SettingsProvider
	KnownApps   ports.KnownAppStore
	Detector    Forgetter
	Vendors     ports.VendorAdmin
	Reporter    ports.UsageReporter
	DB          StatsReader
}

// Service implements ports.QueryService.
type Service struct {
	d   Deps
	now func() time.Time
}

// NewService returns a query service over deps.
func NewService(d Deps) *Service {
	return &Service{d: d, now: time.Now}
}

func (s *Service) Connections(ctx context.Context, hideLocal *bool) ([]domain.Connection, error) {
	hide := s.d.Settings.Current().HideLocalTraffic
	if hideLocal != nil {
		hide = *hideLocal
	}
	conns := s.d.Connections.Connections(hide)
	if conns == nil {
		conns = []domain.Connection{}
	}
	return conns, nil
}

func (s *Service) Traffic(ctx context.Context) domain.TrafficStats {
	return s.d.Traffic.Current()
}

func (s *Service) TrafficHistory(ctx context.Context, window string) ([]domain.TrafficPoint, error) {
	since := s.now().Add(-domain.TrafficWindow(window))
	points, err := s.d.TrafficLog.GetTrafficHistory(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("traffic history: %w", err)
	}
	return points, nil
}

func (s *Service) Devices(ctx context.Context) ([]domain.Device, error) {
	return s.d.Devices.Devices(ctx)
}

// ScanDevices runs a discovery pass now and returns the refreshed list.
func (s *Service) ScanDevices(ctx context.Context) ([]domain.Device, error) {
	if _, err := s.d.Devices.Scan(ctx); err != nil {
		return nil, err
	}
	return s.d.Devices.Devices(ctx)
}

func (s *Service) SetDeviceName(ctx context.Context, mac, name string) error {
	return s.d.Devices.SetCustomName(ctx, mac, name)
}

func (s *Service) DevicePorts(ctx context.Context, mac string) ([]domain.OpenPort, error) {
	mac, err := domain.NormalizeMAC(mac)
	if err != nil {
		return nil, err
	}
	open := s.d.Devices.OpenPorts(mac)
	if open == nil {
		open = []domain.OpenPort{}
	}
	return open, nil
}

func (s *Service) ScanDevicePorts(ctx context.Context, ip, mac string) ([]domain.OpenPort, error) {
	return s.d.Devices.ScanPorts(ctx, ip, mac)
}

// AppUsage returns per-application totals over the range, largest first.
func (s *Service) AppUsage(ctx context.Context, r domain.UsageRange) ([]domain.AppUsage, error) {
	apps, err := s.d.Usage.GetAppUsage(ctx, domain.UsageDate(r.Since(s.now())))
	if err != nil {
		return nil, fmt.Errorf("app usage: %w", err)
	}
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].TotalBytes() > apps[j].TotalBytes()
	})
	return apps, nil
}

// UsageReport renders the app usage of the range as a PDF document.
func (s *Service) UsageReport(ctx context.Context, r domain.UsageRange) ([]byte, error) {
	if s.d.Reporter == nil {
		return nil, fmt.Errorf("%w: report exporter", domain.ErrNotConfigured)
	}
	apps, err := s.AppUsage(ctx, r)
	if err != nil {
		return nil, err
	}
	now := s.now()
	report := domain.NewUsageReport(uuid.NewString(), r, r.Since(now), now, apps)
	report.Hostname, _ = os.Hostname()
	return s.d.Reporter.ExportAppUsage(report)
}

// History returns logged connections and traffic samples inside [start, end].
func (s *Service) History(ctx context.Context, start, end time.Time) (domain.History, error) {
	if end.Before(start) {
		return domain.History{}, fmt.Errorf("%w: end %s before start %s", domain.ErrInvalidRange,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	conns, err := s.d.Logs.GetConnectionLogs(ctx, start, end, HistoryLimit)
	if err != nil {
		return domain.History{}, fmt.Errorf("connection history: %w", err)
	}
	traffic, err := s.d.TrafficLog.GetTrafficRange(ctx, start, end)
	if err != nil {
		return domain.History{}, fmt.Errorf("traffic history: %w", err)
	}
	if conns == nil {
		conns = []domain.ConnectionLogEntry{}
	}
	if traffic == nil {
		traffic = []domain.TrafficPoint{}
	}
	return domain.History{Connections: conns, Traffic: traffic}, nil
}

func (s *Service) Alerts(ctx context.Context) ([]domain.Alert, error) {
	return s.d.Alerts.GetAlerts(ctx, domain.MaxStoredAlerts)
}

func (s *Service) RecentAlerts() []domain.Alert {
	return s.d.Recent.Recent()
}

func (s *Service) MarkAlertRead(ctx context.Context, id int64) error {
	return s.d.Alerts.MarkAlertRead(ctx, id)
}

func (s *Service) ClearAlerts(ctx context.Context) error {
	return s.d.Alerts.ClearAlerts(ctx)
}

func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	return s.d.Settings.Load(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, patch map[string]any) (domain.Settings, error) {
	return s.d.Settings.Update(ctx, patch)
}

// ClearKnownApps forgets every application so each alerts again on its next connection.
func (s *Service) ClearKnownApps(ctx context.Context) error {
	if err := s.d.KnownApps.ClearKnownApps(ctx); err != nil {
		return err
	}
	if s.d.Detector != nil {
		s.d.Detector.Forget()
	}
	return nil
}

func (s *Service) VendorStats(ctx context.Context) (domain.VendorDBStats, error) {
	if s.d.Vendors == nil {
		return domain.VendorDBStats{}, fmt.Errorf("%w: OUI registry", domain.ErrNotConfigured)
	}
	return s.d.Vendors.Stats(ctx)
}

func (s *Service) RefreshVendors(ctx context.Context) (int, error) {
	if s.d.Vendors == nil {
		return 0, fmt.Errorf("%w: OUI registry", domain.ErrNotConfigured)
	}
	return s.d.Vendors.Refresh(ctx)
}

func (s *Service) DBStats(ctx context.Context) (domain.DBStats, error) {
	return s.d.DB.Stats(ctx)
}

var _ ports.QueryService = (*Service)(nil)
