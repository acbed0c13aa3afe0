package ports

import (
	"context"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

// QueryService is the read side of the agent consumed by the HTTP API.
type QueryService interface {
	// Connections filters loopback-only rows when hideLocal is true; a nil
	// hideLocal falls back to the stored setting.
	Connections(ctx context.Context, hideLocal *bool) ([]domain.Connection, error)
	Traffic(ctx context.Context) domain.TrafficStats
	TrafficHistory(ctx context.Context, window string) ([]domain.TrafficPoint, error)

	Devices(ctx context.Context) ([]domain.Device, error)
	ScanDevices(ctx context.Context) ([]domain.Device, error)
	SetDeviceName(ctx context.Context, mac, name string) error
	DevicePorts(ctx context.Context, mac string) ([]domain.OpenPort, error)
	ScanDevicePorts(ctx context.Context, ip, mac string) ([]domain.OpenPort, error)

	AppUsage(ctx context.Context, r domain.UsageRange) ([]domain.AppUsage, error)
	UsageReport(ctx context.Context, r domain.UsageRange) ([]byte, error)
	History(ctx context.Context, start, end time.Time) (domain.History, error)

	Alerts(ctx context.Context) ([]domain.Alert, error)
	RecentAlerts() []domain.Alert
	MarkAlertRead(ctx context.Context, id int64) error
	ClearAlerts(ctx context.Context) error

	Settings(ctx context.Context) (domain.Settings, error)
	UpdateSettings(ctx context.Context, patch map[string]any) (domain.Settings, error)
	ClearKnownApps(ctx context.Context) error

	VendorStats(ctx context.Context) (domain.VendorDBStats, error)
	RefreshVendors(ctx context.Context) (int, error)
	DBStats(ctx context.Context) (domain.DBStats, error)
}

// ControlService forwards user decisions to the privileged collaborators.
type ControlService interface {
	Rules(ctx context.Context) ([]domain.FirewallRule, error)
	BlockApp(ctx context.Context, path string) error
	AllowApp(ctx context.Context, path string) error
	RemoveRule(ctx context.Context, name string) error
	BlockRemote(ctx context.Context, addr string, port uint32) error
	KillConnection(ctx context.Context, id string) error
	Pending(ctx context.Context) ([]domain.PendingConnection, error)
	Respond(ctx context.Context, verdict domain.Verdict) error
}

// VendorAdmin manages the OUI registry.
type VendorAdmin interface {
	Stats(ctx context.Context) (domain.VendorDBStats, error)
	Refresh(ctx context.Context) (int, error)
}

// UsageReporter renders an app usage report document.
type UsageReporter interface {
	ExportAppUsage(report *domain.UsageReport) ([]byte, error)
}
