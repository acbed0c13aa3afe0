package ports

import (
	"context"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

// SettingsStore keeps the flat settings record.
type SettingsStore interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	// SaveSettings upserts the given keys and leaves the others untouched.
	SaveSettings(ctx context.Context, kv map[string]string) error
}

// AlertStore keeps the capped alert history.
type AlertStore interface {
	// SaveAlert stores the alert, trims to the newest max rows and returns the assigned id.
	SaveAlert(ctx context.Context, alert domain.Alert, max int) (int64, error)
	GetAlerts(ctx context.Context, limit int) ([]domain.Alert, error)
	MarkAlertRead(ctx context.Context, id int64) error
	ClearAlerts(ctx context.Context) error
}

// DeviceStore persists discovered devices keyed by MAC.
type DeviceStore interface {
	// UpsertDevice keeps the stored hostname and vendor when the new ones are empty.
	UpsertDevice(ctx context.Context, device domain.Device) error
	GetDevice(ctx context.Context, mac string) (*domain.Device, error)
	GetAllDevices(ctx context.Context) ([]domain.Device, error)
	MarkOffline(ctx context.Context, before time.Time) (int64, error)
	SetCustomName(ctx context.Context, mac, name string) error
}

// TrafficHistoryStore persists host-wide traffic samples.
type TrafficHistoryStore interface {
	SaveTrafficPoint(ctx context.Context, point domain.TrafficPoint) error
	GetTrafficHistory(ctx context.Context, since time.Time) ([]domain.TrafficPoint, error)
	GetTrafficRange(ctx context.Context, start, end time.Time) ([]domain.TrafficPoint, error)
	PruneTrafficHistory(ctx context.Context, before time.Time) (int64, error)
}

// AppUsageStore aggregates per-day, per-application usage.
type AppUsageStore interface {
	AddAppUsage(ctx context.Context, date string, conn domain.Connection) error
	GetAppUsage(ctx context.Context, since string) ([]domain.AppUsage, error)
}

// KnownAppStore records application paths that have reached the network.
type KnownAppStore interface {
	GetKnownApp(ctx context.Context, path string) (*domain.KnownApp, error)
	SaveKnownApp(ctx context.Context, app domain.KnownApp) error
	ClearKnownApps(ctx context.Context) error
}

// ConnectionLogStore persists logged connections.
type ConnectionLogStore interface {
	SaveConnectionLogs(ctx context.Context, entries []domain.ConnectionLogEntry) error
	GetConnectionLogs(ctx context.Context, start, end time.Time, limit int) ([]domain.ConnectionLogEntry, error)
	PruneConnectionLogs(ctx context.Context, before time.Time) (int64, error)
}

// Storage is the full persistence surface of the agent.
type Storage interface {
	SettingsStore
	AlertStore
	DeviceStore
	TrafficHistoryStore
	AppUsageStore
	KnownAppStore
	ConnectionLogStore

	Stats(ctx context.Context) (domain.DBStats, error)
	Close() error
}
