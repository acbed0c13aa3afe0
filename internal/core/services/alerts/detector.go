package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// NewAppDetector raises one new_app alert per unknown application path per run.
type NewAppDetector struct {
	apps      ports.KnownAppStore
	publisher ports.AlertPublisher

	mu   sync.Mutex
	seen map[string]struct{}

	enabled func() bool
	now     func() time.Time
}

// NewNewAppDetector creates a detector.
func NewNewAppDetector(apps ports.KnownAppStore, publisher ports.AlertPublisher) *NewAppDetector {
	return &NewAppDetector{
		apps:      apps,
		publisher: publisher,
		seen:      make(map[string]struct{}),
		now:       time.Now,
	}
}

// WithGate makes Check a no-op while enabled returns false.
func (d *NewAppDetector) WithGate(enabled func() bool) *NewAppDetector {
	d.enabled = enabled
	return d
}

// Check inspects a connection snapshot.
func (d *NewAppDetector) Check(ctx context.Context, conns []domain.Connection) {
	if d.enabled != nil && !d.enabled() {
		return
	}
	for _, conn := range conns {
		if conn.ProcessPath == "" || !conn.IsExternalEstablished() {
			continue
		}
		if !d.markSeen(conn.ProcessPath) {
			continue
		}

		_, err := d.apps.GetKnownApp(ctx, conn.ProcessPath)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			// retry on the next tick
			d.unmark(conn.ProcessPath)
			slog.Warn("Known app lookup failed", "path", conn.ProcessPath, "error", err)
			continue
		}

		d.publisher.Publish(newAppAlert(conn, d.now()))

		app := domain.KnownApp{Path: conn.ProcessPath, Name: conn.ProcessName, Allowed: true, FirstSeen: d.now()}
		if err := d.apps.SaveKnownApp(ctx, app); err != nil {
			slog.Error("Failed to record known app", "path", conn.ProcessPath, "error", err)
		}
	}
}

// Forget clears the in-memory seen set, used after the known-apps table is wiped.
func (d *NewAppDetector) Forget() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]struct{})
}

// markSeen reports whether path was not seen before.
func (d *NewAppDetector) markSeen(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[path]; ok {
		return false
	}
	d.seen[path] = struct{}{}
	return true
}

func (d *NewAppDetector) unmark(path string) {
	d.mu.Lock()
	delete(d.seen, path)
	d.mu.Unlock()
}

func newAppAlert(conn domain.Connection, at time.Time) domain.Alert {
	return domain.Alert{
		Type:     domain.AlertNewApp,
		Severity: domain.SeverityMedium,
		Title:    "New Application Network Access",
		Message:  fmt.Sprintf("%s is trying to access the network", conn.ProcessName),
		Data: map[string]any{
			"processName":   conn.ProcessName,
			"processPath":   conn.ProcessPath,
			"remoteAddress": conn.RemoteAddress,
			"remotePort":    conn.RemotePort,
		},
		Timestamp: at,
	}
}

// NewDeviceAlert describes a device seen for the first time.
func NewDeviceAlert(dev domain.Device, at time.Time) domain.Alert {
	vendor := dev.Vendor
	if vendor == "" {
		vendor = "Unknown vendor"
	}
	return domain.Alert{
		Type:     domain.AlertNewDevice,
		Severity: domain.SeverityLow,
		Title:    "New Device Detected",
		Message:  fmt.Sprintf("%s (%s) joined the network at %s", vendor, dev.MACAddress, dev.IPAddress),
		Data: map[string]any{
			"macAddress": dev.MACAddress,
			"ipAddress":  dev.IPAddress,
			"hostname":   dev.Hostname,
			"vendor":     dev.Vendor,
		},
		Timestamp: at,
	}
}
