package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
	"github.com/MrOplus/NetGuard/internal/core/services/identity"
	"github.com/MrOplus/NetGuard/internal/telemetry"
)

const hostKey = "host"

// TrafficMonitor samples host-wide NIC counters.
type TrafficMonitor struct {
	counters ports.InterfaceCounters
	history  ports.TrafficHistoryStore
	mirror   ports.HistoryMirror
	rates    *identity.RateCounter[string]

	// retentionDays is read on every history write
	retentionDays func() int

	mu      sync.RWMutex
	current domain.TrafficStats
	now     func() time.Time
}

// NewTrafficMonitor wires the monitor. history and mirror may be nil.
func NewTrafficMonitor(counters ports.InterfaceCounters, history ports.TrafficHistoryStore, retentionDays func() int) *TrafficMonitor {
	if retentionDays == nil {
		retentionDays = func() int { return domain.DefaultRetentionDays }
	}
	return &TrafficMonitor{
		counters:      counters,
		history:       history,
		rates:         identity.NewRateCounter[string](),
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// SetMirror copies every history sample to an external store.
func (t *TrafficMonitor) SetMirror(m ports.HistoryMirror) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mirror = m
}

// Sample reads the counters and updates the current rate.
func (t *TrafficMonitor) Sample(ctx context.Context) (domain.TrafficStats, error) {
	totals, err := t.counters.HostCounters(ctx)
	if err != nil {
		telemetry.PollFailures.WithLabelValues("traffic").Inc()
		return t.Current(), fmt.Errorf("read interface counters: %w", err)
	}
	delta := t.rates.Rate(hostKey, totals)

	stats := domain.TrafficStats{
		Download:      delta.Received,
		Upload:        delta.Sent,
		TotalDownload: totals.Received,
		TotalUpload:   totals.Sent,
		Timestamp:     t.now(),
	}
	t.mu.Lock()
	t.current = stats
	t.mu.Unlock()
	return stats, nil
}

// Current returns the latest sample.
func (t *TrafficMonitor) Current() domain.TrafficStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// RecordHistory stores the current rate when it is non-zero and prunes
// rows older than the retention window.
func (t *TrafficMonitor) RecordHistory(ctx context.Context) error {
	if t.history == nil {
		return nil
	}
	cur := t.Current()
	now := t.now()

	if cur.Download > 0 || cur.Upload > 0 {
		point := domain.TrafficPoint{Timestamp: now, Download: cur.Download, Upload: cur.Upload}
		if err := t.history.SaveTrafficPoint(ctx, point); err != nil {
			return fmt.Errorf("save traffic point: %w", err)
		}
		t.mu.RLock()
		mirror := t.mirror
		t.mu.RUnlock()
		if mirror != nil {
			if err := mirror.MirrorTraffic(ctx, point); err != nil {
				slog.Warn("Failed to mirror traffic point", "error", err)
			}
		}
	}

	cutoff := now.AddDate(0, 0, -t.retentionDays())
	if n, err := t.history.PruneTrafficHistory(ctx, cutoff); err != nil {
		return fmt.Errorf("prune traffic history: %w", err)
	} else if n > 0 {
		slog.Debug("Pruned traffic history", "rows", n)
	}
	return nil
}
