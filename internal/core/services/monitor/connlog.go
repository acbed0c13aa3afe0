package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// SeenResetInterval is how often the logged-connection set is cleared so
// long-lived connections are logged again.
const SeenResetInterval = 5 * time.Minute

// LogSink accepts connection log entries without blocking.
type LogSink interface {
	Persist(entry domain.ConnectionLogEntry) bool
}

// ConnectionLogger records each external connection once per reset window.
type ConnectionLogger struct {
	sink  LogSink
	usage ports.AppUsageStore
	logs  ports.ConnectionLogStore

	retentionDays func() int

	mu   sync.Mutex
	seen map[string]struct{}

	now func() time.Time
}

// NewConnectionLogger wires the logger. logs is only used for pruning.
func NewConnectionLogger(sink LogSink, usage ports.AppUsageStore, logs ports.ConnectionLogStore, retentionDays func() int) *ConnectionLogger {
	if retentionDays == nil {
		retentionDays = func() int { return domain.DefaultRetentionDays }
	}
	return &ConnectionLogger{
		sink:          sink,
		usage:         usage,
		logs:          logs,
		retentionDays: retentionDays,
		seen:          make(map[string]struct{}),
		now:           time.Now,
	}
}

// Log queues every established external connection not logged yet and
// adds its bytes to today's app usage. It returns how many were queued.
func (l *ConnectionLogger) Log(ctx context.Context, conns []domain.Connection) int {
	now := l.now()
	date := domain.UsageDate(now)
	queued := 0

	for _, conn := range conns {
		if !conn.IsExternalEstablished() {
			continue
		}
		key := domain.ConnectionLogKey(conn)

		l.mu.Lock()
		_, seen := l.seen[key]
		if !seen {
			l.seen[key] = struct{}{}
		}
		l.mu.Unlock()
		if seen {
			continue
		}

		if l.sink.Persist(domain.NewConnectionLogEntry(conn, now)) {
			queued++
		}
		if l.usage != nil && (conn.BytesSent > 0 || conn.BytesReceived > 0) {
			if err := l.usage.AddAppUsage(ctx, date, conn); err != nil {
				slog.Warn("Failed to update app usage", "process", conn.ProcessName, "error", err)
			}
		}
	}
	return queued
}

// ResetSeen clears the logged-connection set.
func (l *ConnectionLogger) ResetSeen() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = make(map[string]struct{})
}

// Prune removes log rows older than the retention window.
func (l *ConnectionLogger) Prune(ctx context.Context) (int64, error) {
	if l.logs == nil {
		return 0, nil
	}
	return l.logs.PruneConnectionLogs(ctx, l.now().AddDate(0, 0, -l.retentionDays()))
}
