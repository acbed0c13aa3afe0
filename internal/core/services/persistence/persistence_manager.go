package persistence

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
	"github.com/MrOplus/NetGuard/internal/telemetry"
)

// flushTimeout bounds one batch write; the loop context may already be gone.
const flushTimeout = 10 * time.Second

// PersistenceManager batches connection log entries off the polling path and
// writes them to storage, then to the optional mirror.
type PersistenceManager struct {
	storage   ports.ConnectionLogStore
	queue     chan domain.ConnectionLogEntry
	batchSize int
	interval  time.Duration

	mu     sync.RWMutex
	mirror ports.HistoryMirror

	stopped atomic.Bool
	dropped atomic.Int64
	done    chan struct{}
}

func NewPersistenceManager(storage ports.ConnectionLogStore, bufferSize int) *PersistenceManager {
	return &PersistenceManager{
		storage:   storage,
		queue:     make(chan domain.ConnectionLogEntry, bufferSize),
		batchSize: 100,
		interval:  5 * time.Second,
		done:      make(chan struct{}),
	}
}

// SetMirror sends every stored batch to an external store as well.
func (p *PersistenceManager) SetMirror(mirror ports.HistoryMirror) {
	p.mu.Lock()
	p.mirror = mirror
	p.mu.Unlock()
}

// Persist queues an entry without blocking. It reports false when the queue
// is full or the loop has already shut down.
func (p *PersistenceManager) Persist(e domain.ConnectionLogEntry) bool {
	if p.stopped.Load() {
		return false
	}
	select {
	case p.queue <- e:
		return true
	default:
		p.dropped.Add(1)
		telemetry.ConnectionLogDropped.Inc()
		slog.Warn("Connection log queue full, dropping entry", "process", e.ProcessName, "remote", e.RemoteAddress)
		return false
	}
}

// Dropped counts entries refused because the queue was full.
func (p *PersistenceManager) Dropped() int64 {
	return p.dropped.Load()
}

// Start runs the batching loop until ctx ends, then flushes what is queued.
func (p *PersistenceManager) Start(ctx context.Context) {
	go p.run(ctx)
}

// Done is closed once the final flush has returned.
func (p *PersistenceManager) Done() <-chan struct{} {
	return p.done
}

func (p *PersistenceManager) run(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	batch := make([]domain.ConnectionLogEntry, 0, p.batchSize)
	flush := func() {
		if len(batch) > 0 {
			p.flushBuffer(batch)
			batch = make([]domain.ConnectionLogEntry, 0, p.batchSize)
		}
	}

	for {
		select {
		case e := <-p.queue:
			batch = append(batch, e)
			if len(batch) >= p.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			p.stopped.Store(true)
			for len(p.queue) > 0 {
				batch = append(batch, <-p.queue)
			}
			flush()
			return
		}
	}
}

func (p *PersistenceManager) flushBuffer(batch []domain.ConnectionLogEntry) {
	if len(batch) == 0 || p.storage == nil {
		return
	}
	p.mu.RLock()
	mirror := p.mirror
	p.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := p.storage.SaveConnectionLogs(ctx, batch); err != nil {
		slog.Error("Failed to batch save connection log", "count", len(batch), "error", err)
		return
	}
	if mirror == nil {
		return
	}
	if err := mirror.MirrorConnections(ctx, batch); err != nil {
		slog.Warn("Failed to mirror connection log", "count", len(batch), "error", err)
	}
}
