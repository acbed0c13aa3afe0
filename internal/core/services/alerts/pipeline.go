// Package alerts moves alerts from producers to storage and subscribers.
package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
	"github.com/MrOplus/NetGuard/internal/core/services/schedule"
	"github.com/MrOplus/NetGuard/internal/telemetry"
)

// QueueSize is the capacity of the alert channel.
const QueueSize = 100

// Pipeline is the single alert channel with one consumer.
type Pipeline struct {
	store ports.AlertStore
	queue chan domain.Alert

	mu          sync.RWMutex
	recent      []domain.Alert
	subscribers []ports.AlertSubscriber

	now func() time.Time
}

// NewPipeline creates a pipeline persisting into store.
func NewPipeline(store ports.AlertStore, size int) *Pipeline {
	if size <= 0 {
		size = QueueSize
	}
	return &Pipeline{
		store: store,
		queue: make(chan domain.Alert, size),
		now:   time.Now,
	}
}

// Subscribe registers a receiver for every alert after it is stored.
func (p *Pipeline) Subscribe(sub ports.AlertSubscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, sub)
}

// Publish never blocks. A full channel drops the alert.
func (p *Pipeline) Publish(alert domain.Alert) bool {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = p.now()
	}
	select {
	case p.queue <- alert:
		telemetry.AlertsPublished.WithLabelValues(string(alert.Type)).Inc()
		return true
	default:
		telemetry.AlertsDropped.WithLabelValues(string(alert.Type)).Inc()
		slog.Warn("Alert channel full, dropping alert", "type", alert.Type, "title", alert.Title)
		return false
	}
}

// Run consumes the channel until ctx is done.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-p.queue:
			schedule.Guard("alerts", func() { p.handle(ctx, alert) })
		}
	}
}

func (p *Pipeline) handle(ctx context.Context, alert domain.Alert) {
	id, err := p.store.SaveAlert(ctx, alert, domain.MaxStoredAlerts)
	if err != nil {
		slog.Error("Failed to persist alert", "type", alert.Type, "error", err)
	} else {
		alert.ID = id
	}

	p.mu.Lock()
	p.recent = append(p.recent, alert)
	if len(p.recent) > domain.MaxRecentAlerts {
		p.recent = p.recent[len(p.recent)-domain.MaxRecentAlerts:]
	}
	subs := make([]ports.AlertSubscriber, len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.Unlock()

	slog.Info("Alert", "type", alert.Type, "msg", alert.Message)
	for _, sub := range subs {
		sub.NotifyAlert(alert)
	}
}

// Recent returns the in-memory ring, newest first.
func (p *Pipeline) Recent() []domain.Alert {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Alert, len(p.recent))
	for i, a := range p.recent {
		out[len(p.recent)-1-i] = a
	}
	return out
}
