// Package schedule runs the agent's periodic tasks.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MrOplus/NetGuard/internal/telemetry"
)

// Task is one tick of a periodic job.
type Task func(ctx context.Context)

// Guard runs fn once and turns a panic into a log line.
// It reports whether fn returned normally.
func Guard(name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered from panic in task", "task", name, "panic", r)
			telemetry.TaskPanics.WithLabelValues(name).Inc()
			ok = false
		}
	}()
	fn()
	return true
}

// Every runs task on a ticker until ctx is done. With immediate set the
// first tick runs before waiting one interval.
func Every(ctx context.Context, name string, interval time.Duration, immediate bool, task Task) {
	if immediate {
		tick(ctx, name, task)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx, name, task)
		}
	}
}

func tick(ctx context.Context, name string, task Task) {
	ctx, span := telemetry.Tracer().Start(ctx, "tick "+name)
	defer span.End()
	Guard(name, func() { task(ctx) })
}

// Group starts loops and waits for all of them to stop.
type Group struct {
	wg sync.WaitGroup
}

// Go runs Every in its own goroutine.
func (g *Group) Go(ctx context.Context, name string, interval time.Duration, immediate bool, task Task) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		Every(ctx, name, interval, immediate, task)
	}()
}

// Run starts a long-running function such as a worker consumer.
func (g *Group) Run(name string, fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		Guard(name, fn)
	}()
}

// Wait blocks until every started loop has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}
