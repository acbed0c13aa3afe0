// Package resolver runs background lookups (hostname, geolocation) behind
// a TTL cache, a pending set and a single-consumer bounded queue.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/telemetry"
)

// Throttled is implemented by lookup errors that ask the caller to back off.
type Throttled interface {
	error
	RetryAfter() time.Duration
}

// ErrBlocked is returned by Resolve while the upstream cool-down is active.
var ErrBlocked = errors.New("resolver is cooling down")

// Config controls queueing and caching of a Worker.
type Config struct {
	Name        string
	QueueSize   int
	Spacing     time.Duration
	TTL         time.Duration
	NegativeTTL time.Duration
}

// LookupFunc performs one resolution.
type LookupFunc[V any] func(ctx context.Context, ip string) (V, error)

type entry[V any] struct {
	value   V
	expires time.Time
}

// Worker resolves addresses in the background, one at a time.
type Worker[V any] struct {
	cfg     Config
	lookup  LookupFunc[V]
	isEmpty func(V) bool
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]entry[V]

	pendingMu sync.Mutex
	pending   map[string]struct{}

	blockedMu    sync.RWMutex
	blockedUntil time.Time

	queue chan string
}

// NewWorker builds a worker. isEmpty decides which results get the negative TTL.
func NewWorker[V any](cfg Config, lookup LookupFunc[V], isEmpty func(V) bool) *Worker[V] {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	return &Worker[V]{
		cfg:     cfg,
		lookup:  lookup,
		isEmpty: isEmpty,
		now:     time.Now,
		cache:   make(map[string]entry[V]),
		pending: make(map[string]struct{}),
		queue:   make(chan string, cfg.QueueSize),
	}
}

// WithClock replaces the time source. Intended for tests.
func (w *Worker[V]) WithClock(now func() time.Time) *Worker[V] {
	w.now = now
	return w
}

// Name returns the worker label used in logs and metrics.
func (w *Worker[V]) Name() string {
	return w.cfg.Name
}

// Get returns a fresh cached value. found is true for confirmed-empty
// entries too, with a zero value.
func (w *Worker[V]) Get(ip string) (value V, found bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.cache[ip]
	if !ok || !w.now().Before(e.expires) {
		return value, false
	}
	return e.value, true
}

// Queue offers ip for background resolution without blocking. It returns
// true only if the address was enqueued.
func (w *Worker[V]) Queue(ip string) bool {
	if !domain.IsResolvable(ip) {
		return false
	}
	if _, ok := w.Get(ip); ok {
		return false
	}

	w.pendingMu.Lock()
	if _, ok := w.pending[ip]; ok {
		w.pendingMu.Unlock()
		return false
	}
	w.pending[ip] = struct{}{}
	w.pendingMu.Unlock()

	select {
	case w.queue <- ip:
		return true
	default:
		w.unpend(ip)
		telemetry.ResolverDrops.WithLabelValues(w.cfg.Name, "queue_full").Inc()
		return false
	}
}

// Pending returns the number of addresses queued or in flight.
func (w *Worker[V]) Pending() int {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return len(w.pending)
}

func (w *Worker[V]) unpend(ip string) {
	w.pendingMu.Lock()
	delete(w.pending, ip)
	w.pendingMu.Unlock()
}

// BlockedUntil returns the end of the current cool-down, if any.
func (w *Worker[V]) BlockedUntil() time.Time {
	w.blockedMu.RLock()
	defer w.blockedMu.RUnlock()
	return w.blockedUntil
}

func (w *Worker[V]) blocked() bool {
	return w.now().Before(w.BlockedUntil())
}

func (w *Worker[V]) blockFor(d time.Duration) {
	until := w.now().Add(d)
	w.blockedMu.Lock()
	if until.After(w.blockedUntil) {
		w.blockedUntil = until
	}
	w.blockedMu.Unlock()
	slog.Warn("resolver throttled by upstream", "worker", w.cfg.Name, "until", until)
}

// Run consumes the queue until ctx is cancelled.
func (w *Worker[V]) Run(ctx context.Context) {
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ip := <-w.queue:
			if w.blocked() {
				// not cached, so a later tick can offer it again
				w.unpend(ip)
				telemetry.ResolverDrops.WithLabelValues(w.cfg.Name, "cooldown").Inc()
				continue
			}
			if wait := w.cfg.Spacing - w.now().Sub(last); !last.IsZero() && wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					w.unpend(ip)
					return
				case <-timer.C:
				}
			}
			last = w.now()
			w.resolveAndStore(ctx, ip)
			w.unpend(ip)
		}
	}
}

// Resolve returns a cached value or performs a synchronous lookup and caches
// the outcome. It does not go through the queue or the spacing limiter.
func (w *Worker[V]) Resolve(ctx context.Context, ip string) (V, error) {
	if v, ok := w.Get(ip); ok {
		return v, nil
	}
	if w.blocked() {
		var zero V
		return zero, ErrBlocked
	}
	return w.resolveAndStore(ctx, ip)
}

func (w *Worker[V]) resolveAndStore(ctx context.Context, ip string) (V, error) {
	value, err := w.lookup(ctx, ip)

	var throttled Throttled
	if errors.As(err, &throttled) {
		w.blockFor(throttled.RetryAfter())
		if w.isEmpty(value) {
			telemetry.ResolverLookups.WithLabelValues(w.cfg.Name, "throttled").Inc()
			return value, err
		}
		err = nil
	}

	now := w.now()
	e := entry[V]{value: value, expires: now.Add(w.cfg.TTL)}
	outcome := "success"
	if err != nil || w.isEmpty(value) {
		var zero V
		e = entry[V]{value: zero, expires: now.Add(w.cfg.NegativeTTL)}
		outcome = "empty"
		if err != nil {
			outcome = "error"
			slog.Debug("lookup failed", "worker", w.cfg.Name, "ip", ip, "error", err)
		}
	}
	telemetry.ResolverLookups.WithLabelValues(w.cfg.Name, outcome).Inc()

	w.mu.Lock()
	w.cache[ip] = e
	w.mu.Unlock()
	return e.value, err
}

// Purge evicts expired entries.
func (w *Worker[V]) Purge() int {
	now := w.now()
	w.mu.Lock()
	defer w.mu.Unlock()
	removed := 0
	for ip, e := range w.cache {
		if !now.Before(e.expires) {
			delete(w.cache, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries, expired or not.
func (w *Worker[V]) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.cache)
}
