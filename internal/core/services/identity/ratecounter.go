package identity

import (
	"sync"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

// RateCounter converts cumulative counters into deltas since the previous
// observation of the same key.
type RateCounter[K comparable] struct {
	mu   sync.Mutex
	last map[K]domain.IOCounters
}

// NewRateCounter returns an empty counter.
func NewRateCounter[K comparable]() *RateCounter[K] {
	return &RateCounter[K]{last: make(map[K]domain.IOCounters)}
}

// Rate stores counters for key and returns the per-field increase. The first
// observation of a key yields zero, as does any field that went backwards.
func (r *RateCounter[K]) Rate(key K, counters domain.IOCounters) domain.IOCounters {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.last[key]
	r.last[key] = counters
	if !ok {
		return domain.IOCounters{}
	}

	var delta domain.IOCounters
	if counters.Received >= prev.Received {
		delta.Received = counters.Received - prev.Received
	}
	if counters.Sent >= prev.Sent {
		delta.Sent = counters.Sent - prev.Sent
	}
	return delta
}

// Retain drops every key for which keep returns false.
func (r *RateCounter[K]) Retain(keep func(K) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.last {
		if !keep(k) {
			delete(r.last, k)
		}
	}
}

// Len returns the number of tracked keys.
func (r *RateCounter[K]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.last)
}
