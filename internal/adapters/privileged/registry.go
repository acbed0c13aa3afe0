package privileged

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// DefaultPendingTTL is how long a held connection waits for a verdict.
const DefaultPendingTTL = 60 * time.Second

// PendingRegistry is an in-memory interception collaborator. The packet
// filter that feeds it calls Hold; ids are minted here, independent of any
// connection counter.
type PendingRegistry struct {
	mu      sync.Mutex
	pending map[string]domain.PendingConnection
	ttl     time.Duration
	now     func() time.Time
	onDone  func(p domain.PendingConnection, v domain.Verdict)
}

// NewPendingRegistry returns an empty registry. A non-positive ttl uses DefaultPendingTTL.
func NewPendingRegistry(ttl time.Duration) *PendingRegistry {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &PendingRegistry{
		pending: make(map[string]domain.PendingConnection),
		ttl:     ttl,
		now:     time.Now,
	}
}

// OnVerdict sets the callback run for every answered or expired connection.
func (r *PendingRegistry) OnVerdict(fn func(p domain.PendingConnection, v domain.Verdict)) {
	r.mu.Lock()
	r.onDone = fn
	r.mu.Unlock()
}

// Hold queues a connection attempt and returns its id.
func (r *PendingRegistry) Hold(p domain.PendingConnection) string {
	p.ID = uuid.NewString()
	if p.Timestamp.IsZero() {
		p.Timestamp = r.now()
	}
	r.mu.Lock()
	r.pending[p.ID] = p
	r.mu.Unlock()
	return p.ID
}

// ListPending returns held connections, oldest first.
func (r *PendingRegistry) ListPending(ctx context.Context) ([]domain.PendingConnection, error) {
	r.mu.Lock()
	out := make([]domain.PendingConnection, 0, len(r.pending))
	for _, p := range r.pending {
		out = append(out, p)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Respond releases a held connection with the user's verdict.
func (r *PendingRegistry) Respond(ctx context.Context, v domain.Verdict) error {
	r.mu.Lock()
	p, ok := r.pending[v.ID]
	delete(r.pending, v.ID)
	done := r.onDone
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: pending connection %s", domain.ErrNotFound, v.ID)
	}
	if done != nil {
		done(p, v)
	}
	return nil
}

// Expire denies every connection held longer than the ttl.
func (r *PendingRegistry) Expire() int {
	cutoff := r.now().Add(-r.ttl)
	var expired []domain.PendingConnection
	r.mu.Lock()
	for id, p := range r.pending {
		if p.Timestamp.Before(cutoff) {
			expired = append(expired, p)
			delete(r.pending, id)
		}
	}
	done := r.onDone
	r.mu.Unlock()
	if done != nil {
		for _, p := range expired {
			done(p, domain.Verdict{ID: p.ID})
		}
	}
	return len(expired)
}

var _ ports.InterceptionController = (*PendingRegistry)(nil)
