package fingerprint

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

// Registry ties the OUI database to its download source.
type Registry struct {
	db     *OUIDatabase
	source *ManufSource
	maxAge time.Duration

	// serializes downloads
	refreshMu sync.Mutex
}

// NewRegistry returns a registry refreshed from source when older than RefreshInterval.
func NewRegistry(db *OUIDatabase, source *ManufSource) *Registry {
	return &Registry{db: db, source: source, maxAge: RefreshInterval}
}

// Stats reports registry contents and whether a refresh is due.
func (r *Registry) Stats(ctx context.Context) (domain.VendorDBStats, error) {
	s, err := r.db.GetStats(ctx)
	if err != nil {
		return domain.VendorDBStats{}, err
	}
	return domain.VendorDBStats{
		TotalEntries: s.TotalEntries,
		CacheHits:    s.Cache.Hits + s.Cache.NegativeHits,
		CacheMisses:  s.Cache.Misses,
		LastUpdated:  s.LastUpdated,
		Path:         s.Path,
		Stale:        s.TotalEntries == 0 || time.Since(s.LastUpdated) > r.maxAge,
	}, nil
}

// Refresh downloads the registry unconditionally.
func (r *Registry) Refresh(ctx context.Context) (int, error) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	n, err := Refresh(ctx, r.db, r.source)
	if err != nil {
		return 0, err
	}
	slog.Info("OUI registry refreshed", "entries", n)
	return n, nil
}

// RefreshIfStale downloads only when the registry is empty or too old.
func (r *Registry) RefreshIfStale(ctx context.Context) {
	if !r.db.NeedsRefresh(ctx, r.maxAge) {
		return
	}
	if _, err := r.Refresh(ctx); err != nil {
		slog.Warn("OUI registry refresh failed, using cached and built-in vendors", "error", err)
	}
}
