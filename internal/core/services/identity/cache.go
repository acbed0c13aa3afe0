// Package identity maps pids to process names and paths, and turns
// cumulative byte counters into per-tick deltas.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// DefaultInactivity is how long an identity survives without being referenced.
const DefaultInactivity = 10 * time.Minute

// Cache holds whole ProcessIdentity records keyed by pid. Entries are never
// re-verified against the OS; a pid that exits keeps being served until it
// goes unreferenced for the inactivity window.
type Cache struct {
	mu         sync.RWMutex
	entries    map[int32]domain.ProcessIdentity
	readers    []ports.PathReader
	inactivity time.Duration
	now        func() time.Time
}

// NewCache builds a cache that tries readers in order, least privileged first.
func NewCache(readers ...ports.PathReader) *Cache {
	return &Cache{
		entries:    make(map[int32]domain.ProcessIdentity),
		readers:    readers,
		inactivity: DefaultInactivity,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Resolve returns the identity of pid. A miss reads the OS outside the lock;
// if no reader succeeds a placeholder is returned and nothing is cached.
func (c *Cache) Resolve(ctx context.Context, pid int32) domain.ProcessIdentity {
	if pid == 0 {
		return domain.ProcessIdentity{PID: 0, Name: domain.SystemProcessName}
	}

	now := c.now()
	c.mu.Lock()
	if id, ok := c.entries[pid]; ok {
		id.LastReferred = now
		c.entries[pid] = id
		c.mu.Unlock()
		return id
	}
	c.mu.Unlock()

	path := c.readPath(ctx, pid)
	if path == "" {
		return domain.ProcessIdentity{PID: pid, Name: fmt.Sprintf("PID:%d", pid), LastReferred: now}
	}

	id := domain.ProcessIdentity{PID: pid, Name: baseName(path), Path: path, LastReferred: now}
	c.mu.Lock()
	c.entries[pid] = id
	c.mu.Unlock()
	return id
}

func (c *Cache) readPath(ctx context.Context, pid int32) string {
	for _, r := range c.readers {
		path, err := r.ReadPath(ctx, pid)
		if err != nil {
			slog.Debug("process path read failed", "pid", pid, "error", err)
			continue
		}
		if path != "" {
			return path
		}
	}
	return ""
}

// Lookup returns a cached identity without touching the OS or the timestamp.
func (c *Cache) Lookup(pid int32) (domain.ProcessIdentity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[pid]
	return id, ok
}

// Purge evicts identities not referenced within the inactivity window.
func (c *Cache) Purge() int {
	cutoff := c.now().Add(-c.inactivity)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for pid, id := range c.entries {
		if id.LastReferred.Before(cutoff) {
			delete(c.entries, pid)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached identities.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// baseName handles both slash styles since paths may come from any platform.
// A value with spaces that is not rooted is a name already, not a path.
func baseName(path string) string {
	if strings.ContainsRune(path, ' ') && !strings.HasPrefix(path, "/") && !strings.Contains(path, `:\`) {
		return path
	}
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
