package fingerprint

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const ouiSchema = `
CREATE TABLE IF NOT EXISTS oui_registry (
	prefix       TEXT PRIMARY KEY,
	vendor       TEXT NOT NULL,
	vendor_short TEXT,
	last_updated INTEGER
);
CREATE INDEX IF NOT EXISTS idx_oui_vendor ON oui_registry(vendor);`

// OUIEntry is one row of the manufacturer registry.
type OUIEntry struct {
	Prefix      string
	Vendor      string
	VendorShort string
	LastUpdated time.Time
}

// DBStats describes the stored registry and the prefix cache in front of it.
type DBStats struct {
	TotalEntries int
	LastUpdated  time.Time
	Path         string
	Cache        PrefixCacheStats
}

// OUIDatabase is the SQLite copy of the registry. Prefixes it cannot answer
// go to the fallback source; both answers and misses are cached per prefix.
type OUIDatabase struct {
	path     string
	fallback VendorSource
	cache    *prefixCache

	mu     sync.RWMutex
	db     *sql.DB
	lookup *sql.Stmt
}

// NewOUIDatabase opens or creates the registry file. fallback may be nil.
func NewOUIDatabase(path string, cacheSize int, fallback VendorSource) (*OUIDatabase, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, failed("open", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	o := &OUIDatabase{path: path, fallback: fallback, cache: newPrefixCache(cacheSize), db: db}
	if err := o.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return o, nil
}

func (o *OUIDatabase) prepare() error {
	if err := o.db.Ping(); err != nil {
		return failed("ping", err)
	}
	if _, err := o.db.Exec(ouiSchema); err != nil {
		return failed("schema", err)
	}
	stmt, err := o.db.Prepare(`SELECT COALESCE(NULLIF(vendor_short, ''), vendor) FROM oui_registry WHERE prefix = ?`)
	if err != nil {
		return failed("prepare lookup", err)
	}
	o.lookup = stmt
	return nil
}

// LookupVendor answers from the cache, then SQLite, then the fallback.
func (o *OUIDatabase) LookupVendor(ctx context.Context, mac MACAddress) (string, error) {
	prefix := mac.OUI()
	if prefix == "" {
		return "", ErrInvalidMAC
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.db == nil {
		return "", ErrRegistryClosed
	}

	if vendor, absent, found := o.cache.lookup(prefix); found {
		if absent {
			return "", ErrVendorNotFound
		}
		return vendor, nil
	}

	var vendor string
	err := o.lookup.QueryRowContext(ctx, prefix).Scan(&vendor)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		// a broken file should not hide the built-in table
		if v, ferr := o.askFallback(ctx, mac); ferr == nil {
			return v, nil
		}
		return "", failed("lookup", err)
	}
	if err != nil {
		vendor, err = o.askFallback(ctx, mac)
		if err != nil {
			if errors.Is(err, ErrVendorNotFound) {
				o.cache.rememberAbsent(prefix)
			}
			return "", err
		}
	}
	o.cache.remember(prefix, vendor)
	return vendor, nil
}

func (o *OUIDatabase) askFallback(ctx context.Context, mac MACAddress) (string, error) {
	if o.fallback == nil {
		return "", ErrVendorNotFound
	}
	vendor, err := o.fallback.LookupVendor(ctx, mac)
	if err == nil && vendor == "" {
		err = ErrVendorNotFound
	}
	return vendor, err
}

// BulkInsertOUIs upserts entries in one transaction.
func (o *OUIDatabase) BulkInsertOUIs(ctx context.Context, entries []OUIEntry) error {
	return o.store(ctx, entries, false)
}

// ReplaceAll swaps the registry contents for entries.
func (o *OUIDatabase) ReplaceAll(ctx context.Context, entries []OUIEntry) error {
	if len(entries) == 0 {
		return ErrEmptyManuf
	}
	return o.store(ctx, entries, true)
}

func (o *OUIDatabase) store(ctx context.Context, entries []OUIEntry, replace bool) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.db == nil {
		return ErrRegistryClosed
	}

	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return failed("begin", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if replace {
		if _, err = tx.ExecContext(ctx, `DELETE FROM oui_registry`); err != nil {
			return failed("truncate", err)
		}
	}
	ins, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO oui_registry (prefix, vendor, vendor_short, last_updated) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return failed("prepare insert", err)
	}
	defer ins.Close()

	for _, e := range entries {
		if _, err = ins.ExecContext(ctx, e.Prefix, e.Vendor, e.VendorShort, e.LastUpdated.Unix()); err != nil {
			return failed("insert "+e.Prefix, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return failed("commit", err)
	}
	// misses cached before the import may now have rows
	o.cache.reset()
	return nil
}

// GetStats reports the entry count, newest row and cache counters.
func (o *OUIDatabase) GetStats(ctx context.Context) (DBStats, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.db == nil {
		return DBStats{}, ErrRegistryClosed
	}

	var newest int64
	stats := DBStats{Path: o.path, Cache: o.cache.stats()}
	err := o.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(last_updated), 0) FROM oui_registry`,
	).Scan(&stats.TotalEntries, &newest)
	if err != nil {
		return DBStats{}, failed("stats", err)
	}
	if newest > 0 {
		stats.LastUpdated = time.Unix(newest, 0)
	}
	return stats, nil
}

// NeedsRefresh reports an empty registry or one older than maxAge.
func (o *OUIDatabase) NeedsRefresh(ctx context.Context, maxAge time.Duration) bool {
	stats, err := o.GetStats(ctx)
	return err != nil || stats.TotalEntries == 0 || time.Since(stats.LastUpdated) > maxAge
}

// Close is idempotent.
func (o *OUIDatabase) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.db == nil {
		return nil
	}
	o.lookup.Close()
	err := o.db.Close()
	o.db = nil
	return err
}
