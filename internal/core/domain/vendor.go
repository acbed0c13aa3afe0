package domain

import "time"

// VendorDBStats describes the OUI registry served to the presentation layer.
type VendorDBStats struct {
	TotalEntries int       `json:"totalEntries"`
	CacheHits    int64     `json:"cacheHits"`
	CacheMisses  int64     `json:"cacheMisses"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Path         string    `json:"path"`
	Stale        bool      `json:"stale"`
}
