package domain

import (
	"fmt"
	"time"
)

// TrafficPoint is one row of the traffic history series.
type TrafficPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Download  uint64    `json:"download"`
	Upload    uint64    `json:"upload"`
}

// ConnectionLogEntry is a connection persisted for later review.
type ConnectionLogEntry struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	ProcessName   string    `json:"processName"`
	ProcessPath   string    `json:"processPath"`
	RemoteAddress string    `json:"remoteAddress"`
	RemotePort    uint32    `json:"remotePort"`
	RemoteHost    string    `json:"remoteHost,omitempty"`
	Country       string    `json:"country,omitempty"`
	Protocol      string    `json:"protocol"`
	BytesSent     uint64    `json:"bytesSent"`
	BytesReceived uint64    `json:"bytesReceived"`
}

// NewConnectionLogEntry snapshots an enriched connection row.
func NewConnectionLogEntry(c Connection, at time.Time) ConnectionLogEntry {
	return ConnectionLogEntry{
		Timestamp:     at,
		ProcessName:   c.ProcessName,
		ProcessPath:   c.ProcessPath,
		RemoteAddress: c.RemoteAddress,
		RemotePort:    c.RemotePort,
		RemoteHost:    c.RemoteHost,
		Country:       c.Country,
		Protocol:      c.Protocol,
		BytesSent:     c.BytesSent,
		BytesReceived: c.BytesReceived,
	}
}

// ConnectionLogKey identifies a connection for the logging seen-set.
func ConnectionLogKey(c Connection) string {
	return fmt.Sprintf("%s-%s:%d", c.ProcessPath, c.RemoteAddress, c.RemotePort)
}

// History is the answer to a get-history window query.
type History struct {
	Connections []ConnectionLogEntry `json:"connections"`
	Traffic     []TrafficPoint       `json:"traffic"`
}

// AppUsage is the per-process aggregate over a usage range.
type AppUsage struct {
	ProcessName   string `json:"processName"`
	ProcessPath   string `json:"processPath"`
	BytesSent     uint64 `json:"bytesSent"`
	BytesReceived uint64 `json:"bytesReceived"`
	Connections   int64  `json:"connections"`
}

// TotalBytes is the sort key for usage listings.
func (u AppUsage) TotalBytes() uint64 {
	return u.BytesSent + u.BytesReceived
}

// UsageRange names an app-usage window.
type UsageRange string

const (
	RangeToday UsageRange = "today"
	RangeWeek  UsageRange = "week"
	RangeMonth UsageRange = "month"
)

// Since returns the first day included in the range, truncated to local midnight.
func (r UsageRange) Since(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch r {
	case RangeWeek:
		return day.AddDate(0, 0, -7)
	case RangeMonth:
		return day.AddDate(0, 0, -30)
	default:
		return day
	}
}

// ParseUsageRange falls back to today for unknown values.
func ParseUsageRange(s string) UsageRange {
	switch UsageRange(s) {
	case RangeWeek, RangeMonth:
		return UsageRange(s)
	default:
		return RangeToday
	}
}

// TrafficWindow maps a traffic history range name to its duration.
func TrafficWindow(s string) time.Duration {
	switch s {
	case "24h":
		return 24 * time.Hour
	case "7d":
		return 7 * 24 * time.Hour
	case "30d":
		return 30 * 24 * time.Hour
	default:
		return time.Hour
	}
}

// UsageDate formats the per-day key of the app usage table.
func UsageDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// KnownApp is an application path with its allow/block decision.
type KnownApp struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Allowed   bool      `json:"allowed"`
	FirstSeen time.Time `json:"firstSeen"`
}

// DBStats summarises row counts per table.
type DBStats struct {
	Tables map[string]int64 `json:"tables"`
	Path   string           `json:"path"`
	Size   int64            `json:"sizeBytes"`
}
