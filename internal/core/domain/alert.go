package domain

import (
	"time"
)

// AlertType defines the category of an alert.
type AlertType string

const (
	AlertNewDevice AlertType = "new_device"
	AlertNewApp    AlertType = "new_app"
)

// AlertSeverity represents the criticality of an event.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
	SeverityLow      AlertSeverity = "low"
	SeverityInfo     AlertSeverity = "info"
)

// Alert is a detected condition. ID is assigned by storage.
type Alert struct {
	ID        int64          `json:"id"`
	Type      AlertType      `json:"type"`
	Severity  AlertSeverity  `json:"severity"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Read      bool           `json:"read"`
}

// MaxStoredAlerts caps the persisted alert history.
const MaxStoredAlerts = 100

// MaxRecentAlerts caps the in-memory ring served by the recent-alerts query.
const MaxRecentAlerts = 50
