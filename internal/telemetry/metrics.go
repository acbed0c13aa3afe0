package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ConnectionsCurrent is the size of the latest connection snapshot
	ConnectionsCurrent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "netguard",
			Name:      "connections_current",
			Help:      "Number of connections in the latest snapshot",
		},
		[]string{"protocol"},
	)

	// PollFailures counts OS reads that failed and fell back to the previous snapshot
	PollFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netguard",
			Name:      "poll_failures_total",
			Help:      "Total number of failed periodic OS reads",
		},
		[]string{"task"},
	)

	// TaskPanics counts panics recovered at a periodic task boundary
	TaskPanics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netguard",
			Name:      "task_panics_total",
			Help:      "Total number of panics recovered in periodic tasks",
		},
		[]string{"task"},
	)

	// ResolverLookups counts background lookups by outcome
	ResolverLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netguard",
			Name:      "resolver_lookups_total",
			Help:      "Total number of resolver lookups",
		},
		[]string{"worker", "outcome"},
	)

	// ResolverDrops counts addresses not handed to a resolver
	ResolverDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netguard",
			Name:      "resolver_drops_total",
			Help:      "Total number of resolver requests dropped",
		},
		[]string{"worker", "reason"},
	)

	// AlertsPublished counts alerts accepted by the pipeline
	AlertsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netguard",
			Name:      "alerts_published_total",
			Help:      "Total number of alerts published",
		},
		[]string{"type"},
	)

	// AlertsDropped counts alerts dropped because the pipeline was full
	AlertsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netguard",
			Name:      "alerts_dropped_total",
			Help:      "Total number of alerts dropped on a full queue",
		},
		[]string{"type"},
	)

	// DevicesKnown tracks discovered devices by state
	DevicesKnown = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "netguard",
			Name:      "devices_known",
			Help:      "Number of known LAN devices",
		},
		[]string{"state"},
	)

	// ConnectionLogDropped counts log entries refused on a full write queue
	ConnectionLogDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "netguard",
			Name:      "connection_log_dropped_total",
			Help:      "Total number of connection log entries dropped before storage",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(ConnectionsCurrent)
		prometheus.DefaultRegisterer.Register(PollFailures)
		prometheus.DefaultRegisterer.Register(TaskPanics)
		prometheus.DefaultRegisterer.Register(ResolverLookups)
		prometheus.DefaultRegisterer.Register(ResolverDrops)
		prometheus.DefaultRegisterer.Register(AlertsPublished)
		prometheus.DefaultRegisterer.Register(AlertsDropped)
		prometheus.DefaultRegisterer.Register(DevicesKnown)
		prometheus.DefaultRegisterer.Register(ConnectionLogDropped)
	})
}
