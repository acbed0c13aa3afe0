package ports

import (
	"context"
	"net"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

// ConnectionSource reads the OS connection table.
type ConnectionSource interface {
	// Sockets returns every TCP and UDP row currently known to the OS.
	Sockets(ctx context.Context) ([]domain.SocketRow, error)
}

// PathReader reads the image path of a running process.
type PathReader interface {
	ReadPath(ctx context.Context, pid int32) (string, error)
}

// ProcessInspector exposes per-process counters and termination.
type ProcessInspector interface {
	IOCounters(ctx context.Context, pid int32) (domain.IOCounters, error)
	Kill(ctx context.Context, pid int32) error
}

// InterfaceCounters reads host-wide NIC byte counters.
type InterfaceCounters interface {
	// HostCounters sums every non-loopback interface.
	HostCounters(ctx context.Context) (domain.IOCounters, error)
}

// NetworkInspector reads the routing and neighbor tables.
type NetworkInspector interface {
	DefaultGateway(ctx context.Context) (net.IP, error)
	LocalAddresses() ([]net.IP, error)
	Neighbors(ctx context.Context) ([]domain.NeighborEntry, error)
}

// Prober elicits a neighbor-table entry for ip. The result is not meaningful
// beyond populating the table.
type Prober interface {
	Probe(ctx context.Context, ip net.IP) error
}

// HostnameResolver maps an address to a host name. An empty name with a
// nil error means the source has no answer.
type HostnameResolver interface {
	LookupHostname(ctx context.Context, ip string) (string, error)
}

// GeoLocator maps a public address to its location.
type GeoLocator interface {
	Locate(ctx context.Context, ip string) (domain.GeoInfo, error)
}

// VendorLookup maps a hardware address to its manufacturer.
type VendorLookup interface {
	LookupVendor(ctx context.Context, mac string) (string, error)
}

// PortScanner checks a list of TCP ports on a host.
type PortScanner interface {
	Scan(ctx context.Context, ip string, ports []int) []domain.OpenPort
}

// AlertSubscriber receives every alert after it is persisted.
type AlertSubscriber interface {
	NotifyAlert(alert domain.Alert)
}

// AlertPublisher accepts alerts from producers without blocking.
type AlertPublisher interface {
	Publish(alert domain.Alert) bool
}

// HistoryMirror copies history rows to an external analytics store.
type HistoryMirror interface {
	MirrorTraffic(ctx context.Context, point domain.TrafficPoint) error
	MirrorConnections(ctx context.Context, entries []domain.ConnectionLogEntry) error
	Close() error
}

// FirewallController is the privileged rule-editing collaborator.
type FirewallController interface {
	ListRules(ctx context.Context) ([]domain.FirewallRule, error)
	AddRule(ctx context.Context, rule domain.FirewallRule) error
	RemoveRule(ctx context.Context, name string) error
}

// InterceptionController is the kernel-level interception collaborator.
type InterceptionController interface {
	ListPending(ctx context.Context) ([]domain.PendingConnection, error)
	Respond(ctx context.Context, verdict domain.Verdict) error
}
