// Package monitor observes the connection table and host traffic.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
	"github.com/MrOplus/NetGuard/internal/core/services/identity"
	"github.com/MrOplus/NetGuard/internal/telemetry"
)

// IdentityResolver maps a pid to its process identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, pid int32) domain.ProcessIdentity
}

// HostnameCache is the read side of the hostname worker.
type HostnameCache interface {
	Get(ip string) (string, bool)
	Queue(ip string) bool
}

// GeoCache is the read side of the GeoIP worker.
type GeoCache interface {
	Get(ip string) (domain.GeoInfo, bool)
	Queue(ip string) bool
}

// Enumerator builds the enriched connection snapshot once per tick.
type Enumerator struct {
	source     ports.ConnectionSource
	identities IdentityResolver
	procs      ports.ProcessInspector
	rates      *identity.RateCounter[int32]
	hostnames  HostnameCache
	geo        GeoCache

	mu       sync.RWMutex
	snapshot []domain.Connection
}

// NewEnumerator wires the enumerator. hostnames and geo may be nil.
func NewEnumerator(source ports.ConnectionSource, identities IdentityResolver, procs ports.ProcessInspector, hostnames HostnameCache, geo GeoCache) *Enumerator {
	return &Enumerator{
		source:     source,
		identities: identities,
		procs:      procs,
		rates:      identity.NewRateCounter[int32](),
		hostnames:  hostnames,
		geo:        geo,
	}
}

// Poll reads the OS table and replaces the snapshot. When the read fails
// the previous snapshot is kept and returned along with the error.
func (e *Enumerator) Poll(ctx context.Context) ([]domain.Connection, error) {
	rows, err := e.source.Sockets(ctx)
	if err != nil {
		telemetry.PollFailures.WithLabelValues("connections").Inc()
		slog.Warn("Connection table read failed, keeping previous snapshot", "error", err)
		return e.Connections(false), fmt.Errorf("read connection table: %w", err)
	}

	deltas := e.deltas(ctx, rows)
	conns := make([]domain.Connection, 0, len(rows))
	perProto := map[string]int{}

	for _, row := range rows {
		id := e.identities.Resolve(ctx, row.PID)
		delta := deltas[row.PID]

		conn := domain.Connection{
			ID:            domain.ConnectionID(row.LocalAddress, row.LocalPort, row.RemoteAddress, row.RemotePort),
			ProcessName:   id.Name,
			ProcessPath:   id.Path,
			ProcessID:     row.PID,
			LocalAddress:  row.LocalAddress,
			LocalPort:     row.LocalPort,
			RemoteAddress: row.RemoteAddress,
			RemotePort:    row.RemotePort,
			Protocol:      row.Protocol,
			State:         row.State,
			BytesSent:     delta.Sent,
			BytesReceived: delta.Received,
		}
		e.enrich(&conn)
		conns = append(conns, conn)
		perProto[row.Protocol]++
	}

	for _, proto := range []string{domain.ProtocolTCP, domain.ProtocolUDP} {
		telemetry.ConnectionsCurrent.WithLabelValues(proto).Set(float64(perProto[proto]))
	}

	e.mu.Lock()
	e.snapshot = conns
	e.mu.Unlock()

	return conns, nil
}

// deltas reads each pid's counters once per tick. Pid 0 and processes
// whose counters cannot be read get a zero delta.
func (e *Enumerator) deltas(ctx context.Context, rows []domain.SocketRow) map[int32]domain.IOCounters {
	out := make(map[int32]domain.IOCounters)
	for _, row := range rows {
		if row.PID == 0 {
			continue
		}
		if _, done := out[row.PID]; done {
			continue
		}
		counters, err := e.procs.IOCounters(ctx, row.PID)
		if err != nil {
			out[row.PID] = domain.IOCounters{}
			continue
		}
		out[row.PID] = e.rates.Rate(row.PID, counters)
	}
	e.rates.Retain(func(pid int32) bool {
		_, alive := out[pid]
		return alive
	})
	return out
}

func (e *Enumerator) enrich(conn *domain.Connection) {
	remote := conn.RemoteAddress
	if !domain.IsResolvable(remote) {
		return
	}
	if e.hostnames != nil {
		if name, ok := e.hostnames.Get(remote); ok {
			conn.RemoteHost = name
		} else {
			e.hostnames.Queue(remote)
		}
	}
	if e.geo != nil {
		if info, ok := e.geo.Get(remote); ok {
			conn.Country = info.Country
			conn.CountryCode = info.CountryCode
			conn.City = info.City
			conn.Lat = info.Lat
			conn.Lon = info.Lon
		} else {
			e.geo.Queue(remote)
		}
	}
}

// Connections returns a copy of the latest snapshot. With hideLocal set,
// rows whose endpoints are both loopback are left out.
func (e *Enumerator) Connections(hideLocal bool) []domain.Connection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Connection, 0, len(e.snapshot))
	for _, c := range e.snapshot {
		if hideLocal && c.IsLocalOnly() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Find returns the snapshot row with the given id.
func (e *Enumerator) Find(id string) (domain.Connection, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.snapshot {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Connection{}, false
}
