package sysnet

import (
	"context"
	"net"
	"sort"
	"strings"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/prometheus/procfs"
)

// rtfGateway marks a route that goes through a gateway.
const rtfGateway = 0x2

type procTables interface {
	GatherARPEntries() ([]procfs.ARPEntry, error)
	NetRoute() ([]procfs.NetRouteLine, error)
}

// Neighborhood reads the routing and ARP tables from procfs.
type Neighborhood struct {
	fs    procTables
	addrs func() ([]net.Addr, error)
}

// NewNeighborhood opens procfs at mountPoint; empty means /proc.
func NewNeighborhood(mountPoint string) (*Neighborhood, error) {
	if mountPoint == "" {
		mountPoint = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, &domain.OSError{Op: "open procfs", Err: err}
	}
	return &Neighborhood{fs: fs, addrs: net.InterfaceAddrs}, nil
}

// DefaultGateway returns the gateway of the default route with the lowest metric.
func (n *Neighborhood) DefaultGateway(ctx context.Context) (net.IP, error) {
	routes, err := n.fs.NetRoute()
	if err != nil {
		return nil, &domain.OSError{Op: "route table", Err: err}
	}
	var defaults []procfs.NetRouteLine
	for _, r := range routes {
		if r.Destination == 0 && r.Mask == 0 && r.Gateway != 0 && r.Flags&rtfGateway != 0 {
			defaults = append(defaults, r)
		}
	}
	if len(defaults) == 0 {
		return nil, domain.ErrNoGateway
	}
	sort.SliceStable(defaults, func(i, j int) bool { return defaults[i].Metric < defaults[j].Metric })
	return routeIP(defaults[0].Gateway), nil
}

// routeIP converts a /proc/net/route field, stored in host (little endian) order.
func routeIP(v uint32) net.IP {
	return net.IPv4(byte(v), byte(v>>8), byte(v>>16), byte(v>>24)).To4()
}

// LocalAddresses returns the IPv4 addresses assigned to this host.
func (n *Neighborhood) LocalAddresses() ([]net.IP, error) {
	addrs, err := n.addrs()
	if err != nil {
		return nil, &domain.OSError{Op: "interface addresses", Err: err}
	}
	var ips []net.IP
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
			ips = append(ips, ip4)
		}
	}
	return ips, nil
}

// Neighbors returns complete ARP entries. Permanent (static) entries are
// reported with Dynamic false.
func (n *Neighborhood) Neighbors(ctx context.Context) ([]domain.NeighborEntry, error) {
	entries, err := n.fs.GatherARPEntries()
	if err != nil {
		return nil, &domain.OSError{Op: "neighbor table", Err: err}
	}
	out := make([]domain.NeighborEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsComplete() {
			continue
		}
		out = append(out, domain.NeighborEntry{
			IPAddress:  e.IPAddr.String(),
			MACAddress: strings.ToUpper(e.HWAddr.String()),
			Interface:  e.Device,
			Dynamic:    e.Flags&procfs.ATFPermanent == 0,
		})
	}
	return out, nil
}
