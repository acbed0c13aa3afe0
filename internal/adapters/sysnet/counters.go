package sysnet

import (
	"context"
	"strings"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// NICCounters sums byte counters over non-loopback interfaces.
type NICCounters struct {
	list func(ctx context.Context, pernic bool) ([]psnet.IOCountersStat, error)
}

// NewNICCounters reads the live interface counters.
func NewNICCounters() *NICCounters {
	return &NICCounters{list: psnet.IOCountersWithContext}
}

// HostCounters implements ports.InterfaceCounters.
func (n *NICCounters) HostCounters(ctx context.Context) (domain.IOCounters, error) {
	stats, err := n.list(ctx, true)
	if err != nil {
		return domain.IOCounters{}, &domain.OSError{Op: "interface counters", Err: err}
	}
	var total domain.IOCounters
	for _, s := range stats {
		if isLoopbackInterface(s.Name) {
			continue
		}
		total.Received += s.BytesRecv
		total.Sent += s.BytesSent
	}
	return total, nil
}

func isLoopbackInterface(name string) bool {
	lower := strings.ToLower(name)
	return lower == "lo" || strings.HasPrefix(lower, "lo0") || strings.Contains(lower, "loopback")
}
