// Package sysnet reads host network state: the connection table, process
// identity and counters (gopsutil), and the route and neighbor tables (procfs).
package sysnet

import (
	"context"
	"strings"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	psnet "github.com/shirou/gopsutil/v3/net"
)

const (
	sockStream = 1
	sockDgram  = 2
)

var states = map[string]domain.ConnState{
	"ESTABLISHED":  domain.StateEstablished,
	"LISTEN":       domain.StateListen,
	"SYN_SENT":     domain.StateSynSent,
	"SYN_RECV":     domain.StateSynReceived,
	"SYN_RECEIVED": domain.StateSynReceived,
	"FIN_WAIT1":    domain.StateFinWait1,
	"FIN_WAIT_1":   domain.StateFinWait1,
	"FIN_WAIT2":    domain.StateFinWait2,
	"FIN_WAIT_2":   domain.StateFinWait2,
	"CLOSE_WAIT":   domain.StateCloseWait,
	"CLOSING":      domain.StateClosing,
	"LAST_ACK":     domain.StateLastAck,
	"TIME_WAIT":    domain.StateTimeWait,
	"CLOSE":        domain.StateClosed,
	"CLOSED":       domain.StateClosed,
	"DELETE":       domain.StateClosed,
}

// ConnectionTable lists TCP and UDP sockets of every process.
type ConnectionTable struct {
	list func(ctx context.Context, kind string) ([]psnet.ConnectionStat, error)
}

// NewConnectionTable reads the live OS table.
func NewConnectionTable() *ConnectionTable {
	return &ConnectionTable{list: psnet.ConnectionsWithContext}
}

// Sockets implements ports.ConnectionSource.
func (t *ConnectionTable) Sockets(ctx context.Context) ([]domain.SocketRow, error) {
	stats, err := t.list(ctx, "inet")
	if err != nil {
		return nil, &domain.OSError{Op: "connection table", Err: err}
	}
	rows := make([]domain.SocketRow, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, toSocketRow(s))
	}
	return rows, nil
}

func toSocketRow(s psnet.ConnectionStat) domain.SocketRow {
	row := domain.SocketRow{
		PID:           s.Pid,
		Protocol:      domain.ProtocolTCP,
		LocalAddress:  s.Laddr.IP,
		LocalPort:     s.Laddr.Port,
		RemoteAddress: s.Raddr.IP,
		RemotePort:    s.Raddr.Port,
		State:         normalizeState(s.Status),
	}
	if s.Type == sockDgram {
		row.Protocol = domain.ProtocolUDP
		row.State = domain.StateNone
	}
	return row
}

func normalizeState(status string) domain.ConnState {
	if st, ok := states[strings.ToUpper(status)]; ok {
		return st
	}
	return domain.StateNone
}
