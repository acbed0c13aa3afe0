// Package portscan checks TCP ports with plain connect attempts.
package portscan

import (
	"context"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

// Scanner dials each port once and reports the ones that accepted.
type Scanner struct {
	Concurrency int
	Timeout     time.Duration
	dialer      func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewScanner uses 20 concurrent dials and a 500ms timeout.
func NewScanner() *Scanner {
	d := &net.Dialer{}
	return &Scanner{Concurrency: 20, Timeout: 500 * time.Millisecond, dialer: d.DialContext}
}

// Scan returns the open ports sorted by number.
func (s *Scanner) Scan(ctx context.Context, ip string, ports []int) []domain.OpenPort {
	var (
		mu   sync.Mutex
		open []domain.OpenPort
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for _, port := range ports {
		port := port
		g.Go(func() error {
			if s.probe(gctx, ip, port) {
				mu.Lock()
				open = append(open, domain.OpenPort{Port: port, Service: domain.ServiceName(port), Open: true})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(open, func(i, j int) bool { return open[i].Port < open[j].Port })
	return open
}

func (s *Scanner) probe(ctx context.Context, ip string, port int) bool {
	dctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	conn, err := s.dialer(dctx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// CommonPorts lists the ports of domain.CommonPorts in ascending order.
func CommonPorts() []int {
	out := make([]int, 0, len(domain.CommonPorts))
	for p := range domain.CommonPorts {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
