package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

// OpenPorts returns the cached scan result for mac.
func (s *Service) OpenPorts(mac string) []domain.OpenPort {
	if normalized, err := domain.NormalizeMAC(mac); err == nil {
		mac = normalized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.OpenPort(nil), s.openPorts[mac]...)
}

// ScanPorts scans ip now and caches the result under mac when one is given.
func (s *Service) ScanPorts(ctx context.Context, ip, mac string) ([]domain.OpenPort, error) {
	if !domain.IsValidDeviceIP(ip) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, ip)
	}
	s.mu.RLock()
	scanner, list := s.scanner, s.cfg.Ports
	s.mu.RUnlock()
	if scanner == nil {
		return nil, nil
	}

	open := scanner.Scan(ctx, ip, list)
	if open == nil {
		open = []domain.OpenPort{}
	}
	if mac != "" {
		if normalized, err := domain.NormalizeMAC(mac); err == nil {
			s.mu.Lock()
			s.openPorts[normalized] = open
			s.mu.Unlock()
		}
	}
	return open, nil
}

// PortSweep scans every online device in turn.
func (s *Service) PortSweep(ctx context.Context) int {
	devices, err := s.Devices(ctx)
	if err != nil {
		slog.Warn("Port sweep skipped", "error", err)
		return 0
	}
	scanned := 0
	for _, d := range devices {
		if ctx.Err() != nil {
			break
		}
		if !d.IsOnline {
			continue
		}
		if _, err := s.ScanPorts(ctx, d.IPAddress, d.MACAddress); err == nil {
			scanned++
		}
	}
	return scanned
}
