package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// Chain asks each resolver in turn and returns the first non-empty name.
type Chain struct {
	resolvers []ports.HostnameResolver
	// StepTimeout bounds each individual resolver; zero means no extra bound.
	StepTimeout time.Duration
}

// NewChain builds a chain in lookup order.
func NewChain(resolvers ...ports.HostnameResolver) *Chain {
	return &Chain{resolvers: resolvers, StepTimeout: 2 * time.Second}
}

// LookupHostname never returns an error: a failing step falls through, and
// total failure yields an empty name.
func (c *Chain) LookupHostname(ctx context.Context, ip string) (string, error) {
	for _, r := range c.resolvers {
		name, err := c.step(ctx, r, ip)
		if err != nil {
			slog.Debug("hostname step failed", "ip", ip, "error", err)
			continue
		}
		if name = domain.CleanHostname(name); name != "" {
			return name, nil
		}
	}
	return "", nil
}

func (c *Chain) step(ctx context.Context, r ports.HostnameResolver, ip string) (string, error) {
	if c.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.StepTimeout)
		defer cancel()
	}
	return r.LookupHostname(ctx, ip)
}

// DefaultHostnameConfig holds the hostname cache policy.
func DefaultHostnameConfig() Config {
	return Config{
		Name:        "hostname",
		QueueSize:   100,
		Spacing:     50 * time.Millisecond,
		TTL:         5 * time.Minute,
		NegativeTTL: 30 * time.Second,
	}
}

// DefaultGeoConfig holds the geolocation cache policy. Spacing keeps under
// the 45 requests per minute allowed by the free tier.
func DefaultGeoConfig() Config {
	return Config{
		Name:        "geoip",
		QueueSize:   100,
		Spacing:     1400 * time.Millisecond,
		TTL:         24 * time.Hour,
		NegativeTTL: 10 * time.Minute,
	}
}

// NewHostnameWorker wires a hostname resolver into a Worker.
func NewHostnameWorker(cfg Config, r ports.HostnameResolver) *Worker[string] {
	return NewWorker(cfg, r.LookupHostname, func(name string) bool { return name == "" })
}

// NewGeoWorker wires a geolocator into a Worker.
func NewGeoWorker(cfg Config, l ports.GeoLocator) *Worker[domain.GeoInfo] {
	return NewWorker(cfg, l.Locate, domain.GeoInfo.IsEmpty)
}
