// Package dns performs reverse lookups through the system resolver.
package dns

import (
	"context"
	"fmt"
	"net"
)

// AddrLookuper is the subset of net.Resolver used here.
type AddrLookuper interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// ReverseResolver returns the first PTR name of an address.
type ReverseResolver struct {
	resolver AddrLookuper
}

// NewReverseResolver uses net.DefaultResolver.
func NewReverseResolver() *ReverseResolver {
	return &ReverseResolver{resolver: net.DefaultResolver}
}

// NewReverseResolverWith uses the given lookuper.
func NewReverseResolverWith(r AddrLookuper) *ReverseResolver {
	return &ReverseResolver{resolver: r}
}

// LookupHostname implements ports.HostnameResolver.
func (r *ReverseResolver) LookupHostname(ctx context.Context, ip string) (string, error) {
	names, err := r.resolver.LookupAddr(ctx, ip)
	if err != nil {
		return "", fmt.Errorf("reverse lookup %s: %w", ip, err)
	}
	for _, n := range names {
		if n != "" {
			return n, nil
		}
	}
	return "", nil
}
