package fingerprint

import (
	"context"
	"errors"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

// VendorSource answers vendor lookups for a parsed address.
type VendorSource interface {
	LookupVendor(ctx context.Context, mac MACAddress) (string, error)
}

// StaticVendors is an in-memory prefix table.
type StaticVendors map[string]string

func (s StaticVendors) LookupVendor(_ context.Context, mac MACAddress) (string, error) {
	if vendor, ok := s[mac.OUI()]; ok {
		return vendor, nil
	}
	return "", ErrVendorNotFound
}

// VendorLookup is the string-keyed front used by discovery. Randomized
// addresses never reach a source.
type VendorLookup struct {
	src VendorSource
}

func NewVendorLookup(src VendorSource) *VendorLookup {
	return &VendorLookup{src: src}
}

// LookupVendor returns "" with a nil error when no source knows the prefix.
func (v *VendorLookup) LookupVendor(ctx context.Context, mac string) (string, error) {
	addr, err := ParseMAC(mac)
	if err != nil {
		return "", err
	}
	if addr.IsLocallyAdministered() {
		return domain.PrivateDeviceVendor, nil
	}
	vendor, err := v.src.LookupVendor(ctx, addr)
	if errors.Is(err, ErrVendorNotFound) {
		return "", nil
	}
	return vendor, err
}
