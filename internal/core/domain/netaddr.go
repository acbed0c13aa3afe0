package domain

import (
	"net"
	"strings"
)

var privateBlocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(blocks ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, b := range blocks {
		_, n, err := net.ParseCIDR(b)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// IsLoopback reports 127.0.0.0/8 and ::1. 0.0.0.0 is not loopback: it is
// the wildcard of a listening socket.
func IsLoopback(ip string) bool {
	if strings.HasPrefix(ip, "127.") || ip == "::1" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

// IsPrivate reports RFC1918, link-local and unique-local addresses.
func IsPrivate(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, block := range privateBlocks {
		if block.Contains(parsed) {
			return true
		}
	}
	return false
}

// IsResolvable reports whether a remote address is worth a hostname or
// geographic lookup.
func IsResolvable(ip string) bool {
	if ip == "" || IsLoopback(ip) || IsPrivate(ip) {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !parsed.IsUnspecified() && !parsed.IsMulticast()
}

// IsValidDeviceIP filters neighbor-table rows that cannot be a LAN host.
func IsValidDeviceIP(ip string) bool {
	parsed := net.ParseIP(ip).To4()
	if parsed == nil {
		return false
	}
	switch {
	case parsed[0] >= 224 && parsed[0] <= 239:
		return false
	case parsed[3] == 255:
		return false
	case parsed[0] == 127:
		return false
	case parsed[0] == 169 && parsed[1] == 254:
		return false
	case parsed.Equal(net.IPv4zero):
		return false
	}
	return true
}

// IsValidDeviceMAC rejects multicast, broadcast and all-zero hardware addresses.
func IsValidDeviceMAC(hw net.HardwareAddr) bool {
	if len(hw) != 6 {
		return false
	}
	if hw[0]&0x01 != 0 {
		return false
	}
	zero := true
	for _, b := range hw {
		if b != 0 {
			zero = false
			break
		}
	}
	return !zero
}

// CleanHostname strips a trailing dot and the home-network suffixes routers append.
func CleanHostname(name string) string {
	name = strings.TrimSpace(strings.TrimSuffix(name, "."))
	for _, suffix := range []string{".localdomain", ".local", ".lan", ".home", ".internal"} {
		if strings.HasSuffix(strings.ToLower(name), suffix) {
			name = name[:len(name)-len(suffix)]
			break
		}
	}
	return name
}
