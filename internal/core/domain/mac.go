package domain

import (
	"fmt"
	"net"
	"strings"
)

// NormalizeMAC returns the upper-case, colon separated form used as the
// device key. Only 48-bit addresses are accepted.
func NormalizeMAC(mac string) (string, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(mac))
	if err != nil || len(hw) != 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
	}
	return strings.ToUpper(hw.String()), nil
}
