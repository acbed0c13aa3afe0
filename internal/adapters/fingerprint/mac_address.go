package fingerprint

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// MACAddress is a parsed 48-bit hardware address. The zero value is not a
// valid address.
type MACAddress struct {
	octets [6]byte
	ok     bool
}

// ParseMAC accepts colon, dash or dot separated forms as well as 12 bare hex
// digits, in either case.
func ParseMAC(s string) (MACAddress, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return MACAddress{}, &MACError{Input: s, Reason: "empty"}
	}
	digits := strings.Map(func(r rune) rune {
		switch r {
		case ':', '-', '.':
			return -1
		}
		return r
	}, in)
	if len(digits) != 12 {
		return MACAddress{}, &MACError{Input: s, Reason: "want 6 octets"}
	}

	var m MACAddress
	if _, err := hex.Decode(m.octets[:], []byte(digits)); err != nil {
		return MACAddress{}, &MACError{Input: s, Reason: "not hex"}
	}
	m.ok = true
	return m, nil
}

// OUI is the registry key, "XX:XX:XX".
func (m MACAddress) OUI() string {
	if !m.ok {
		return ""
	}
	return fmt.Sprintf("%02X:%02X:%02X", m.octets[0], m.octets[1], m.octets[2])
}

// IsLocallyAdministered checks the U/L bit, set on randomized addresses.
func (m MACAddress) IsLocallyAdministered() bool {
	return m.ok && m.octets[0]&0x02 != 0
}

func (m MACAddress) String() string {
	if !m.ok {
		return ""
	}
	o := m.octets
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", o[0], o[1], o[2], o[3], o[4], o[5])
}

// normalizePrefix turns a manuf prefix column ("00-1A-2B", "001A2B",
// "00:1a:2b:00:00:00") into the OUI key, or "" if it is not one.
func normalizePrefix(raw string) string {
	hexOnly := strings.NewReplacer(":", "", "-", "", ".", "").Replace(strings.TrimSpace(raw))
	if len(hexOnly) < 6 {
		return ""
	}
	var b [3]byte
	if _, err := hex.Decode(b[:], []byte(hexOnly[:6])); err != nil {
		return ""
	}
	return fmt.Sprintf("%02X:%02X:%02X", b[0], b[1], b[2])
}
