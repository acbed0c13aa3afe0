package domain

import (
	"time"
)

// OfflineAfter is how long a device may go unseen before it is reported offline.
const OfflineAfter = 5 * time.Minute

// PrivateDeviceVendor is reported for locally administered (randomized) MACs.
const PrivateDeviceVendor = "Private Device"

// Device is a host discovered on the local subnet. MAC is its durable
// identity; the IP may change between passes.
type Device struct {
	MACAddress string     `json:"macAddress"`
	IPAddress  string     `json:"ipAddress"`
	Hostname   string     `json:"hostname"`
	Vendor     string     `json:"vendor"`
	CustomName string     `json:"customName,omitempty"`
	FirstSeen  time.Time  `json:"firstSeen"`
	LastSeen   time.Time  `json:"lastSeen"`
	IsOnline   bool       `json:"isOnline"`
	OpenPorts  []OpenPort `json:"openPorts,omitempty"`
}

// OnlineAt derives the online flag from last-seen age.
func (d Device) OnlineAt(now time.Time) bool {
	if d.LastSeen.IsZero() {
		return false
	}
	return now.Sub(d.LastSeen) <= OfflineAfter
}

// NeighborEntry is one row of the OS neighbor (ARP) table.
type NeighborEntry struct {
	IPAddress  string
	MACAddress string
	Interface  string
	Dynamic    bool
}

// OpenPort is a TCP port found listening on a device.
type OpenPort struct {
	Port    int    `json:"port"`
	Service string `json:"service"`
	Open    bool   `json:"open"`
}

// CommonPorts is the port list swept on every device, with service names.
var CommonPorts = map[int]string{
	21:   "FTP",
	22:   "SSH",
	23:   "Telnet",
	25:   "SMTP",
	53:   "DNS",
	80:   "HTTP",
	110:  "POP3",
	143:  "IMAP",
	443:  "HTTPS",
	445:  "SMB",
	548:  "AFP",
	993:  "IMAPS",
	995:  "POP3S",
	1433: "MSSQL",
	3306: "MySQL",
	3389: "RDP",
	5432: "PostgreSQL",
	5900: "VNC",
	8080: "HTTP-Alt",
	8443: "HTTPS-Alt",
	9100: "Printer",
}

// ServiceName returns the well-known service on port, or "Unknown".
func ServiceName(port int) string {
	if name, ok := CommonPorts[port]; ok {
		return name
	}
	return "Unknown"
}
