package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Protocol names reported for a connection row.
const (
	ProtocolTCP = "TCP"
	ProtocolUDP = "UDP"
)

// ConnState is the normalized socket state of a connection row.
type ConnState string

const (
	StateEstablished ConnState = "Established"
	StateListen      ConnState = "Listen"
	StateSynSent     ConnState = "SynSent"
	StateSynReceived ConnState = "SynReceived"
	StateFinWait1    ConnState = "FinWait1"
	StateFinWait2    ConnState = "FinWait2"
	StateCloseWait   ConnState = "CloseWait"
	StateClosing     ConnState = "Closing"
	StateLastAck     ConnState = "LastAck"
	StateTimeWait    ConnState = "TimeWait"
	StateClosed      ConnState = "Closed"
	StateNone        ConnState = ""
)

// SystemProcessName is the name given to rows the OS does not attribute to a user process.
const SystemProcessName = "System"

// Connection is one row of the live connection table, enriched with the
// owning process and whatever the resolution workers have cached so far.
type Connection struct {
	ID            string    `json:"id"`
	ProcessName   string    `json:"processName"`
	ProcessPath   string    `json:"processPath"`
	ProcessID     int32     `json:"processId"`
	LocalAddress  string    `json:"localAddress"`
	LocalPort     uint32    `json:"localPort"`
	RemoteAddress string    `json:"remoteAddress"`
	RemotePort    uint32    `json:"remotePort"`
	RemoteHost    string    `json:"remoteHost,omitempty"`
	Protocol      string    `json:"protocol"`
	State         ConnState `json:"state"`
	BytesSent     uint64    `json:"bytesSent"`
	BytesReceived uint64    `json:"bytesReceived"`
	Country       string    `json:"country,omitempty"`
	CountryCode   string    `json:"countryCode,omitempty"`
	City          string    `json:"city,omitempty"`
	Lat           float64   `json:"lat,omitempty"`
	Lon           float64   `json:"lon,omitempty"`
}

// IsLocalOnly reports whether both endpoints are loopback addresses.
func (c Connection) IsLocalOnly() bool {
	return IsLoopback(c.LocalAddress) && IsLoopback(c.RemoteAddress)
}

// IsExternalEstablished reports whether the row is an established
// connection to a non-loopback peer.
func (c Connection) IsExternalEstablished() bool {
	return c.State == StateEstablished && c.RemoteAddress != "" && !IsLoopback(c.RemoteAddress)
}

// ConnectionID builds the structural identifier "local:port-remote:port".
func ConnectionID(localAddr string, localPort uint32, remoteAddr string, remotePort uint32) string {
	return fmt.Sprintf("%s:%d-%s:%d", localAddr, localPort, remoteAddr, remotePort)
}

// Endpoint is one side of a connection id.
type Endpoint struct {
	Address string
	Port    uint32
}

// ParseConnectionID splits an id produced by ConnectionID. The separator is
// the last dash, and each side splits on its last colon so IPv6 addresses survive.
func ParseConnectionID(id string) (local Endpoint, remote Endpoint, err error) {
	dash := strings.LastIndex(id, "-")
	if dash == -1 {
		return local, remote, fmt.Errorf("%w: no separator in %q", ErrInvalidConnectionID, id)
	}
	if local, err = parseEndpoint(id[:dash]); err != nil {
		return local, remote, err
	}
	remote, err = parseEndpoint(id[dash+1:])
	return local, remote, err
}

func parseEndpoint(s string) (Endpoint, error) {
	colon := strings.LastIndex(s, ":")
	if colon == -1 {
		return Endpoint{}, fmt.Errorf("%w: missing port in %q", ErrInvalidConnectionID, s)
	}
	port, err := strconv.ParseUint(s[colon+1:], 10, 16)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: bad port in %q", ErrInvalidConnectionID, s)
	}
	return Endpoint{Address: strings.Trim(s[:colon], "[]"), Port: uint32(port)}, nil
}

// ProcessIdentity is the cached name and image path of a pid.
type ProcessIdentity struct {
	PID          int32     `json:"pid"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	LastReferred time.Time `json:"lastReferred"`
}

// IOCounters are cumulative byte counters read from the OS.
type IOCounters struct {
	Received uint64
	Sent     uint64
}

// TrafficStats is the host-wide rate sample served by get-traffic.
type TrafficStats struct {
	Download      uint64    `json:"download"`
	Upload        uint64    `json:"upload"`
	TotalDownload uint64    `json:"totalDownload"`
	TotalUpload   uint64    `json:"totalUpload"`
	Timestamp     time.Time `json:"timestamp"`
}

// GeoInfo is the geographic enrichment of a remote address.
type GeoInfo struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
}

// IsEmpty reports whether the lookup produced nothing usable.
func (g GeoInfo) IsEmpty() bool {
	return g.Country == "" && g.City == "" && g.CountryCode == ""
}

// SocketRow is one raw entry of the OS connection table before enrichment.
type SocketRow struct {
	PID           int32
	Protocol      string
	LocalAddress  string
	LocalPort     uint32
	RemoteAddress string
	RemotePort    uint32
	State         ConnState
}
