package netbios

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Port is the NetBIOS name service port.
const Port = 137

const transactionID = 0x8228

// Client sends node status queries.
type Client struct {
	Timeout time.Duration
	port    int
}

// NewClient returns a client with a one second per-query timeout.
func NewClient() *Client {
	return &Client{Timeout: time.Second, port: Port}
}

// LookupHostname returns the workstation name of ip, or an error when the
// host does not answer or reports no unique name.
func (c *Client) LookupHostname(ctx context.Context, ip string) (string, error) {
	if net.ParseIP(ip).To4() == nil {
		return "", fmt.Errorf("netbios: %q is not an IPv4 address", ip)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", net.JoinHostPort(ip, strconv.Itoa(c.port)))
	if err != nil {
		return "", fmt.Errorf("netbios dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := conn.Write(EncodeNodeStatusQuery(transactionID)); err != nil {
		return "", fmt.Errorf("netbios write: %w", err)
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("netbios read: %w", err)
	}

	entries, err := ParseNodeStatus(buf[:n])
	if err != nil {
		return "", err
	}
	return WorkstationName(entries)
}
