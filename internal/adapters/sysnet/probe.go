package sysnet

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// discardPort is the UDP fallback target; nothing needs to listen there,
// the datagram only has to trigger address resolution.
const discardPort = 9

// Prober sends an ICMP echo when raw sockets are available and a single
// UDP datagram otherwise. Either way the kernel resolves the neighbor.
type Prober struct {
	once   sync.Once
	icmp   net.PacketConn
	seq    atomic.Uint32
	id     uint16
	noICMP bool
}

// NewProber returns a prober; the raw socket is opened lazily.
func NewProber() *Prober {
	return &Prober{id: uint16(os.Getpid() & 0xffff)}
}

// Probe implements ports.Prober.
func (p *Prober) Probe(ctx context.Context, ip net.IP) error {
	p.once.Do(func() {
		conn, err := net.ListenPacket("ip4:icmp", "0.0.0.0")
		if err != nil {
			p.noICMP = true
			return
		}
		p.icmp = conn
	})

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(100 * time.Millisecond)
	}
	if p.noICMP {
		return p.probeUDP(ctx, ip, deadline)
	}

	pkt, err := EchoRequest(p.id, uint16(p.seq.Add(1)))
	if err != nil {
		return err
	}
	if _, err := p.icmp.WriteTo(pkt, &net.IPAddr{IP: ip}); err != nil {
		return fmt.Errorf("icmp echo %s: %w", ip, err)
	}
	return nil
}

func (p *Prober) probeUDP(ctx context.Context, ip net.IP, deadline time.Time) error {
	d := net.Dialer{Deadline: deadline}
	conn, err := d.DialContext(ctx, "udp4", net.JoinHostPort(ip.String(), fmt.Sprint(discardPort)))
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write([]byte{0})
	return err
}

// Close releases the raw socket.
func (p *Prober) Close() error {
	if p.icmp != nil {
		return p.icmp.Close()
	}
	return nil
}

// EchoRequest serializes an ICMPv4 echo request with a checksum.
func EchoRequest(id, seq uint16) ([]byte, error) {
	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
		Id:       id,
		Seq:      seq,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, icmp, gopacket.Payload([]byte("netguard"))); err != nil {
		return nil, fmt.Errorf("serialize echo: %w", err)
	}
	return buf.Bytes(), nil
}
