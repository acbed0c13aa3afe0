package analytics

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

func TestConnectionRowMatchesTableColumns(t *testing.T) {
	now := time.Now()
	row := connectionRow("host-a", domain.ConnectionLogEntry{
		Timestamp:     now,
		ProcessName:   "curl",
		ProcessPath:   "/usr/bin/curl",
		RemoteAddress: "1.1.1.1",
		RemotePort:    443,
		Protocol:      domain.ProtocolTCP,
		BytesSent:     10,
		BytesReceived: 20,
	})

	require.Len(t, row, 11)
	assert.Equal(t, now, row[0])
	assert.Equal(t, "host-a", row[1])
	assert.Equal(t, uint16(443), row[5])
	assert.Equal(t, uint64(20), row[10])
}

func TestNewClickHouseMirrorUnreachable(t *testing.T) {
	// grab a free port and close it so nothing listens there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = NewClickHouseMirror(ctx, Config{Addr: addr, Database: "default"})
	assert.Error(t, err)
}
