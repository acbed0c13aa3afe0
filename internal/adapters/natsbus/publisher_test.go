package natsbus

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

func TestEncode(t *testing.T) {
	alert := domain.Alert{
		ID:        7,
		Type:      domain.AlertNewApp,
		Severity:  domain.SeverityMedium,
		Title:     "New Application Network Access",
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := encode("box", alert)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "box", msg.Host)
	assert.Equal(t, int64(7), msg.Alert.ID)
	assert.Equal(t, domain.AlertNewApp, msg.Alert.Type)
}

func TestNewPublisherUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	_, err = NewPublisher("nats://"+addr, "")
	assert.Error(t, err)
}
