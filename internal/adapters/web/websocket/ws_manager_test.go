package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

type stubQuery struct {
	ports.QueryService
}

func (stubQuery) Connections(context.Context, *bool) ([]domain.Connection, error) {
	return []domain.Connection{{ID: "a", ProcessName: "curl"}}, nil
}

func (stubQuery) Traffic(context.Context) domain.TrafficStats {
	return domain.TrafficStats{Download: 42}
}

func dial(t *testing.T, m *Manager) *ws.Conn {
	t.Helper()
	srv := httptest.NewServer(httpHandler(m))
	t.Cleanup(srv.Close)

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestManager_PushesUpdates(t *testing.T) {
	m := NewManager(stubQuery{})
	conn := dial(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "update", msg.Type)
	assert.Len(t, msg.Connections, 1)
	assert.Equal(t, uint64(42), msg.Traffic.Download)
	assert.NotZero(t, msg.Timestamp)
}

func TestManager_NotifyAlert(t *testing.T) {
	m := NewManager(stubQuery{})
	conn := dial(t, m)

	m.NotifyAlert(domain.Alert{ID: 3, Type: domain.AlertNewApp, Title: "New Application Detected"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg AlertMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "alert", msg.Type)
	assert.Equal(t, int64(3), msg.Payload.ID)
}

func TestManager_DropsClosedClients(t *testing.T) {
	m := NewManager(stubQuery{})
	conn := dial(t, m)
	conn.Close()

	assert.Eventually(t, func() bool { return m.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestManager_SlowClientDoesNotBlockAlerts(t *testing.T) {
	m := NewManager(stubQuery{})
	conn := dial(t, m)

	// nothing drains this queue, as if the socket were stuck
	m.mu.Lock()
	for _, c := range m.clients {
		c.send = make(chan []byte)
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.NotifyAlert(domain.Alert{ID: 1, Type: domain.AlertNewDevice})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyAlert blocked on a stalled client")
	}
	assert.Equal(t, 0, m.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "dropped client sees its socket closed")
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://dash.example.org"}
	assert.True(t, originAllowed("", allowed))
	assert.True(t, originAllowed("http://localhost:3000", allowed))
	assert.True(t, originAllowed("http://127.0.0.1:8080", allowed))
	assert.True(t, originAllowed("https://dash.example.org", allowed))
	assert.False(t, originAllowed("https://evil.example.com", allowed))
}

func httpHandler(m *Manager) http.Handler {
	return http.HandlerFunc(m.HandleWebSocket)
}
