// Package websocket pushes live connection and traffic snapshots to dashboards.
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// UpdateInterval is the push period of the update stream.
const UpdateInterval = time.Second

const (
	writeWait = 5 * time.Second
	sendQueue = 16
)

// UpdateMessage is pushed once per interval.
type UpdateMessage struct {
	Type        string              `json:"type"`
	Connections []domain.Connection `json:"connections"`
	Traffic     domain.TrafficStats `json:"traffic"`
	Timestamp   int64               `json:"timestamp"`
}

// AlertMessage is pushed for every alert.
type AlertMessage struct {
	Type    string       `json:"type"`
	Payload domain.Alert `json:"payload"`
}

// client owns one socket. Only its write loop touches the connection for
// data frames; a client whose queue fills up is dropped.
type client struct {
	id   string
	conn *ws.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) writeLoop(send <-chan []byte, onError func()) {
	for {
		select {
		case <-c.done:
			return
		case data := <-send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				onError()
				return
			}
		}
	}
}

// Manager tracks dashboard sockets and broadcasts to them.
type Manager struct {
	Query ports.QueryService

	upgrader ws.Upgrader
	clients  map[*ws.Conn]*client
	mu       sync.Mutex
}

// NewManager builds a manager. Origins are accepted when they are absent,
// loopback, or listed in allowedOrigins.
func NewManager(query ports.QueryService, allowedOrigins ...string) *Manager {
	m := &Manager{
		Query:   query,
		clients: make(map[*ws.Conn]*client),
	}
	m.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}
	return m
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if origin == a {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err == nil && (u.Hostname() == "localhost" || domain.IsLoopback(u.Hostname())) {
		return true
	}
	log.Printf("WebSocket: Rejected origin: %s", origin)
	return false
}

// Start runs the update loop until ctx ends.
func (m *Manager) Start(ctx context.Context) {
	ticker := time.NewTicker(UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.C:
			if m.ClientCount() == 0 {
				continue
			}
			m.broadcastUpdate(ctx)
		}
	}
}

func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendQueue),
		done: make(chan struct{}),
	}
	m.mu.Lock()
	m.clients[conn] = c
	m.mu.Unlock()
	go c.writeLoop(c.send, func() { m.remove(conn) })

	log.Printf("WebSocket connected: client=%s remote=%s", c.id, r.RemoteAddr)

	go func() {
		defer m.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (m *Manager) remove(conn *ws.Conn) {
	m.mu.Lock()
	c, ok := m.clients[conn]
	delete(m.clients, conn)
	m.mu.Unlock()
	conn.Close()
	if ok {
		c.stop()
		log.Printf("WebSocket disconnected: client=%s", c.id)
	}
}

// ClientCount returns the number of connected sockets.
func (m *Manager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *Manager) broadcastUpdate(ctx context.Context) {
	conns, err := m.Query.Connections(ctx, nil)
	if err != nil {
		log.Println("Error getting connections:", err)
		return
	}
	traffic := m.Query.Traffic(ctx)
	if conns == nil {
		conns = []domain.Connection{}
	}
	m.broadcast(UpdateMessage{
		Type:        "update",
		Connections: conns,
		Traffic:     traffic,
		Timestamp:   time.Now().UnixMilli(),
	})
}

// NotifyAlert forwards an alert to every client.
func (m *Manager) NotifyAlert(alert domain.Alert) {
	m.broadcast(AlertMessage{Type: "alert", Payload: alert})
}

func (m *Manager) broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}

	m.mu.Lock()
	targets := make([]*client, 0, len(m.clients))
	for _, c := range m.clients {
		targets = append(targets, c)
	}
	m.mu.Unlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			log.Printf("WebSocket: client=%s too slow, dropping", c.id)
			m.remove(c.conn)
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[*ws.Conn]*client)
	m.mu.Unlock()

	for conn, c := range clients {
		c.stop()
		conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseGoingAway, "shutdown"), time.Now().Add(time.Second))
		conn.Close()
	}
}

var _ ports.AlertSubscriber = (*Manager)(nil)
