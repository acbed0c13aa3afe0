// Package natsbus forwards alerts to a NATS subject.
package natsbus

import (
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// DefaultSubject is used when none is configured.
const DefaultSubject = "netguard.alerts"

// Message is the JSON body published for each alert.
type Message struct {
	Host  string       `json:"host"`
	Alert domain.Alert `json:"alert"`
}

// Publisher is an alert subscriber that republishes every alert on NATS.
type Publisher struct {
	nc      *nats.Conn
	subject string
	host    string
}

// NewPublisher connects to url. The connection reconnects on its own.
func NewPublisher(url, subject string) (*Publisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("netguard"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", url)
	host, _ := os.Hostname()
	return &Publisher{nc: nc, subject: subject, host: host}, nil
}

// NotifyAlert publishes the alert. Failures are logged, never returned.
func (p *Publisher) NotifyAlert(alert domain.Alert) {
	data, err := encode(p.host, alert)
	if err != nil {
		slog.Warn("alert encode failed", "error", err)
		return
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		slog.Warn("alert publish failed", "subject", p.subject, "error", err)
	}
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}

func encode(host string, alert domain.Alert) ([]byte, error) {
	return json.Marshal(Message{Host: host, Alert: alert})
}

var _ ports.AlertSubscriber = (*Publisher)(nil)
