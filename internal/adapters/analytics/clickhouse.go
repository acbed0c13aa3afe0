// Package analytics mirrors history rows into ClickHouse for long-term queries.
package analytics

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

const createTrafficTable = `
CREATE TABLE IF NOT EXISTS netguard_traffic (
    Timestamp DateTime64(3),
    Host      String,
    Download  UInt64,
    Upload    UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Host, Timestamp);
`

const createConnectionTable = `
CREATE TABLE IF NOT EXISTS netguard_connections (
    Timestamp     DateTime64(3),
    Host          String,
    ProcessName   String,
    ProcessPath   String,
    RemoteAddress String,
    RemotePort    UInt16,
    RemoteHost    String,
    Country       String,
    Protocol      LowCardinality(String),
    BytesSent     UInt64,
    BytesReceived UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Host, ProcessPath, Timestamp);
`

// Config locates the ClickHouse server.
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseMirror implements ports.HistoryMirror.
type ClickHouseMirror struct {
	conn driver.Conn
	host string
}

// NewClickHouseMirror connects, pings and ensures the tables exist.
func NewClickHouseMirror(ctx context.Context, cfg Config) (*ClickHouseMirror, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	for _, stmt := range []string{createTrafficTable, createConnectionTable} {
		if err := conn.Exec(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Printf("ClickHouse history mirror connected to %s", cfg.Addr)

	host, _ := os.Hostname()
	return &ClickHouseMirror{conn: conn, host: host}, nil
}

func (m *ClickHouseMirror) MirrorTraffic(ctx context.Context, point domain.TrafficPoint) error {
	return m.conn.Exec(ctx,
		"INSERT INTO netguard_traffic (Timestamp, Host, Download, Upload) VALUES (?, ?, ?, ?)",
		point.Timestamp, m.host, point.Download, point.Upload)
}

// MirrorConnections sends entries as one batch.
func (m *ClickHouseMirror) MirrorConnections(ctx context.Context, entries []domain.ConnectionLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch, err := m.conn.PrepareBatch(ctx, "INSERT INTO netguard_connections")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, e := range entries {
		if err := batch.Append(connectionRow(m.host, e)...); err != nil {
			return fmt.Errorf("failed to append connection to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

func (m *ClickHouseMirror) Close() error {
	return m.conn.Close()
}

// connectionRow orders the columns of netguard_connections.
func connectionRow(host string, e domain.ConnectionLogEntry) []any {
	return []any{
		e.Timestamp,
		host,
		e.ProcessName,
		e.ProcessPath,
		e.RemoteAddress,
		uint16(e.RemotePort),
		e.RemoteHost,
		e.Country,
		e.Protocol,
		e.BytesSent,
		e.BytesReceived,
	}
}

var _ ports.HistoryMirror = (*ClickHouseMirror)(nil)
