package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadArgs_Defaults(t *testing.T) {
	t.Setenv("NETGUARD_CONFIG", "")
	cfg, err := LoadArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, time.Second, cfg.Intervals.Connections)
	assert.Equal(t, 5*time.Minute, cfg.Intervals.PortSweep)
	assert.Equal(t, "netguard.alerts", cfg.NATSSubject)
	assert.Empty(t, cfg.FirewallAddr)
	assert.Empty(t, cfg.ClickHouse.Addr)
}

func TestLoadArgs_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: 0.0.0.0:9000
db_path: /tmp/from-file.db
nats_url: nats://file:4222
intervals:
  devices: 20s
clickhouse:
  addr: ch:9000
`), 0o644))

	t.Setenv("NETGUARD_CONFIG", path)
	t.Setenv("NETGUARD_DB", "/tmp/from-env.db")
	t.Setenv("NETGUARD_NATS_URL", "nats://env:4222")
	t.Setenv("NETGUARD_DEBUG", "true")

	cfg, err := LoadArgs([]string{"-nats", "nats://flag:4222"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "/tmp/from-env.db", cfg.DBPath)
	assert.Equal(t, "nats://flag:4222", cfg.NATSURL)
	assert.Equal(t, 20*time.Second, cfg.Intervals.Devices)
	// untouched by the file
	assert.Equal(t, 30*time.Second, cfg.Intervals.OfflineSweep)
	assert.Equal(t, "ch:9000", cfg.ClickHouse.Addr)
	assert.Equal(t, "default", cfg.ClickHouse.Database)
	assert.True(t, cfg.Debug)
}

func TestLoadArgs_ConfigFlag(t *testing.T) {
	t.Setenv("NETGUARD_CONFIG", "")
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_token: abc\n"), 0o644))

	cfg, err := LoadArgs([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.APIToken)
}

func TestLoadArgs_Errors(t *testing.T) {
	t.Setenv("NETGUARD_CONFIG", "")

	_, err := LoadArgs([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	t.Setenv("NETGUARD_POLL_DEVICES", "0s")
	_, err = LoadArgs(nil)
	assert.ErrorContains(t, err, "devices")
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("NETGUARD_TEST_INT", "x")
	t.Setenv("NETGUARD_TEST_DUR", "soon")
	t.Setenv("NETGUARD_TEST_BOOL", "maybe")

	assert.Equal(t, 7, getEnvInt("NETGUARD_TEST_INT", 7))
	assert.Equal(t, time.Minute, getEnvDuration("NETGUARD_TEST_DUR", time.Minute))
	assert.True(t, getEnvBool("NETGUARD_TEST_BOOL", true))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}

func TestLoadArgs_TraceSample(t *testing.T) {
	t.Setenv("NETGUARD_CONFIG", "")

	cfg, err := LoadArgs([]string{"-trace-sample", "0.25"})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cfg.TraceSample, 1e-9)

	_, err = LoadArgs([]string{"-trace-sample", "2"})
	assert.ErrorContains(t, err, "trace_sample")
}
