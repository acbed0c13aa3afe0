package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Intervals are the periods of the background loops.
type Intervals struct {
	Connections   time.Duration `yaml:"connections"`
	Traffic       time.Duration `yaml:"traffic"`
	Devices       time.Duration `yaml:"devices"`
	OfflineSweep  time.Duration `yaml:"offline_sweep"`
	PortSweep     time.Duration `yaml:"port_sweep"`
	History       time.Duration `yaml:"history"`
	ConnectionLog time.Duration `yaml:"connection_log"`
	SeenReset     time.Duration `yaml:"seen_reset"`
	CachePurge    time.Duration `yaml:"cache_purge"`
}

// ClickHouse configures the optional history mirror. An empty Addr disables it.
type ClickHouse struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config holds all application configuration.
type Config struct {
	Addr          string        `yaml:"addr"`
	DBPath        string        `yaml:"db_path"`
	OUIDBPath     string        `yaml:"oui_db_path"`
	OUISourceURL  string        `yaml:"oui_source_url"`
	GeoIPEndpoint string        `yaml:"geoip_endpoint"`
	APIToken      string        `yaml:"api_token"`
	AllowOrigins  []string      `yaml:"allow_origins"`
	RateLimit     int           `yaml:"rate_limit"`
	Intervals     Intervals     `yaml:"intervals"`
	HostnameQueue int           `yaml:"hostname_queue"`
	GeoQueue      int           `yaml:"geo_queue"`
	PersistBuffer int           `yaml:"persist_buffer"`
	PendingTTL    time.Duration `yaml:"pending_ttl"`

	// Privileged collaborator addresses; empty disables the feature.
	FirewallAddr     string `yaml:"firewall_addr"`
	InterceptionAddr string `yaml:"interception_addr"`

	NATSURL     string     `yaml:"nats_url"`
	NATSSubject string     `yaml:"nats_subject"`
	ClickHouse  ClickHouse `yaml:"clickhouse"`

	Debug       bool    `yaml:"debug"`
	Tracing     bool    `yaml:"tracing"`
	TraceSample float64 `yaml:"trace_sample"`
}

// Default returns the configuration used before any overlay.
func Default() *Config {
	return &Config{
		Addr:          "127.0.0.1:8080",
		DBPath:        defaultDataPath("netguard.db"),
		OUIDBPath:     defaultDataPath("oui.db"),
		OUISourceURL:  "https://www.wireshark.org/download/automated/data/manuf",
		GeoIPEndpoint: "http://ip-api.com/json",
		RateLimit:     600,
		Intervals: Intervals{
			Connections:   time.Second,
			Traffic:       time.Second,
			Devices:       10 * time.Second,
			OfflineSweep:  30 * time.Second,
			PortSweep:     5 * time.Minute,
			History:       time.Minute,
			ConnectionLog: 30 * time.Second,
			SeenReset:     5 * time.Minute,
			CachePurge:    time.Minute,
		},
		HostnameQueue: 500,
		GeoQueue:      500,
		PersistBuffer: 1000,
		PendingTTL:    60 * time.Second,
		NATSSubject:   "netguard.alerts",
		ClickHouse: ClickHouse{
			Database: "default",
			Username: "default",
		},
	}
}

// Load parses the config file, environment variables and command line flags,
// in that order of increasing precedence.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load over an explicit argument list.
func LoadArgs(args []string) (*Config, error) {
	cfg := Default()

	path := getEnv("NETGUARD_CONFIG", "")
	for i, a := range args {
		if a == "-config" || a == "--config" {
			if i+1 < len(args) {
				path = args[i+1]
			}
		} else if v, ok := strings.CutPrefix(strings.TrimLeft(a, "-"), "config="); ok {
			path = v
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	fs := flag.NewFlagSet("netguard", flag.ContinueOnError)
	fs.String("config", path, "Path to YAML config file")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	fs.StringVar(&cfg.OUIDBPath, "oui-db", cfg.OUIDBPath, "Path to the OUI registry database")
	fs.StringVar(&cfg.APIToken, "token", cfg.APIToken, "API token (empty disables auth)")
	fs.StringVar(&cfg.FirewallAddr, "firewall-addr", cfg.FirewallAddr, "Firewall collaborator gRPC address")
	fs.StringVar(&cfg.InterceptionAddr, "interception-addr", cfg.InterceptionAddr, "Interception collaborator gRPC address")
	fs.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "NATS server URL for alert publishing")
	fs.StringVar(&cfg.ClickHouse.Addr, "clickhouse", cfg.ClickHouse.Addr, "ClickHouse address for the history mirror")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	fs.BoolVar(&cfg.Tracing, "tracing", cfg.Tracing, "Export OpenTelemetry spans to stdout")
	fs.Float64Var(&cfg.TraceSample, "trace-sample", cfg.TraceSample, "Fraction of root spans to keep (0 keeps all)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("NETGUARD_ADDR", c.Addr)
	c.DBPath = getEnv("NETGUARD_DB", c.DBPath)
	c.OUIDBPath = getEnv("NETGUARD_OUI_DB", c.OUIDBPath)
	c.OUISourceURL = getEnv("NETGUARD_OUI_URL", c.OUISourceURL)
	c.GeoIPEndpoint = getEnv("NETGUARD_GEOIP_ENDPOINT", c.GeoIPEndpoint)
	c.APIToken = getEnv("NETGUARD_TOKEN", c.APIToken)
	if v := getEnv("NETGUARD_ALLOW_ORIGINS", ""); v != "" {
		c.AllowOrigins = splitList(v)
	}
	c.RateLimit = getEnvInt("NETGUARD_RATE_LIMIT", c.RateLimit)
	c.HostnameQueue = getEnvInt("NETGUARD_HOSTNAME_QUEUE", c.HostnameQueue)
	c.GeoQueue = getEnvInt("NETGUARD_GEO_QUEUE", c.GeoQueue)
	c.PersistBuffer = getEnvInt("NETGUARD_PERSIST_BUFFER", c.PersistBuffer)
	c.PendingTTL = getEnvDuration("NETGUARD_PENDING_TTL", c.PendingTTL)

	c.Intervals.Connections = getEnvDuration("NETGUARD_POLL_CONNECTIONS", c.Intervals.Connections)
	c.Intervals.Traffic = getEnvDuration("NETGUARD_POLL_TRAFFIC", c.Intervals.Traffic)
	c.Intervals.Devices = getEnvDuration("NETGUARD_POLL_DEVICES", c.Intervals.Devices)
	c.Intervals.PortSweep = getEnvDuration("NETGUARD_PORT_SWEEP", c.Intervals.PortSweep)

	c.FirewallAddr = getEnv("NETGUARD_FIREWALL_ADDR", c.FirewallAddr)
	c.InterceptionAddr = getEnv("NETGUARD_INTERCEPTION_ADDR", c.InterceptionAddr)
	c.NATSURL = getEnv("NETGUARD_NATS_URL", c.NATSURL)
	c.NATSSubject = getEnv("NETGUARD_NATS_SUBJECT", c.NATSSubject)
	c.ClickHouse.Addr = getEnv("NETGUARD_CLICKHOUSE_ADDR", c.ClickHouse.Addr)
	c.ClickHouse.Database = getEnv("NETGUARD_CLICKHOUSE_DB", c.ClickHouse.Database)
	c.ClickHouse.Username = getEnv("NETGUARD_CLICKHOUSE_USER", c.ClickHouse.Username)
	c.ClickHouse.Password = getEnv("NETGUARD_CLICKHOUSE_PASSWORD", c.ClickHouse.Password)
	c.Debug = getEnvBool("NETGUARD_DEBUG", c.Debug)
	c.Tracing = getEnvBool("NETGUARD_TRACING", c.Tracing)
	if v, ok := os.LookupEnv("NETGUARD_TRACE_SAMPLE"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TraceSample = f
		}
	}
}

// Validate rejects configurations the loops cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: addr is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: db path is required")
	}
	iv := c.Intervals
	for name, d := range map[string]time.Duration{
		"connections":    iv.Connections,
		"traffic":        iv.Traffic,
		"devices":        iv.Devices,
		"offline_sweep":  iv.OfflineSweep,
		"port_sweep":     iv.PortSweep,
		"history":        iv.History,
		"connection_log": iv.ConnectionLog,
		"seen_reset":     iv.SeenReset,
		"cache_purge":    iv.CachePurge,
	} {
		if d <= 0 {
			return fmt.Errorf("config: interval %s must be positive", name)
		}
	}
	if c.TraceSample < 0 || c.TraceSample > 1 {
		return fmt.Errorf("config: trace_sample must be within [0,1]")
	}
	if c.HostnameQueue <= 0 || c.GeoQueue <= 0 {
		return fmt.Errorf("config: resolver queues must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// defaultDataPath returns name inside ~/.netguard, creating the directory.
func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return name
	}

	dir := filepath.Join(home, ".netguard")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .netguard directory, using current dir: %v", err)
		return name
	}
	return filepath.Join(dir, name)
}
