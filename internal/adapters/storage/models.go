package storage

import "time"

// SettingModel is one key of the flat settings record.
type SettingModel struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (SettingModel) TableName() string { return "settings" }

// AlertModel stores an alert; Data is JSON encoded.
type AlertModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	Type      string
	Severity  string
	Title     string
	Message   string
	Data      string
	Timestamp time.Time `gorm:"index"`
	Read      bool
}

func (AlertModel) TableName() string { return "alerts" }

// TrafficPointModel is one host-wide traffic sample.
type TrafficPointModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Timestamp time.Time `gorm:"index"`
	Download  uint64
	Upload    uint64
}

func (TrafficPointModel) TableName() string { return "traffic_history" }

// AppUsageModel aggregates one application's usage for one day.
type AppUsageModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Date          string `gorm:"uniqueIndex:idx_app_usage_day_path"`
	ProcessPath   string `gorm:"uniqueIndex:idx_app_usage_day_path"`
	ProcessName   string
	BytesSent     uint64
	BytesReceived uint64
	Connections   int64
}

func (AppUsageModel) TableName() string { return "app_usage" }

// DeviceModel is a LAN host keyed by MAC.
type DeviceModel struct {
	MAC        string `gorm:"column:mac;primaryKey"`
	IP         string `gorm:"column:ip"`
	Hostname   string
	Vendor     string
	CustomName string
	FirstSeen  time.Time
	LastSeen   time.Time `gorm:"index"`
	IsOnline   bool
}

func (DeviceModel) TableName() string { return "devices" }

// KnownAppModel is an application path with its decision.
type KnownAppModel struct {
	Path      string `gorm:"primaryKey"`
	Name      string
	Allowed   bool
	FirstSeen time.Time
}

func (KnownAppModel) TableName() string { return "known_apps" }

// ConnectionLogModel is one logged connection.
type ConnectionLogModel struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	Timestamp     time.Time `gorm:"index"`
	ProcessName   string
	ProcessPath   string `gorm:"index"`
	RemoteAddress string
	RemotePort    uint32
	RemoteHost    string
	Country       string
	Protocol      string
	BytesSent     uint64
	BytesReceived uint64
}

func (ConnectionLogModel) TableName() string { return "connection_log" }

func allModels() []any {
	return []any{
		&SettingModel{},
		&AlertModel{},
		&TrafficPointModel{},
		&AppUsageModel{},
		&DeviceModel{},
		&KnownAppModel{},
		&ConnectionLogModel{},
	}
}
