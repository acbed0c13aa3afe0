package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// SQLiteAdapter implements ports.Storage using GORM and SQLite.
type SQLiteAdapter struct {
	db   *gorm.DB
	path string
}

// NewSQLiteAdapter opens the database at path and migrates the schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, fmt.Errorf("install tracing plugin: %w", err)
	}

	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	db.Exec("CREATE INDEX IF NOT EXISTS idx_app_usage_date ON app_usage(date)")

	return &SQLiteAdapter{db: db, path: path}, nil
}

// GetSettings returns the stored record with defaults for absent keys.
func (a *SQLiteAdapter) GetSettings(ctx context.Context) (domain.Settings, error) {
	var rows []SettingModel
	if err := a.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return domain.DefaultSettings(), err
	}
	kv := make(map[string]string, len(rows))
	for _, r := range rows {
		kv[r.Key] = r.Value
	}
	return domain.SettingsFromMap(kv), nil
}

// SaveSettings upserts the given keys in one transaction.
func (a *SQLiteAdapter) SaveSettings(ctx context.Context, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	rows := make([]SettingModel, 0, len(kv))
	for k, v := range kv {
		rows = append(rows, SettingModel{Key: k, Value: v})
	}
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&rows).Error
	})
}

// Stats counts rows per table and reports the file size.
func (a *SQLiteAdapter) Stats(ctx context.Context) (domain.DBStats, error) {
	stats := domain.DBStats{Tables: make(map[string]int64), Path: a.path}
	db := a.db.WithContext(ctx)
	for _, m := range allModels() {
		table := m.(schema.Tabler).TableName()
		var n int64
		if err := db.Model(m).Count(&n).Error; err != nil {
			return stats, fmt.Errorf("count %s: %w", table, err)
		}
		stats.Tables[table] = n
	}
	if fi, err := os.Stat(a.path); err == nil {
		stats.Size = fi.Size()
	}
	return stats, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.Storage = (*SQLiteAdapter)(nil)
