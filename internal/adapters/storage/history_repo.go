package storage

import (
	"context"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const logBatchSize = 100

func (a *SQLiteAdapter) SaveTrafficPoint(ctx context.Context, point domain.TrafficPoint) error {
	m := TrafficPointModel{Timestamp: point.Timestamp, Download: point.Download, Upload: point.Upload}
	return a.db.WithContext(ctx).Create(&m).Error
}

// GetTrafficHistory returns samples since the given time, oldest first.
func (a *SQLiteAdapter) GetTrafficHistory(ctx context.Context, since time.Time) ([]domain.TrafficPoint, error) {
	return a.trafficWhere(ctx, "timestamp >= ?", since)
}

// GetTrafficRange returns samples inside [start, end], oldest first.
func (a *SQLiteAdapter) GetTrafficRange(ctx context.Context, start, end time.Time) ([]domain.TrafficPoint, error) {
	return a.trafficWhere(ctx, "timestamp >= ? AND timestamp <= ?", start, end)
}

func (a *SQLiteAdapter) trafficWhere(ctx context.Context, query string, args ...any) ([]domain.TrafficPoint, error) {
	var models []TrafficPointModel
	if err := a.db.WithContext(ctx).Where(query, args...).Order("timestamp asc").Find(&models).Error; err != nil {
		return nil, err
	}
	points := make([]domain.TrafficPoint, len(models))
	for i, m := range models {
		points[i] = domain.TrafficPoint{Timestamp: m.Timestamp, Download: m.Download, Upload: m.Upload}
	}
	return points, nil
}

func (a *SQLiteAdapter) PruneTrafficHistory(ctx context.Context, before time.Time) (int64, error) {
	res := a.db.WithContext(ctx).Where("timestamp < ?", before).Delete(&TrafficPointModel{})
	return res.RowsAffected, res.Error
}

// AddAppUsage adds the connection's bytes to the application's row for date
// and counts one more connection.
func (a *SQLiteAdapter) AddAppUsage(ctx context.Context, date string, conn domain.Connection) error {
	m := AppUsageModel{
		Date:          date,
		ProcessPath:   conn.ProcessPath,
		ProcessName:   conn.ProcessName,
		BytesSent:     conn.BytesSent,
		BytesReceived: conn.BytesReceived,
		Connections:   1,
	}
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "process_path"}},
		DoUpdates: clause.Assignments(map[string]any{
			"process_name":   gorm.Expr("excluded.process_name"),
			"bytes_sent":     gorm.Expr("app_usage.bytes_sent + excluded.bytes_sent"),
			"bytes_received": gorm.Expr("app_usage.bytes_received + excluded.bytes_received"),
			"connections":    gorm.Expr("app_usage.connections + 1"),
		}),
	}).Create(&m).Error
}

// GetAppUsage sums usage per application over every day on or after since.
func (a *SQLiteAdapter) GetAppUsage(ctx context.Context, since string) ([]domain.AppUsage, error) {
	var rows []domain.AppUsage
	err := a.db.WithContext(ctx).Model(&AppUsageModel{}).
		Select("MAX(process_name) AS process_name, process_path, "+
			"SUM(bytes_sent) AS bytes_sent, SUM(bytes_received) AS bytes_received, "+
			"SUM(connections) AS connections").
		Where("date >= ?", since).
		Group("process_path").
		Order("SUM(bytes_sent + bytes_received) DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveConnectionLogs writes entries in batches inside one transaction.
func (a *SQLiteAdapter) SaveConnectionLogs(ctx context.Context, entries []domain.ConnectionLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]ConnectionLogModel, len(entries))
	for i, e := range entries {
		models[i] = logToModel(e)
	}
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(models, logBatchSize).Error
	})
}

// GetConnectionLogs returns entries inside [start, end], newest first.
func (a *SQLiteAdapter) GetConnectionLogs(ctx context.Context, start, end time.Time, limit int) ([]domain.ConnectionLogEntry, error) {
	var models []ConnectionLogModel
	err := a.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start, end).
		Order("timestamp desc").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entries := make([]domain.ConnectionLogEntry, len(models))
	for i, m := range models {
		entries[i] = logToDomain(m)
	}
	return entries, nil
}

func (a *SQLiteAdapter) PruneConnectionLogs(ctx context.Context, before time.Time) (int64, error) {
	res := a.db.WithContext(ctx).Where("timestamp < ?", before).Delete(&ConnectionLogModel{})
	return res.RowsAffected, res.Error
}
