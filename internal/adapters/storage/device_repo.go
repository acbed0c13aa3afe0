package storage

import (
	"context"
	"errors"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertDevice inserts or refreshes a device. An empty hostname or vendor
// never overwrites a stored one, and first-seen is kept.
func (a *SQLiteAdapter) UpsertDevice(ctx context.Context, device domain.Device) error {
	model := deviceToModel(device)
	if model.FirstSeen.IsZero() {
		model.FirstSeen = model.LastSeen
	}
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "mac"}},
		DoUpdates: clause.Assignments(map[string]any{
			"ip":        gorm.Expr("excluded.ip"),
			"hostname":  gorm.Expr("COALESCE(NULLIF(excluded.hostname, ''), devices.hostname)"),
			"vendor":    gorm.Expr("COALESCE(NULLIF(excluded.vendor, ''), devices.vendor)"),
			"last_seen": gorm.Expr("excluded.last_seen"),
			"is_online": gorm.Expr("excluded.is_online"),
		}),
	}).Create(&model).Error
}

// GetDevice retrieves a device by MAC.
func (a *SQLiteAdapter) GetDevice(ctx context.Context, mac string) (*domain.Device, error) {
	var model DeviceModel
	if err := a.db.WithContext(ctx).First(&model, "mac = ?", mac).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	dev := deviceToDomain(model)
	return &dev, nil
}

// GetAllDevices returns every device, most recently seen first.
func (a *SQLiteAdapter) GetAllDevices(ctx context.Context) ([]domain.Device, error) {
	var models []DeviceModel
	if err := a.db.WithContext(ctx).Order("last_seen desc").Find(&models).Error; err != nil {
		return nil, err
	}
	devices := make([]domain.Device, len(models))
	for i, m := range models {
		devices[i] = deviceToDomain(m)
	}
	return devices, nil
}

// MarkOffline flags online devices last seen before the cutoff. Rows are never deleted.
func (a *SQLiteAdapter) MarkOffline(ctx context.Context, before time.Time) (int64, error) {
	res := a.db.WithContext(ctx).Model(&DeviceModel{}).
		Where("is_online = ? AND last_seen < ?", true, before).
		Update("is_online", false)
	return res.RowsAffected, res.Error
}

// SetCustomName names a device, creating a placeholder row if it was never discovered.
func (a *SQLiteAdapter) SetCustomName(ctx context.Context, mac, name string) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		placeholder := DeviceModel{MAC: mac, FirstSeen: time.Now()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
			return err
		}
		return tx.Model(&DeviceModel{}).Where("mac = ?", mac).Update("custom_name", name).Error
	})
}

// GetKnownApp returns domain.ErrNotFound for a path never recorded.
func (a *SQLiteAdapter) GetKnownApp(ctx context.Context, path string) (*domain.KnownApp, error) {
	var m KnownAppModel
	if err := a.db.WithContext(ctx).First(&m, "path = ?", path).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &domain.KnownApp{Path: m.Path, Name: m.Name, Allowed: m.Allowed, FirstSeen: m.FirstSeen}, nil
}

// SaveKnownApp records a decision; an existing row keeps its first-seen time.
func (a *SQLiteAdapter) SaveKnownApp(ctx context.Context, app domain.KnownApp) error {
	if app.FirstSeen.IsZero() {
		app.FirstSeen = time.Now()
	}
	m := KnownAppModel{Path: app.Path, Name: app.Name, Allowed: app.Allowed, FirstSeen: app.FirstSeen}
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "allowed"}),
	}).Create(&m).Error
}

func (a *SQLiteAdapter) ClearKnownApps(ctx context.Context) error {
	return a.db.WithContext(ctx).Where("1 = 1").Delete(&KnownAppModel{}).Error
}
