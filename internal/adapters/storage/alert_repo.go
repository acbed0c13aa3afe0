package storage

import (
	"context"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"gorm.io/gorm"
)

// SaveAlert inserts the alert and keeps only the newest max rows.
func (a *SQLiteAdapter) SaveAlert(ctx context.Context, alert domain.Alert, max int) (int64, error) {
	model := alertToModel(alert)
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if max <= 0 {
			return nil
		}
		return tx.Exec(
			"DELETE FROM alerts WHERE id NOT IN (SELECT id FROM alerts ORDER BY id DESC LIMIT ?)", max,
		).Error
	})
	if err != nil {
		return 0, err
	}
	return model.ID, nil
}

// GetAlerts returns the newest alerts first.
func (a *SQLiteAdapter) GetAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	var models []AlertModel
	if err := a.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	alerts := make([]domain.Alert, len(models))
	for i, m := range models {
		alerts[i] = alertToDomain(m)
	}
	return alerts, nil
}

func (a *SQLiteAdapter) MarkAlertRead(ctx context.Context, id int64) error {
	res := a.db.WithContext(ctx).Model(&AlertModel{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (a *SQLiteAdapter) ClearAlerts(ctx context.Context) error {
	return a.db.WithContext(ctx).Where("1 = 1").Delete(&AlertModel{}).Error
}
