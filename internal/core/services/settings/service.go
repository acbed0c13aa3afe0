// Package settings keeps the current settings record in memory and in storage.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// Service caches the settings record so periodic tasks can read it without
// touching storage on every tick.
type Service struct {
	store   ports.SettingsStore
	mu      sync.RWMutex
	current domain.Settings
}

// NewService starts from defaults until Load is called.
func NewService(store ports.SettingsStore) *Service {
	return &Service{store: store, current: domain.DefaultSettings()}
}

// Load reads the stored record.
func (s *Service) Load(ctx context.Context) (domain.Settings, error) {
	loaded, err := s.store.GetSettings(ctx)
	if err != nil {
		return s.Current(), fmt.Errorf("load settings: %w", err)
	}
	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return loaded, nil
}

// Current returns the cached record.
func (s *Service) Current() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies a partial record and returns the result.
func (s *Service) Update(ctx context.Context, patch map[string]any) (domain.Settings, error) {
	kv, err := domain.SettingsPatch(patch)
	if err != nil {
		return s.Current(), err
	}
	if len(kv) > 0 {
		if err := s.store.SaveSettings(ctx, kv); err != nil {
			return s.Current(), fmt.Errorf("save settings: %w", err)
		}
	}
	return s.Load(ctx)
}
