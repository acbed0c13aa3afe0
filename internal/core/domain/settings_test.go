package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsMapRoundTrip(t *testing.T) {
	s := DefaultSettings()
	s.Theme = "light"
	s.AskToConnect = true
	s.HideLocalTraffic = false
	s.RetentionDays = 7

	assert.Equal(t, s, SettingsFromMap(s.ToMap()))
}

func TestSettingsFromMapFillsDefaults(t *testing.T) {
	s := SettingsFromMap(map[string]string{
		"theme":         "light",
		"lockdownMode":  "not-a-bool",
		"retentionDays": "x",
	})

	want := DefaultSettings()
	want.Theme = "light"
	assert.Equal(t, want, s)
}

func TestSettingsPatch(t *testing.T) {
	kv, err := SettingsPatch(map[string]any{
		"askToConnect":  true,
		"retentionDays": float64(14),
		"accentColor":   "#ff0000",
		"unknownKey":    "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"askToConnect":  "true",
		"retentionDays": "14",
		"accentColor":   "#ff0000",
	}, kv)

	_, err = SettingsPatch(map[string]any{"theme": true})
	assert.ErrorIs(t, err, ErrInvalidSetting)

	_, err = SettingsPatch(map[string]any{"askToConnect": float64(1)})
	assert.ErrorIs(t, err, ErrInvalidSetting)

	_, err = SettingsPatch(map[string]any{"hideLocalTraffic": "maybe"})
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestEffectiveRetentionDays(t *testing.T) {
	s := DefaultSettings()
	s.RetentionDays = 0
	assert.Equal(t, DefaultRetentionDays, s.EffectiveRetentionDays())
	s.RetentionDays = 3
	assert.Equal(t, 3, s.EffectiveRetentionDays())
}
