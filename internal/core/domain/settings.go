package domain

import (
	"fmt"
	"strconv"
)

// DefaultRetentionDays bounds history cleanup when the setting is unset or invalid.
const DefaultRetentionDays = 30

// Settings is the flat toggle record shared with the presentation layer.
type Settings struct {
	Theme            string `json:"theme"`
	AccentColor      string `json:"accentColor"`
	MinimizeToTray   bool   `json:"minimizeToTray"`
	StartWithWindows bool   `json:"startWithWindows"`
	ShowMiniGraph    bool   `json:"showMiniGraph"`
	AskToConnect     bool   `json:"askToConnect"`
	LockdownMode     bool   `json:"lockdownMode"`
	RetentionDays    int    `json:"retentionDays"`
	AlertSounds      bool   `json:"alertSounds"`
	NotifyNewDevice  bool   `json:"notifyNewDevice"`
	NotifyNewApp     bool   `json:"notifyNewApp"`
	NotifyEvilTwin   bool   `json:"notifyEvilTwin"`
	NotifyRDP        bool   `json:"notifyRDP"`
	HideLocalTraffic bool   `json:"hideLocalTraffic"`
}

// DefaultSettings returns the record used for every absent key.
func DefaultSettings() Settings {
	return Settings{
		Theme:            "dark",
		AccentColor:      "#0ea5e9",
		MinimizeToTray:   true,
		StartWithWindows: false,
		ShowMiniGraph:    false,
		AskToConnect:     false,
		LockdownMode:     false,
		RetentionDays:    DefaultRetentionDays,
		AlertSounds:      true,
		NotifyNewDevice:  true,
		NotifyNewApp:     true,
		NotifyEvilTwin:   true,
		NotifyRDP:        true,
		HideLocalTraffic: true,
	}
}

// EffectiveRetentionDays never returns a non-positive window.
func (s Settings) EffectiveRetentionDays() int {
	if s.RetentionDays <= 0 {
		return DefaultRetentionDays
	}
	return s.RetentionDays
}

// ToMap flattens the record into the string k/v form kept in storage.
func (s Settings) ToMap() map[string]string {
	return map[string]string{
		"theme":            s.Theme,
		"accentColor":      s.AccentColor,
		"minimizeToTray":   strconv.FormatBool(s.MinimizeToTray),
		"startWithWindows": strconv.FormatBool(s.StartWithWindows),
		"showMiniGraph":    strconv.FormatBool(s.ShowMiniGraph),
		"askToConnect":     strconv.FormatBool(s.AskToConnect),
		"lockdownMode":     strconv.FormatBool(s.LockdownMode),
		"retentionDays":    strconv.Itoa(s.RetentionDays),
		"alertSounds":      strconv.FormatBool(s.AlertSounds),
		"notifyNewDevice":  strconv.FormatBool(s.NotifyNewDevice),
		"notifyNewApp":     strconv.FormatBool(s.NotifyNewApp),
		"notifyEvilTwin":   strconv.FormatBool(s.NotifyEvilTwin),
		"notifyRDP":        strconv.FormatBool(s.NotifyRDP),
		"hideLocalTraffic": strconv.FormatBool(s.HideLocalTraffic),
	}
}

// SettingsFromMap rebuilds a record from stored k/v pairs; absent or
// unparsable keys keep their default.
func SettingsFromMap(kv map[string]string) Settings {
	s := DefaultSettings()
	str := func(key string, dst *string) {
		if v, ok := kv[key]; ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := kv[key]; ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("theme", &s.Theme)
	str("accentColor", &s.AccentColor)
	boolean("minimizeToTray", &s.MinimizeToTray)
	boolean("startWithWindows", &s.StartWithWindows)
	boolean("showMiniGraph", &s.ShowMiniGraph)
	boolean("askToConnect", &s.AskToConnect)
	boolean("lockdownMode", &s.LockdownMode)
	boolean("alertSounds", &s.AlertSounds)
	boolean("notifyNewDevice", &s.NotifyNewDevice)
	boolean("notifyNewApp", &s.NotifyNewApp)
	boolean("notifyEvilTwin", &s.NotifyEvilTwin)
	boolean("notifyRDP", &s.NotifyRDP)
	boolean("hideLocalTraffic", &s.HideLocalTraffic)
	if v, ok := kv["retentionDays"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.RetentionDays = n
		}
	}
	return s
}

// SettingsPatch converts a partial JSON object into stored k/v pairs.
// Unknown keys are ignored; a value of the wrong type is an error.
func SettingsPatch(patch map[string]any) (map[string]string, error) {
	known := DefaultSettings().ToMap()
	out := make(map[string]string, len(patch))
	for key, raw := range patch {
		def, ok := known[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case bool:
			if _, err := strconv.ParseBool(def); err != nil {
				return nil, fmt.Errorf("%w: %s is not a toggle", ErrInvalidSetting, key)
			}
			out[key] = strconv.FormatBool(v)
		case float64:
			if key != "retentionDays" {
				return nil, fmt.Errorf("%w: %s is not numeric", ErrInvalidSetting, key)
			}
			out[key] = strconv.Itoa(int(v))
		case string:
			if key == "retentionDays" {
				if _, err := strconv.Atoi(v); err != nil {
					return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidSetting, key)
				}
			} else if _, err := strconv.ParseBool(def); err == nil {
				if _, err := strconv.ParseBool(v); err != nil {
					return nil, fmt.Errorf("%w: %s must be a boolean", ErrInvalidSetting, key)
				}
			}
			out[key] = v
		default:
			return nil, fmt.Errorf("%w: unsupported value for %s", ErrInvalidSetting, key)
		}
	}
	return out, nil
}
