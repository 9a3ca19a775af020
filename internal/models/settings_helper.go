package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/perfassist/internal/constants"
)

// DefaultSettings returns the settings written by `perfassist init`.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:        constants.DefaultBaseURL,
		UserID:         constants.DefaultUserID,
		Locale:         constants.DefaultLocale,
		DefaultPeriod:  constants.DefaultPeriod,
		Timezone:       constants.DefaultTimezone,
		DeleteWindowMs: constants.DefaultDeleteWindowMs,
	}
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Keys missing from the map keep their default value.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingBaseURL:
			settings.BaseURL = value
		case constants.SettingUserID:
			settings.UserID = value
		case constants.SettingLocale:
			settings.Locale = value
		case constants.SettingDefaultPeriod:
			settings.DefaultPeriod = value
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingDeleteWindowMs:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", constants.SettingDeleteWindowMs, err)
			}
			settings.DeleteWindowMs = n
		}
	}

	return settings, nil
}

// SettingsToMap converts a Settings struct into key-value rows for storage.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingBaseURL:        settings.BaseURL,
		constants.SettingUserID:         settings.UserID,
		constants.SettingLocale:         settings.Locale,
		constants.SettingDefaultPeriod:  settings.DefaultPeriod,
		constants.SettingTimezone:       settings.Timezone,
		constants.SettingDeleteWindowMs: strconv.Itoa(settings.DeleteWindowMs),
	}
}
