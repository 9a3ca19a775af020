package constants

const (
	// Settings keys
	SettingBaseURL        = "base_url"
	SettingUserID         = "user_id"
	SettingLocale         = "locale"
	SettingDefaultPeriod  = "default_period"
	SettingTimezone       = "timezone"
	SettingDeleteWindowMs = "delete_window_ms"

	// Default Settings Values
	DefaultBaseURL        = "http://localhost:8080/api"
	DefaultUserID         = "mock-user"
	DefaultLocale         = "ru-RU"
	DefaultPeriod         = PeriodMonth
	DefaultTimezone       = "Local" // Use system local timezone by default
	DefaultDeleteWindowMs = 300
)
