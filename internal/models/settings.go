package models

// Settings represents application-wide settings
type Settings struct {
	BaseURL        string `json:"base_url"`         // entry store base URL, e.g. "http://localhost:8080/api"
	UserID         string `json:"user_id"`          // owner id sent with every entry request
	Locale         string `json:"locale"`           // BCP 47 tag used for date labels, e.g. "ru-RU"
	DefaultPeriod  string `json:"default_period"`   // week, month or quarter
	Timezone       string `json:"timezone"`         // IANA timezone name, or "Local" for system timezone
	DeleteWindowMs int    `json:"delete_window_ms"` // how long a single delete intent waits for its sibling
}
