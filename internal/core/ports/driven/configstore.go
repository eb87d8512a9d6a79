package driven

// ConfigStore is the persisted key/value layer behind AppSettings.
// Keys are dotted paths such as "llm.api_key" or "vector.url".
type ConfigStore interface {
	// Get returns the raw value stored under key and whether it was present.
	Get(key string) (any, bool)

	// GetString returns "" for missing or non-string values.
	GetString(key string) string

	// GetInt returns 0 for missing or non-numeric values.
	GetInt(key string) int

	// Set writes value under key and flushes the store.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path identifies where the settings live, for display.
	Path() string
}
