package driving

import "github.com/custodia-labs/healthlens/internal/core/domain"

// SettingsService reads and edits the persisted configuration by dotted key.
type SettingsService interface {
	// Get returns the stored settings layered over the defaults.
	Get() (*domain.AppSettings, error)

	// Set validates value for key before persisting it.
	Set(key, value string) error

	// Keys lists the keys Set accepts.
	Keys() []string

	GetDefaults() domain.AppSettings
}
