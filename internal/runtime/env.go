package runtime

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/config/file"
	"github.com/custodia-labs/healthlens/internal/core/services"
)

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// LoadEnv reads variables from the given files into the process
// environment. Missing files are skipped and existing variables win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DefaultEnvFile}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// NewSettingsService opens the TOML config in configDir (empty for
// ~/.healthlens) and returns a settings service reading it.
func NewSettingsService(configDir string) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store), nil
}
