// Package cli implements the healthlens command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driving"
	"github.com/custodia-labs/healthlens/internal/core/services"
	"github.com/custodia-labs/healthlens/internal/logger"
	"github.com/custodia-labs/healthlens/internal/runtime"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var (
	verbose   bool
	logFile   string
	userFlag  string
	configDir string
	dataDir   string
)

// settingsService reads and writes the config file. It is created on first
// use from --config; tests assign it directly.
var settingsService driving.SettingsService

// openRuntime builds the services for one command.
var openRuntime = func(ctx context.Context, settings domain.AppSettings) (*runtime.Runtime, error) {
	return runtime.Open(ctx, settings)
}

// logCloser is the --log-file tee for the running command.
var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:   "healthlens",
	Short: "Ask questions about your medical reports",
	Long: `healthlens ingests lab reports (pdf, images, text), extracts the
standard lab parameters and answers symptom questions grounded in your own
reports.

Every command acts for one user, taken from --user or HEALTHLENS_USER.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupLogging,
	PersistentPostRunE: closeLogging,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	flags.StringVar(&logFile, "log-file", "", "also write log output to this file")
	flags.StringVarP(&userFlag, "user", "u", "", "user the command acts for (default $HEALTHLENS_USER)")
	flags.StringVar(&configDir, "config", "", "config directory (default ~/.healthlens)")
	flags.StringVar(&dataDir, "data-dir", "", "data directory, overrides store.data_dir")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setupLogging(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if logFile == "" {
		return nil
	}
	closer, err := logger.TeeToFile(logFile)
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

func closeLogging(_ *cobra.Command, _ []string) error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

// resolveUser returns the identity every pipeline call runs as.
func resolveUser() (string, error) {
	user := strings.TrimSpace(userFlag)
	if user == "" {
		user = strings.TrimSpace(os.Getenv(services.EnvUser))
	}
	if user == "" {
		return "", fmt.Errorf("%w: no user, pass --user or set %s", domain.ErrInvalidInput, services.EnvUser)
	}
	return user, nil
}

func getSettingsService() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	svc, err := runtime.NewSettingsService(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService = svc
	return svc, nil
}

func loadSettings() (*domain.AppSettings, error) {
	svc, err := getSettingsService()
	if err != nil {
		return nil, err
	}
	settings, err := svc.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if dataDir != "" {
		settings.Store.DataDir = dataDir
	}
	return settings, nil
}

// withRuntime opens the services, runs fn and releases them.
func withRuntime(cmd *cobra.Command, fn func(*runtime.Runtime) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	logger.Debug("Opening services: store %s, vector index %s", settings.Store.Backend, settings.Vector.Backend)
	rt, err := openRuntime(cmd.Context(), *settings)
	if err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn("close services: %v", cerr)
		}
	}()

	return fn(rt)
}
