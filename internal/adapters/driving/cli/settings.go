package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/ai"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/services"
)

// Provider checks run by "settings check" and the wizard.
var (
	validateLLM       = ai.ValidateLLMConfig
	validateEmbedding = ai.ValidateEmbeddingConfig
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the chat and embedding providers, the vector index
and the report store.

Settings live in ~/.healthlens/config.toml. OPENAI_API_KEY,
OPENROUTER_API_KEY, VECTORDB_URL, QDRANT_API_KEY and MONGO_URI override the
stored values, and may be placed in a .env file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Stores one setting by its dotted key, for example:

  healthlens settings set vector.backend qdrant
  healthlens settings set llm.query_model meta-llama/llama-3.3-70b-instruct:free

Run "healthlens settings keys" for the full list. Use set-key for secrets.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key <key>",
	Short: "Store a secret without echoing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetKey,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured providers respond",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the providers and storage step by step.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider)
	cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskOrUnset(settings.LLM.APIKey))
	}
	cmd.Printf("  Query model: %s\n", settings.LLM.QueryModel)
	cmd.Printf("  Suggestion model: %s\n", settings.LLM.SuggestionModel)
	cmd.Printf("  Extraction model: %s\n", settings.LLM.ExtractionModel)
	cmd.Printf("  Requests per minute: %d\n", settings.LLM.RequestsPerMinute)
	cmd.Printf("  Timeout: %s\n", settings.LLM.Timeout)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider)
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskOrUnset(settings.Embedding.APIKey))
	}
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.Vector.Backend)
	switch settings.Vector.Backend {
	case domain.VectorBackendQdrant:
		cmd.Printf("  URL: %s\n", settings.Vector.URL)
		cmd.Printf("  Collection: %s\n", settings.Vector.Collection)
		if settings.Vector.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Vector.APIKey))
		}
	case domain.VectorBackendBolt:
		if settings.Vector.Path != "" {
			cmd.Printf("  Path: %s\n", settings.Vector.Path)
		}
	}
	cmd.Println()

	cmd.Println("[Report Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend)
	if settings.Store.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Store.DataDir)
	}
	if settings.Store.Backend == domain.StoreBackendMongo {
		cmd.Printf("  URI: %s\n", maskOrUnset(settings.Store.MongoURI))
		cmd.Printf("  Database: %s\n", settings.Store.MongoDatabase)
		cmd.Printf("  Collection: %s\n", settings.Store.MongoCollection)
	}
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Documents: %d chars, %d overlap\n", settings.Chunking.DocumentSize, settings.Chunking.DocumentOverlap)
	cmd.Printf("  OCR text: %d chars, %d overlap\n", settings.Chunking.OCRSize, settings.Chunking.OCROverlap)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}
	key, value := args[0], args[1]
	if err := svc.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if services.IsSecretKey(key) {
		shown = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, shown)
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}
	key := args[0]
	if !services.IsSecretKey(key) {
		return fmt.Errorf("%w: %s is not a secret, use \"settings set\"", domain.ErrInvalidInput, key)
	}

	cmd.Printf("Enter value for %s: ", key)
	value := readPassword(bufio.NewReader(cmd.InOrStdin()))
	cmd.Println()
	if value == "" {
		return fmt.Errorf("%w: empty value", domain.ErrInvalidInput)
	}

	if err := svc.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("%s = %s\n", key, maskAPIKey(value))
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}
	for _, key := range svc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	return checkProviders(cmd, settings)
}

func checkProviders(cmd *cobra.Command, settings *domain.AppSettings) error {
	checks := []struct {
		name string
		run  func(context.Context) error
	}{
		{"Embedding (" + settings.Embedding.Model + ")", func(ctx context.Context) error {
			return validateEmbedding(ctx, settings.Embedding)
		}},
		{"LLM (" + settings.LLM.BaseURL + ")", func(ctx context.Context) error {
			return validateLLM(ctx, settings.LLM)
		}},
	}

	var errs []error
	for _, c := range checks {
		cmd.Printf("%s... ", c.name)
		if err := c.run(cmd.Context()); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			errs = append(errs, err)
			continue
		}
		cmd.Println("OK")
	}
	if len(errs) > 0 {
		return fmt.Errorf("provider check failed: %w", errors.Join(errs...))
	}
	return nil
}

type wizardStep struct {
	key     string
	prompt  string
	choices []string
	secret  bool
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}
	current, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("healthlens Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())
	steps := []wizardStep{
		{key: "llm.provider", prompt: "Chat provider", choices: []string{"openai", "ollama"}},
		{key: "llm.base_url", prompt: "Chat API base URL"},
		{key: "llm.api_key", prompt: "Chat API key", secret: true},
		{key: "embedding.provider", prompt: "Embedding provider", choices: []string{"ollama", "openai"}},
		{key: "embedding.model", prompt: "Embedding model"},
		{key: "vector.backend", prompt: "Vector index", choices: []string{"bolt", "qdrant", "memory"}},
		{key: "store.backend", prompt: "Report store", choices: []string{"sqlite", "mongo", "memory"}},
	}
	defaults := map[string]string{
		"llm.provider":       current.LLM.Provider.String(),
		"llm.base_url":       current.LLM.BaseURL,
		"embedding.provider": current.Embedding.Provider.String(),
		"embedding.model":    current.Embedding.Model,
		"vector.backend":     string(current.Vector.Backend),
		"store.backend":      string(current.Store.Backend),
	}

	for i, step := range steps {
		value, err := askStep(cmd, reader, i+1, step, defaults[step.key])
		if err != nil {
			return err
		}
		if value == "" {
			continue
		}
		if err := svc.Set(step.key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", step.key, err)
		}
		if step.key == "embedding.provider" && value != defaults[step.key] {
			defaults["embedding.model"] = domain.DefaultEmbeddingModels()[domain.AIProvider(value)]
		}
	}

	cmd.Println()
	cmd.Println("Configuration saved.")
	updated, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := checkProviders(cmd, updated); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'healthlens settings check' after fixing the providers.")
	}
	return nil
}

// askStep prompts for one wizard value. An empty answer keeps the default,
// and an empty secret leaves the stored secret untouched.
func askStep(cmd *cobra.Command, reader *bufio.Reader, n int, step wizardStep, def string) (string, error) {
	if step.secret {
		cmd.Printf("%d. %s (leave empty to keep): ", n, step.prompt)
		value := readPassword(reader)
		cmd.Println()
		return value, nil
	}

	if len(step.choices) == 0 {
		cmd.Printf("%d. %s [%s]: ", n, step.prompt, def)
		if value := readLine(reader); value != "" {
			return value, nil
		}
		return def, nil
	}

	cmd.Printf("%d. %s\n", n, step.prompt)
	defIdx := 1
	for i, c := range step.choices {
		if c == def {
			defIdx = i + 1
		}
		cmd.Printf("  %d. %s\n", i+1, c)
	}
	cmd.Printf("Enter choice [%d]: ", defIdx)
	idx := parseChoice(readLine(reader), len(step.choices), defIdx)
	return step.choices[idx-1], nil
}

// Helper functions.

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func maskOrUnset(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return maskAPIKey(secret)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal, otherwise a
// plain line from reader.
func readPassword(reader *bufio.Reader) string {
	if fd := int(os.Stdin.Fd()); stdinIsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

var stdinIsTerminal = term.IsTerminal

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
