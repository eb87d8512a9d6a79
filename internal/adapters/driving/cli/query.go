package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/runtime"
)

var (
	querySources bool
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query <symptoms>",
	Short: "Ask about symptoms using your reports",
	Long: `Describes your symptoms to the assistant. The answer is grounded in
excerpts from your own ingested reports, and the symptoms are saved on your
latest report for later suggestions.`,
	Example: `  healthlens query "tired all the time and always thirsty"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runQuery,
}

func init() {
	queryCmd.Flags().BoolVarP(&querySources, "sources", "s", false, "show the report excerpts used")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	user, err := resolveUser()
	if err != nil {
		return err
	}
	symptoms := strings.TrimSpace(strings.Join(args, " "))
	if symptoms == "" {
		return fmt.Errorf("%w: symptoms are empty", domain.ErrInvalidInput)
	}

	return withRuntime(cmd, func(rt *runtime.Runtime) error {
		answer, err := rt.Query.Ask(cmd.Context(), user, symptoms)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		if queryJSON {
			return outputJSON(cmd, answerJSON(answer))
		}

		cmd.Println(answer.Text)
		if querySources && len(answer.Sources) > 0 {
			cmd.Println()
			cmd.Println("Sources:")
			for i, hit := range answer.Sources {
				cmd.Printf("  [%d] %s (%.2f)\n", i+1, hit.Chunk.Source(), hit.Score)
			}
		}
		return nil
	})
}

type sourceJSON struct {
	FileName string  `json:"file_name"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

func answerJSON(a *domain.Answer) any {
	sources := make([]sourceJSON, len(a.Sources))
	for i, hit := range a.Sources {
		sources[i] = sourceJSON{FileName: hit.Chunk.Source(), Score: hit.Score, Content: hit.Chunk.Content}
	}
	return struct {
		Answer  string       `json:"answer"`
		Sources []sourceJSON `json:"sources"`
	}{a.Text, sources}
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
