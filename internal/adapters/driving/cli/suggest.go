package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/healthlens/internal/runtime"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Get lifestyle suggestions from your latest report",
	Long: `Sends the lab values, notes and recorded symptoms of your most recent
report to the assistant and prints its diet, lifestyle and follow-up
suggestions. Older reports are not used.`,
	Args: cobra.NoArgs,
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	user, err := resolveUser()
	if err != nil {
		return err
	}

	return withRuntime(cmd, func(rt *runtime.Runtime) error {
		suggestion, err := rt.Suggestion.Suggest(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("suggestion failed: %w", err)
		}
		cmd.Printf("Based on %s:\n\n", suggestion.Record.FileName)
		cmd.Println(suggestion.Text)
		return nil
	})
}
