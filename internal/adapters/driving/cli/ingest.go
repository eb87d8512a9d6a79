package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/runtime"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path|glob>...",
	Short: "Ingest medical report files",
	Long: `Extracts text from each report, indexes it for retrieval and stores
the extracted lab parameters.

Arguments may be file paths or glob patterns such as "reports/**/*.pdf".
Supported types: pdf, jpg, jpeg, png, txt. A report whose text was already
ingested for the same user is skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	user, err := resolveUser()
	if err != nil {
		return err
	}

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w: no supported files match %v", domain.ErrInvalidInput, args)
	}

	return withRuntime(cmd, func(rt *runtime.Runtime) error {
		var bar *progressbar.ProgressBar
		if len(paths) > 1 {
			bar = progressbar.NewOptions(len(paths),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Ingesting"),
				progressbar.OptionClearOnFinish(),
			)
		}

		var errs []error
		for _, path := range paths {
			result, err := rt.Ingestion.IngestFile(cmd.Context(), user, path)
			if bar != nil {
				_ = bar.Add(1) //nolint:errcheck // Progress output only.
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
			printIngestResult(cmd, path, result)
		}
		if bar != nil {
			_ = bar.Finish() //nolint:errcheck // Progress output only.
		}

		if len(errs) > 0 {
			for _, e := range errs {
				cmd.PrintErrf("  failed: %v\n", e)
			}
			return fmt.Errorf("%d of %d files failed: %w", len(errs), len(paths), errors.Join(errs...))
		}
		return nil
	})
}

func printIngestResult(cmd *cobra.Command, path string, result *domain.IngestResult) {
	name := filepath.Base(path)
	if result.Duplicate {
		cmd.Printf("%s: already ingested as %s, skipped\n", name, result.Record.ID)
		return
	}
	cmd.Printf("%s: report %s, %d chunks, %d lab values\n",
		name, result.Record.ID, result.Chunks, len(result.Record.ParsedData.Present()))
}

// expandPaths resolves globs. Plain paths are kept as given so their
// errors are reported per file; glob matches are filtered to supported
// regular files.
func expandPaths(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if !hasGlobMeta(arg) {
			add(arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %w", domain.ErrInvalidInput, arg, err)
		}
		for _, m := range matches {
			if domain.IsSupportedExtension(filepath.Ext(m)) {
				add(m)
			}
		}
	}
	return out, nil
}

func hasGlobMeta(p string) bool {
	if _, err := os.Stat(p); err == nil {
		return false
	}
	for _, c := range p {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
