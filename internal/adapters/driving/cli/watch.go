package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/logger"
	"github.com/custodia-labs/healthlens/internal/runtime"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest reports dropped into a directory",
	Long: `Watches a directory and ingests every supported report file that is
created in it or moved into it. Files are ingested one at a time. Existing
files are left alone; use "healthlens ingest" for those.

Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	user, err := resolveUser()
	if err != nil {
		return err
	}
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	return withRuntime(cmd, func(rt *runtime.Runtime) error {
		cmd.Printf("Watching %s for reports (Ctrl+C to stop)\n", dir)
		return watchLoop(cmd.Context(), watcher.Events, watcher.Errors, watchSettle, func(path string) {
			result, err := rt.Ingestion.IngestFile(cmd.Context(), user, path)
			if err != nil {
				logger.Error("ingest %s: %v", path, err)
				return
			}
			printIngestResult(cmd, path, result)
		})
	})
}

// watchSettle is how long a new file must go without writes before it is
// ingested, so copies in progress are not read half written.
var watchSettle = 500 * time.Millisecond

// watchLoop calls ingest for each new report file once it has settled,
// until ctx is done or the event channel closes. ingest runs synchronously.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	settle time.Duration,
	ingest func(path string),
) error {
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(max(settle/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if path, ok := reportFromEvent(ev); ok {
				pending[path] = time.Now()
			} else if _, waiting := pending[ev.Name]; waiting && ev.Has(fsnotify.Write) {
				pending[ev.Name] = time.Now()
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		case now := <-ticker.C:
			for _, path := range settled(pending, now, settle) {
				delete(pending, path)
				ingest(path)
			}
		}
	}
}

// settled returns the pending paths untouched for at least settle, sorted.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var out []string
	for path, seen := range pending {
		if now.Sub(seen) >= settle {
			out = append(out, path)
		}
	}
	slices.Sort(out)
	return out
}

// reportFromEvent returns the path of a created report file. A rename
// reports the old name, which no longer exists; the new name arrives as
// a create.
func reportFromEvent(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return "", false
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return "", false
	}
	if !domain.IsSupportedExtension(filepath.Ext(ev.Name)) {
		return "", false
	}
	info, err := os.Stat(ev.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return ev.Name, true
}
