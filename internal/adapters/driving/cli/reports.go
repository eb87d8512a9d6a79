package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/runtime"
)

var (
	reportsJSON bool
	exportPath  string
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored reports",
	Long:  `List stored reports, show their lab values, follow trends and export them.`,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your reports",
	Args:  cobra.NoArgs,
	RunE:  runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show [report-id]",
	Short: "Show lab values of a report (default latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportsShow,
}

var reportsTrendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show how each lab value changed across reports",
	Args:  cobra.NoArgs,
	RunE:  runReportsTrends,
}

var reportsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export reports to an Excel workbook",
	Long: `Writes one row per report with every lab parameter. Values outside
the normal range are highlighted.`,
	Args: cobra.NoArgs,
	RunE: runReportsExport,
}

func init() {
	reportsListCmd.Flags().BoolVar(&reportsJSON, "json", false, "output reports as JSON")
	reportsExportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "output file (default healthlens-<user>.xlsx)")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsTrendsCmd)
	reportsCmd.AddCommand(reportsExportCmd)
	rootCmd.AddCommand(reportsCmd)
}

func runReportsList(cmd *cobra.Command, _ []string) error {
	user, err := resolveUser()
	if err != nil {
		return err
	}

	return withRuntime(cmd, func(rt *runtime.Runtime) error {
		records, err := rt.Reports.List(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}

		if reportsJSON {
			return outputJSON(cmd, records)
		}
		if len(records) == 0 {
			cmd.Println("No reports found.")
			return nil
		}

		rows := make([][]string, len(records))
		for i := range records {
			r := &records[i]
			rows[i] = []string{
				strconv.FormatInt(r.Seq, 10),
				r.ID,
				r.FileName,
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				strconv.Itoa(len(r.ParsedData.Present())),
				truncate(r.Symptoms, 40),
			}
		}
		cmd.Println(newTable([]string{"#", "ID", "File", "Ingested", "Values", "Symptoms"}, rows, -1))
		return nil
	})
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	user, err := resolveUser()
	if err != nil {
		return err
	}

	return withRuntime(cmd, func(rt *runtime.Runtime) error {
		var record *domain.ReportRecord
		if len(args) == 1 {
			record, err = rt.Reports.Get(cmd.Context(), user, args[0])
		} else {
			record, err = rt.Reports.Latest(cmd.Context(), user)
		}
		if err != nil {
			return fmt.Errorf("failed to load report: %w", err)
		}

		cmd.Println(titleStyle.Render(record.FileName))
		cmd.Println(faintStyle.Render(fmt.Sprintf("%s  ingested %s", record.ID, record.CreatedAt.Local().Format("2006-01-02 15:04"))))
		cmd.Println(newTable([]string{"Parameter", "Value", "Unit", "Normal", "Status"}, parameterRows(record.ParsedData), 4))
		if notes := record.ParsedData.Notes(); notes != "" {
			cmd.Printf("Notes: %s\n", notes)
		}
		if record.Symptoms != "" {
			cmd.Printf("Symptoms: %s\n", record.Symptoms)
		}
		return nil
	})
}

func runReportsTrends(cmd *cobra.Command, _ []string) error {
	user, err := resolveUser()
	if err != nil {
		return err
	}

	return withRuntime(cmd, func(rt *runtime.Runtime) error {
		trends, err := rt.Reports.Trends(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("failed to compute trends: %w", err)
		}
		if len(trends) == 0 {
			cmd.Println("No lab values recorded yet.")
			return nil
		}

		rows := make([][]string, 0, len(trends))
		for _, t := range trends {
			latest, _ := t.Latest()
			values := make([]string, len(t.Points))
			for i, p := range t.Points {
				values[i] = formatValue(p.Value)
			}
			rows = append(rows, []string{
				t.Parameter.Label(),
				strings.Join(values, " > "),
				t.Parameter.Unit(),
				formatRange(t.Parameter.NormalRange()),
				string(latest.Status),
			})
		}
		cmd.Println(newTable([]string{"Parameter", "Values (oldest first)", "Unit", "Normal", "Latest"}, rows, 4))
		return nil
	})
}

func runReportsExport(cmd *cobra.Command, _ []string) error {
	user, err := resolveUser()
	if err != nil {
		return err
	}

	path := exportPath
	if path == "" {
		path = "healthlens-" + user + ".xlsx"
	}

	return withRuntime(cmd, func(rt *runtime.Runtime) error {
		records, err := rt.Reports.List(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}

		f, err := os.Create(path) //nolint:gosec // Path is chosen by the user.
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := writeWorkbook(f, records); err != nil {
			_ = f.Close() //nolint:errcheck // Write error takes precedence.
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}

		cmd.Printf("Exported %d reports to %s\n", len(records), path)
		return nil
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
