package cli

import (
	"github.com/spf13/cobra"

	httpapi "github.com/custodia-labs/healthlens/internal/adapters/driving/http"
	"github.com/custodia-labs/healthlens/internal/runtime"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the JSON API for report upload, symptom queries and suggestions.

Every /api/v1 request must carry the X-User-ID header, normally set by an
authenticating reverse proxy in front of healthlens.

Routes:
  POST /api/v1/reports       multipart upload, field "file"
  GET  /api/v1/reports       list reports
  GET  /api/v1/reports/:id   one report with its text
  POST /api/v1/query         {"symptoms": "..."}
  POST /api/v1/suggestions   suggestions from the latest report
  GET  /healthz`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(rt *runtime.Runtime) error {
		server, err := httpapi.NewServer(&httpapi.Ports{
			Ingestion:  rt.Ingestion,
			Query:      rt.Query,
			Suggestion: rt.Suggestion,
			Reports:    rt.Reports,
		})
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			addr = rt.Settings.Server.Addr
		}
		cmd.Printf("HTTP API listening on %s\n", addr)
		return server.Run(cmd.Context(), addr)
	})
}
