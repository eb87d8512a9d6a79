package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/healthlens/internal/adapters/driving/mcp"
	"github.com/custodia-labs/healthlens/internal/runtime"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --http to serve streamable HTTP instead, for the MCP Inspector or
remote access.

Examples:
  # Stdio mode (default)
  healthlens mcp

  # HTTP mode
  healthlens mcp --http :8090

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "healthlens": {
        "command": "/path/to/healthlens",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(rt *runtime.Runtime) error {
		server, err := mcp.NewServer(&mcp.Ports{
			Ingestion:  rt.Ingestion,
			Query:      rt.Query,
			Suggestion: rt.Suggestion,
			Reports:    rt.Reports,
		})
		if err != nil {
			return err
		}

		if mcpHTTPAddr != "" {
			cmd.PrintErrf("MCP server listening on %s\n", mcpHTTPAddr)
			return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
		}
		return server.Run(cmd.Context())
	})
}
