package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/concierge-hq/concierge/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [user-id]",
	Short: "Start the MCP server",
	Long: `Starts a Model Context Protocol server exposing the retrieval tools
(search_documents, search_email, fetch_contacts) scoped to one user.

By default the server communicates over stdio using JSON-RPC, suitable
for MCP-compatible assistants. Use --port to serve HTTP instead.

Example assistant configuration:
  {
    "mcpServers": {
      "concierge": {
        "command": "/path/to/concierge",
        "args": ["mcp", "user-123"]
      }
    }
  }`,
	Args: cobra.ExactArgs(1),
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	if toolProvider == nil {
		return errors.New("tool services not configured")
	}

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Tools: toolProvider.ForUser(args[0]),
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
