package commands

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	mcpserver "github.com/roasbeef/booksum/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the summary tools over MCP on stdio",
	Long: `Run a Model Context Protocol server on stdin and stdout exposing
summarize_job, list_summaries, get_summary and recent_summaries. Logs go to
stderr.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcpserver.NewServer(a.lib, a.log)

	return server.Run(ctx, &mcp.StdioTransport{})
}
