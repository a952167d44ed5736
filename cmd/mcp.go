package cmd

import (
	"github.com/huangsam/pantry/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Pantry MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents browse recipes and
manage favorites through standard tools. Logs go to stderr so stdout stays
reserved for the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, svc)
	},
}
