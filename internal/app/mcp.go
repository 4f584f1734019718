package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/cropflow/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server",
	Long: `Start a Model Context Protocol stdio server that assistants can query.
The server exposes four tools:

  generate_strategies    Ranked crops for a region and crop year
  generate_transactions  Country-wide surplus to deficit recommendations
  analyze_trade          Sell and buy opportunities for one region
  list_coverage          Regions and years with stored observations

Example MCP configuration:
  {"mcpServers":{"cropflow":{"command":"cropflow","args":["mcp"]}}}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := mcp.NewServer(rt.engine(), rt.db, appVersion, rt.logger)
	return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
}
