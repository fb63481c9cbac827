package cli

import (
	"github.com/chris/briefing/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the report tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return mcpserver.ServeStdio(get().tools)
		},
	}
}
