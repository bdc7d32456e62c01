package cmd

import (
	"github.com/Smailkiller/FOXFOCUS/internal/mcpserver"
	"github.com/Smailkiller/FOXFOCUS/internal/version"
	"github.com/spf13/cobra"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the session archive to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := wireApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.openArchive()
			if err != nil {
				return err
			}

			return mcpserver.New(store, version.Version, a.log.With().Str("component", "mcp").Logger()).Serve()
		},
	}
}
