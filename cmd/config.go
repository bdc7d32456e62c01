package cmd

import (
	"fmt"

	"github.com/Smailkiller/FOXFOCUS/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(newConfigPathCmd(configPath), newConfigInitCmd(configPath))
	return cmd
}

func newConfigPathCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), resolveConfigPath(*configPath))
			return err
		},
	}
}

func newConfigInitCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with every default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := resolveConfigPath(*configPath)
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	return config.Path()
}
