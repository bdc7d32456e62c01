package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "foxfocus",
		Short:         "FoxFocus: a pixel-art task timer with dictated notes",
		Long:          "foxfocus tracks time spent on a named task, collects typed or dictated notes and keeps a history of finished sessions. Dictation goes to the cloud when online and to the on-device speech engine when offline.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			model, err := a.newModel()
			if err != nil {
				return err
			}

			p := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/foxfocus/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newHistoryCmd(&configPath),
		newMCPCmd(&configPath),
		newConfigCmd(&configPath),
	)

	return rootCmd
}
