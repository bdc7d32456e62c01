package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Smailkiller/FOXFOCUS/internal/clock"
	"github.com/Smailkiller/FOXFOCUS/internal/session"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int
	var output string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print archived sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}

			a, err := wireApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.openArchive()
			if err != nil {
				return err
			}

			entries, err := store.Entries(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			if entries == nil {
				entries = []session.Entry{}
			}

			return renderHistory(cmd.OutOrStdout(), entries, output)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions (0 for all)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json|yaml)")

	return cmd
}

func renderHistory(w io.Writer, entries []session.Entry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()

	case "table", "":
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, "No sessions archived yet.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ENDED\tDURATION\tNAME\tNOTES")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s (%s)\t%s\t%s\t%d\n",
				e.EndedAt.Format("2006-01-02 15:04"), humanize.Time(e.EndedAt),
				clock.Format(e.Duration), e.Name, len(e.Notes))
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}
