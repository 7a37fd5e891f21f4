package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/salaryreview/internal/app"
	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/spf13/cobra"
)

func inspectCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show how many rows are pending and how many have been sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}

			a, err := app.Build(cmd.Context(), cfg, app.Options{ReadOnly: true}, slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.Service.Summarize(cmd.Context())
			missing := errors.Is(err, core.ErrSourceNotFound)
			if err != nil && !missing {
				return err
			}

			w := cmd.OutOrStdout()
			if g.jsonOut {
				return json.NewEncoder(w).Encode(sum)
			}

			fmt.Fprintf(w, "Storage: %s (%s)\n", cfg.Storage.Driver, cfg.Storage.Dir)
			if missing {
				fmt.Fprintf(w, "  %-10s %s (not found)\n", "Pending:", sum.Source)
			} else {
				fmt.Fprintf(w, "  %-10s %s, %d rows\n", "Pending:", sum.Source, sum.Pending)
			}
			if sum.ArchiveExists {
				fmt.Fprintf(w, "  %-10s %s, %d rows\n", "Sent:", sum.Archive, sum.Archived)
			} else {
				fmt.Fprintf(w, "  %-10s %s (not created yet)\n", "Sent:", sum.Archive)
			}
			return nil
		},
	}
}
