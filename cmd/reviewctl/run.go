package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/salaryreview/internal/app"
	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/spf13/cobra"
)

func runCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Render and email every pending letter, then move sent rows to the archive",
		Long: `Run one batch: every row of the pending table is rendered to a PDF
letter and emailed to its employee. Rows that were sent are appended to the
archive table; the rest stay pending for the next run.

The command exits non-zero when the pending table is missing or the tables
could not be written back. Rows that fail individually do not change the
exit status; they are listed in the output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}

			a, err := app.Build(cmd.Context(), cfg, app.Options{}, slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := core.WithTrigger(cmd.Context(), core.Trigger{Via: "cli", UserAgent: cmd.Root().Name()})
			result, err := a.Service.RunBatch(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}
			return printResult(cmd, g.jsonOut, result)
		},
	}
}

type runOutput struct {
	RunID    string           `json:"run_id"`
	Phase    core.Phase       `json:"phase"`
	Total    int              `json:"total"`
	Sent     int              `json:"sent"`
	Failed   int              `json:"failed"`
	Failures []core.RowResult `json:"failures,omitempty"`
}

func printResult(cmd *cobra.Command, asJSON bool, result *core.BatchResult) error {
	out := runOutput{
		RunID:  result.RunID,
		Phase:  result.Phase,
		Total:  result.Total,
		Sent:   result.Sent,
		Failed: result.Failed,
	}
	for _, rr := range result.Results {
		if rr.Outcome == core.OutcomeFailed {
			out.Failures = append(out.Failures, rr)
		}
	}

	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "Run %s (%s)\n", out.RunID, result.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Rows:   %d\n", out.Total)
	fmt.Fprintf(w, "  Sent:   %d\n", out.Sent)
	fmt.Fprintf(w, "  Failed: %d\n", out.Failed)
	for _, f := range out.Failures {
		fmt.Fprintf(w, "  - row %d %s <%s>: %s failed: %s\n",
			f.Index+1, f.Row.PayrollNumber(), f.Row.Email(), f.Stage, f.Reason)
	}
	return nil
}
