package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/salaryreview/internal/app"
	"github.com/JonMunkholm/salaryreview/internal/letter"
	"github.com/spf13/cobra"
)

func renderCmd(g *globalFlags) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "render <payroll-number>",
		Short: "Write the letter for one pending row to a PDF file without sending it",
		Args:  cobra.ExactArgs(1),
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

			ds, err := a.Gateway().Load(cmd.Context(), a.Service.Source())
			if err != nil {
				return err
			}

			for _, row := range ds.Rows {
				if row.PayrollNumber() != args[0] {
					continue
				}
				doc, err := letter.NewRenderer(a.Template, nil).Render(row)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, doc.Filename)
				if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			return fmt.Errorf("payroll number %q not found in %s", args[0], a.Service.Source())
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write the PDF to")
	return cmd
}
