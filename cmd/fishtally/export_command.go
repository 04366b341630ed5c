package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fishtally/internal/config"
	"fishtally/internal/export"
	"fishtally/internal/review"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write review results as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *review.Store) error {
				path := outPath
				if path == "" {
					path = cfg.ExportPath()
				}
				rows, err := export.WriteCSV(cmd.Context(), store, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", rows, path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (defaults to fish_counts_export.csv in the project root)")
	return cmd
}
