package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fishtally/internal/config"
	"fishtally/internal/review"
)

func newCountsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "List every recorded species/movement count per event",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *review.Store) error {
				counts, err := store.CountRows(cmd.Context())
				if err != nil {
					return err
				}
				if len(counts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No counts recorded yet.")
					return nil
				}

				rows := make([][]string, 0, len(counts))
				total := 0
				for _, row := range counts {
					rows = append(rows, []string{
						row.EventID, row.Timestamp, row.Species,
						string(row.Movement), strconv.Itoa(row.Count),
					})
					total += row.Count
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Event", "Timestamp", "Species", "Movement", "Count"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Total fish counted: %d\n", total)
				return nil
			})
		},
	}
}
