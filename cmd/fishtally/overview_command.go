package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fishtally/internal/config"
	"fishtally/internal/review"
)

func newOverviewCommand(ctx *commandContext) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show all events with review status and progress totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter != "all" && filter != "reviewed" && filter != "unreviewed" {
				return fmt.Errorf("unknown filter %q (expected all, reviewed or unreviewed)", filter)
			}
			return ctx.withStore(func(cfg *config.Config, store *review.Store) error {
				overview, err := store.Overview(cmd.Context())
				if err != nil {
					return err
				}
				summary, err := store.Summary(cmd.Context())
				if err != nil {
					return err
				}

				var rows [][]string
				for _, row := range overview {
					reviewed := row.ReviewedAt != ""
					if filter == "reviewed" && !reviewed {
						continue
					}
					if filter == "unreviewed" && reviewed {
						continue
					}
					rows = append(rows, []string{
						row.EventID, row.Timestamp, row.VideoRel,
						row.ReviewedAt, yesNo(row.FalseTrigger), row.Notes,
					})
				}

				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No events match the selected filter.")
				} else {
					fmt.Fprintln(out, renderTable(
						[]string{"Event", "Timestamp", "Video", "Reviewed", "False trigger", "Notes"},
						rows,
						[]columnAlignment{alignRight},
					))
				}
				fmt.Fprintf(out, "Total: %d  With video: %d  Reviewed: %d  Remaining: %d\n",
					summary.TotalEvents, summary.WithVideo, summary.Reviewed, summary.Remaining())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "all", "Filter rows: all, reviewed or unreviewed")
	return cmd
}
