package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fishtally/internal/config"
	"fishtally/internal/review"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List unreviewed events in review order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *review.Store) error {
				unreviewed, err := store.UnreviewedIDs(cmd.Context())
				if err != nil {
					return err
				}
				if len(unreviewed) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "All events reviewed.")
					return nil
				}

				pending := make(map[string]struct{}, len(unreviewed))
				for _, id := range unreviewed {
					pending[id] = struct{}{}
				}
				overview, err := store.Overview(cmd.Context())
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(unreviewed))
				for _, row := range overview {
					if _, ok := pending[row.EventID]; !ok {
						continue
					}
					rows = append(rows, []string{row.EventID, row.Timestamp, row.VideoRel, yesNo(row.HasVideo)})
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Event", "Timestamp", "Video", "Has video"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}
