package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fishtally/internal/config"
	"fishtally/internal/review"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show one event's details, tally, and review status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID := args[0]
			return ctx.withStore(func(cfg *config.Config, store *review.Store) error {
				event, err := store.GetEvent(cmd.Context(), eventID)
				if err != nil {
					return err
				}
				if event == nil {
					return fmt.Errorf("event %s not found; run `fishtally index` first", eventID)
				}
				tally, err := store.LoadTally(cmd.Context(), eventID)
				if err != nil {
					return err
				}
				status, err := store.LoadStatus(cmd.Context(), eventID)
				if err != nil {
					return err
				}
				prev, err := store.PreviousEvent(cmd.Context(), eventID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Event %s\n", event.ID)
				fmt.Fprintf(out, "  Timestamp:  %s\n", orPlaceholder(event.Timestamp, "(unknown)"))
				if event.HasVideo {
					fmt.Fprintf(out, "  Video:      %s\n", event.VideoRel)
					fmt.Fprintf(out, "  Video path: %s\n", event.VideoAbs)
				} else {
					fmt.Fprintln(out, "  Video:      (no clip matched)")
				}
				fmt.Fprintf(out, "  Tally:      %s\n", review.FormatTally(tally))
				if status.Reviewed() {
					fmt.Fprintf(out, "  Reviewed:   %s  false trigger: %s\n", status.ReviewedAt, yesNo(status.FalseTrigger))
				} else {
					fmt.Fprintln(out, "  Reviewed:   no")
				}
				if status.Notes != "" {
					fmt.Fprintf(out, "  Notes:      %s\n", status.Notes)
				}
				if prev != "" {
					fmt.Fprintf(out, "  Previous:   %s\n", prev)
				}
				return nil
			})
		},
	}
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}
