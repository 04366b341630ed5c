package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fishtally/internal/config"
	"fishtally/internal/review"
)

// movementLabels maps the labels operators type to the core movement set.
// "x" is the historical stay-in-frame toggle and lives here, at the
// presentation boundary, not in the core.
var movementLabels = map[string]review.Movement{
	"up":   review.MovementUp,
	"down": review.MovementDown,
	"stay": review.MovementStay,
	"x":    review.MovementStay,
}

func movementFromLabel(label string) (review.Movement, error) {
	if m, ok := movementLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown movement %q (expected up, down, stay or x)", label)
}

// parseTallyArg parses one --add argument of the form
// "Species:Movement[:count]", e.g. "Chinook:up:2" or "Rainbow:x".
func parseTallyArg(arg string) (string, review.Movement, int, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", "", 0, fmt.Errorf("invalid tally %q (expected Species:Movement[:count])", arg)
	}
	species := strings.TrimSpace(parts[0])
	if species == "" {
		return "", "", 0, fmt.Errorf("invalid tally %q: empty species", arg)
	}
	movement, err := movementFromLabel(parts[1])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid tally %q: %w", arg, err)
	}
	count := 1
	if len(parts) == 3 {
		count, err = strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || count < 1 {
			return "", "", 0, fmt.Errorf("invalid tally %q: count must be a positive integer", arg)
		}
	}
	return species, movement, count, nil
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var (
		adds         []string
		notes        string
		falseTrigger bool
		clear        bool
		anySpecies   bool
	)

	cmd := &cobra.Command{
		Use:   "record <event-id>",
		Short: "Record a review for one event and mark it reviewed",
		Long: `Record loads the event's saved tally, applies the given observations, and
saves the result in one transaction, stamping the event reviewed.

  fishtally record 118 --add Chinook:up:2 --add Rainbow:x --notes "murky water"`,
		Args: cobra.ExactArgs(1),
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

				session := review.NewSession(store)
				if err := session.Load(cmd.Context(), eventID); err != nil {
					return err
				}
				if clear {
					session.Clear()
				}
				for _, arg := range adds {
					species, movement, count, err := parseTallyArg(arg)
					if err != nil {
						return err
					}
					if !anySpecies && !knownSpecies(cfg.Categories(), species) {
						return fmt.Errorf("unknown species %q (configured: %s; use --any-species to record it anyway)",
							species, strings.Join(cfg.Categories(), ", "))
					}
					for i := 0; i < count; i++ {
						if err := session.Increment(species, movement); err != nil {
							return err
						}
					}
				}
				if cmd.Flags().Changed("notes") {
					session.SetNotes(notes)
				}
				session.SetFalseTrigger(falseTrigger)

				tally := session.Tally()
				if err := session.Save(cmd.Context()); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Saved event %s: %s\n", eventID, review.FormatTally(tally))

				next, err := store.UnreviewedIDs(cmd.Context())
				if err != nil {
					return err
				}
				if len(next) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Next unreviewed: %s (%d remaining)\n", next[0], len(next))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "All events reviewed.")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&adds, "add", nil, "Observation to add, Species:Movement[:count] (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes saved with the event")
	cmd.Flags().BoolVar(&falseTrigger, "false-trigger", false, "Mark the event as a false trigger")
	cmd.Flags().BoolVar(&clear, "clear", false, "Discard the previously saved tally before adding")
	cmd.Flags().BoolVar(&anySpecies, "any-species", false, "Allow species outside the configured category list")
	return cmd
}

func knownSpecies(categories []string, species string) bool {
	for _, cat := range categories {
		if strings.EqualFold(cat, species) {
			return true
		}
	}
	return false
}
