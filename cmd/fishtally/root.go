package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var projectFlag string

	ctx := newCommandContext(&configFlag, &projectFlag)

	rootCmd := &cobra.Command{
		Use:           "fishtally",
		Short:         "Reconcile fish-counter logs with clip footage and review events",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Project root override (contains the .log export)")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newIndexCommand(ctx))
	rootCmd.AddCommand(newQueueCommand(ctx))
	rootCmd.AddCommand(newOverviewCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newRecordCommand(ctx))
	rootCmd.AddCommand(newCountsCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))

	return rootCmd
}
