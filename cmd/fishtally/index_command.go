package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fishtally/internal/project"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Parse the counter log, match clips, and load the review store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			result, err := project.Reload(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %d events (%d with video). Unreviewed: %d\n",
				result.Events, result.Matched, len(result.Unreviewed))
			fmt.Fprintf(out, "Database: %s\n", result.DBPath)

			diag := result.Diagnostics
			fmt.Fprintf(out, "Log: %s (%d events parsed)\n", diag.Log.LogPath, diag.Log.EventsParsed)
			if diag.Log.FolderStamp != "" {
				fmt.Fprintf(out, "Folder stamp: %s\n", diag.Log.FolderStamp)
			}
			fmt.Fprintf(out, "Videos indexed: %d under %s\n", diag.VideosIndexed, diag.VideoIndexRoot)
			return nil
		},
	}
}
