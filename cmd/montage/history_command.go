package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"montage/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past render runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent render runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No render runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					displayStatus(run.Status),
					run.OutputPath,
					fmt.Sprintf("%dx%d", run.Width, run.Height),
					strconv.FormatInt(run.FramesWritten, 10),
					formatStarted(run.StartedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Status", "Output", "Size", "Frames", "Started"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run id>",
		Short: "Show one render run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			run, found, err := store.Find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no run with id %q", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run      %s\n", run.ID)
			fmt.Fprintf(out, "Status   %s\n", displayStatus(run.Status))
			fmt.Fprintf(out, "Edit     %s\n", run.EditPath)
			fmt.Fprintf(out, "Output   %s\n", run.OutputPath)
			fmt.Fprintf(out, "Raster   %dx%d @ %g fps\n", run.Width, run.Height, run.FPS)
			fmt.Fprintf(out, "Clips    %d\n", run.Clips)
			fmt.Fprintf(out, "Frames   %d\n", run.FramesWritten)
			fmt.Fprintf(out, "Started  %s\n", formatStarted(run.StartedAt))
			if !run.FinishedAt.IsZero() {
				fmt.Fprintf(out, "Finished %s (%s)\n", formatStarted(run.FinishedAt),
					run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
			}
			if run.Error != "" {
				fmt.Fprintf(out, "Error    %s\n", run.Error)
			}
			return nil
		},
	}
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return history.Open(cfg.Paths.HistoryDB)
}

var statusTitle = cases.Title(language.English)

func displayStatus(status string) string {
	return statusTitle.String(status)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatStarted(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
