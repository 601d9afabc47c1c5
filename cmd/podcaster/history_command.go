package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"podcaster/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var task string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent deliveries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("delivery history is disabled; set [history] enabled = true")
			}
			store, err := history.Open(cmd.Context(), cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			deliveries, err := store.Recent(cmd.Context(), task, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(deliveries) == 0 {
				fmt.Fprintln(out, "No deliveries recorded")
				return nil
			}
			rows := make([][]string, 0, len(deliveries))
			for _, d := range deliveries {
				rows = append(rows, []string{
					humanize.Time(d.DeliveredAt),
					d.Task,
					d.Chat,
					d.Title,
					fmt.Sprintf("%d/%d", d.Part, d.Parts),
					humanize.IBytes(uint64(d.SizeBytes)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Task", "Chat", "Title", "Part", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "%d deliveries shown\n", len(deliveries))
			return nil
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "Only show deliveries of this task")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of rows")
	return cmd
}
