package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"podcaster/internal/config"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var every time.Duration
	var names []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Mirror every configured task",
		Long:  "Run all [[tasks]] from the configuration once, or repeatedly with --every until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := selectTasks(cfg, names); err != nil {
				return err
			}
			if len(cfg.Tasks) == 0 {
				return errors.New("no tasks configured; add [[tasks]] to the configuration or use 'podcaster upload'")
			}

			s, err := ctx.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()

			if every <= 0 {
				return s.runner.RunAll(cmd.Context())
			}
			err = s.runner.Repeat(cmd.Context(), every)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&every, "every", 0, "Repeat the run on this cadence (e.g. 1h); 0 runs once")
	cmd.Flags().StringSliceVar(&names, "task", nil, "Only run the named tasks")
	return cmd
}

// selectTasks narrows cfg.Tasks to names, keeping configuration order.
func selectTasks(cfg *config.Config, names []string) error {
	if len(names) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := cfg.TaskByName(name); !ok {
			return fmt.Errorf("unknown task %q", name)
		}
		wanted[name] = true
	}
	selected := cfg.Tasks[:0:0]
	for _, task := range cfg.Tasks {
		if wanted[task.Name] {
			selected = append(selected, task)
		}
	}
	cfg.Tasks = selected
	return nil
}
