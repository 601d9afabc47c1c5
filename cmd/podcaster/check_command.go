package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"podcaster/internal/config"
	"podcaster/internal/deps"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report external tools, credentials and task caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := deps.CheckBinaries(cmd.Context(), deps.Requirements(cfg))
			fmt.Fprintln(out, "Dependencies")
			for _, status := range statuses {
				if status.Available {
					fmt.Fprintln(out, renderStatusLine(status.Name, statusOK, status.Version, colorize))
					continue
				}
				kind := statusError
				if status.Optional {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, status.Detail, colorize))
			}

			fmt.Fprintln(out, "Telegram")
			if err := cfg.RequireTelegram(); err != nil {
				fmt.Fprintln(out, renderStatusLine("Token", statusError, "missing", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Token", statusOK, "configured", colorize))
			}
			if cfg.Telegram.DefaultChat != "" {
				fmt.Fprintln(out, renderStatusLine("Default chat", statusInfo, cfg.Telegram.DefaultChat, colorize))
			}

			fmt.Fprintln(out, "Tasks")
			if len(cfg.Tasks) == 0 {
				fmt.Fprintln(out, renderStatusLine("Tasks", statusWarn, "none configured", colorize))
			}
			for _, task := range cfg.Tasks {
				kind, message := taskStatus(cfg, task)
				fmt.Fprintln(out, renderStatusLine(task.Name, kind, message, colorize))
			}

			return deps.Missing(statuses)
		},
	}
}

// taskStatus summarizes a task cache without taking its lock, so it can run
// next to an active upload.
func taskStatus(cfg *config.Config, task config.Task) (statusKind, string) {
	if cfg.ChatFor(task) == "" {
		return statusError, "no chat configured"
	}
	info, err := os.Stat(task.Cache)
	if errors.Is(err, fs.ErrNotExist) {
		return statusInfo, fmt.Sprintf("%s, cache empty", cfg.ChatFor(task))
	}
	if err != nil {
		return statusError, err.Error()
	}
	return statusOK, fmt.Sprintf("%s, cache %s (%s)", cfg.ChatFor(task), humanize.IBytes(uint64(info.Size())), humanize.Time(info.ModTime()))
}
