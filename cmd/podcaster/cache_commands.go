package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"podcaster/internal/cache"
	"podcaster/internal/config"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	var names []string
	var flags uploadFlags

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Mark everything a catalog lists as already delivered",
		Long: "Rebuild the cache of a task from the current catalog listing without delivering anything.\n" +
			"Use it to start mirroring a channel from now on instead of from its first upload.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var tasks []config.Task
			switch {
			case strings.TrimSpace(flags.url) != "":
				task, err := flags.addTask(cfg)
				if err != nil {
					return err
				}
				tasks = []config.Task{task}
			case len(names) > 0:
				if err := selectTasks(cfg, names); err != nil {
					return err
				}
				tasks = cfg.Tasks
			default:
				return errors.New("pass --url or --task")
			}

			s, err := ctx.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()

			out := cmd.OutOrStdout()
			for _, task := range tasks {
				n, err := s.runner.CacheTask(cmd.Context(), task)
				if err != nil {
					return fmt.Errorf("task %s: %w", task.Name, err)
				}
				fmt.Fprintf(out, "%s: cached %d entries in %s\n", task.Name, n, task.Cache)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&names, "task", nil, "Configured tasks to rebuild")
	f.StringVar(&flags.url, "url", "", "Catalog URL to cache")
	f.StringVar(&flags.name, "name", "", "Task name (derived from --url when empty)")
	f.StringSliceVarP(&flags.suffixes, "suffixes", "s", nil, "Path suffixes appended to --url")
	f.StringVar(&flags.cache, "cache", "", "Cache file path")
	f.StringVar(&flags.linkType, "link_type", "", "playlist or track")
	return cmd
}

// addTask registers the ad-hoc task described by the url-related flags.
func (f uploadFlags) addTask(cfg *config.Config) (config.Task, error) {
	name := strings.TrimSpace(f.name)
	if name == "" {
		name = taskNameFromURL(f.url)
	}
	if _, exists := cfg.TaskByName(name); exists {
		return config.Task{}, fmt.Errorf("task %q is already configured; use --task %s or pass --name", name, name)
	}
	return cfg.AddTask(config.Task{
		Name:     name,
		URL:      f.url,
		Suffixes: f.suffixes,
		Chat:     f.chat,
		Cache:    f.cache,
		Order:    f.order,
		LinkType: f.linkType,
	})
}

func newCompactCommand(ctx *commandContext) *cobra.Command {
	var paths []string

	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Rewrite cache files without duplicate or superseded rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dialect, err := cache.ParseDialect(cfg.Cache.Delimiter, cfg.Cache.Quote, cfg.Cache.Escape)
			if err != nil {
				return err
			}
			targets := paths
			if len(targets) == 0 {
				for _, task := range cfg.Tasks {
					targets = append(targets, task.Cache)
				}
			}
			if len(targets) == 0 {
				return errors.New("no cache files: pass --cache or configure [[tasks]]")
			}

			var rows [][]string
			for _, path := range targets {
				expanded, err := config.ExpandPath(path)
				if err != nil {
					return err
				}
				row, err := compactFile(expanded, dialect)
				if err != nil {
					return err
				}
				if row != nil {
					rows = append(rows, row)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Cache", "Entries", "Before", "After"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&paths, "cache", nil, "Cache files to compact (defaults to every task cache)")
	return cmd
}

// compactFile compacts one cache log. Missing files are skipped and yield a
// nil row.
func compactFile(path string, dialect cache.Dialect) ([]string, error) {
	before, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	store, err := cache.Open(path, cache.WithDialect(dialect))
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if err := store.Compact(); err != nil {
		return nil, err
	}
	after, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return []string{
		path,
		fmt.Sprintf("%d", store.Len()),
		humanize.IBytes(uint64(before.Size())),
		humanize.IBytes(uint64(after.Size())),
	}, nil
}
