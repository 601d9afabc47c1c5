package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podcaster/internal/cache"
	"podcaster/internal/config"
	"podcaster/internal/history"
	"podcaster/internal/testsupport"
)

func TestCompactRewritesSupersededRows(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.CacheDir, "show.csv")

	store, err := cache.Open(path)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, entry := range []cache.Entry{
		{Key: "a", UploadedAt: first, Duration: time.Minute},
		{Key: "a", UploadedAt: first.Add(time.Hour), Duration: time.Minute},
		{Key: "b", UploadedAt: first.Add(2 * time.Hour)},
	} {
		if err := store.AddEntry(entry); err != nil {
			t.Fatalf("add entry: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close cache: %v", err)
	}

	out, _, err := runCLI(t, []string{"compact", "--cache", path}, env.configPath)
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	requireContains(t, out, "show.csv")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Fatalf("expected 2 rows after compaction, got %d:\n%s", lines, data)
	}
}

func TestCompactRequiresTargets(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"compact"}, env.configPath); err == nil {
		t.Fatal("expected error without caches")
	}
}

func TestHistoryListsDeliveries(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	store, err := history.Open(ctx, env.cfg.History.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	for _, d := range []history.Delivery{
		{RunID: "r1", Task: "show", Chat: "@test", Key: "k1", Title: "Episode One", Part: 1, Parts: 1, SizeBytes: 2048},
		{RunID: "r1", Task: "music", Chat: "@music", Key: "k2", Title: "Track Two", Part: 1, Parts: 2, SizeBytes: 4096},
	} {
		if _, err := store.Record(ctx, d); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close history: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "--task", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Episode One")
	requireContains(t, out, "2.0 KiB")
	if strings.Contains(out, "Track Two") {
		t.Fatalf("task filter ignored:\n%s", out)
	}
	requireContains(t, out, "1 deliveries shown")
}

func TestCheckReportsDependenciesAndTasks(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithTask("show", "https://www.youtube.com/@show"),
	)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "yt-dlp:")
	requireContains(t, out, "[OK]")
	requireContains(t, out, "show:")
	requireContains(t, out, "cache empty")
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes for a buffer:\n%s", out)
	}
}

func TestRunWithoutTasksFails(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "no tasks configured") {
		t.Fatalf("expected missing tasks error, got %v", err)
	}
}

func TestRunRejectsUnknownTask(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithTask("show", "https://www.youtube.com/@show"))
	_, _, err := runCLI(t, []string{"run", "--task", "other"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `unknown task "other"`) {
		t.Fatalf("expected unknown task error, got %v", err)
	}
}

func TestUploadRequiresToken(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Telegram.Token = ""
	writeTestConfig(t, env.configPath, env.cfg)
	t.Setenv("PODCASTER_TELEGRAM_TOKEN", "")

	_, _, err := runCLI(t, []string{"upload", "--url", "https://www.youtube.com/@show"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "telegram.token is required") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestUploadRejectsConfiguredTaskName(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithTask("show", "https://www.youtube.com/@show"))
	_, _, err := runCLI(t, []string{"upload", "--url", "https://www.youtube.com/@show", "--name", "show"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already configured") {
		t.Fatalf("expected duplicate task error, got %v", err)
	}
}

func TestUploadFlagsOverrideConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cmd := newUploadCommand(newCommandContext(new(string), new(string)))
	if err := cmd.ParseFlags([]string{
		"--url", "https://example.bandcamp.com/album/one",
		"--telegram", "@music",
		"--bitrate", "128",
		"--convert", "Never",
		"--order", "oldest",
		"-s", "a,b",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	flags := uploadFlags{}
	flags.url, _ = cmd.Flags().GetString("url")
	flags.chat, _ = cmd.Flags().GetString("telegram")
	flags.bitrate, _ = cmd.Flags().GetInt("bitrate")
	flags.convert, _ = cmd.Flags().GetString("convert")
	flags.order, _ = cmd.Flags().GetString("order")
	flags.suffixes, _ = cmd.Flags().GetStringSlice("suffixes")

	task, err := flags.apply(cfg, cmd)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Encoding.Bitrate != 128 || cfg.Encoding.Convert != config.ConvertNever {
		t.Fatalf("encoding overrides not applied: %+v", cfg.Encoding)
	}
	if cfg.Encoding.SampleRate != config.Default().Encoding.SampleRate {
		t.Fatalf("unset flag changed samplerate to %d", cfg.Encoding.SampleRate)
	}
	if task.Name != "example_bandcamp_com_album_one" {
		t.Fatalf("unexpected task name %q", task.Name)
	}
	if task.Order != config.OrderOldestFirst || task.Chat != "@music" {
		t.Fatalf("unexpected task %+v", task)
	}
	if got := task.Roots(); len(got) != 2 || got[1] != "https://example.bandcamp.com/album/one/b" {
		t.Fatalf("unexpected roots %v", got)
	}
	if filepath.Base(task.Cache) != "example_bandcamp_com_album_one.csv" {
		t.Fatalf("unexpected cache path %q", task.Cache)
	}
}

func TestTaskNameFromURL(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/@show/videos": "youtube_com_show_videos",
		"https://artist.bandcamp.com":          "artist_bandcamp_com",
		"not a url":                            "not_a_url",
	}
	for in, want := range tests {
		if got := taskNameFromURL(in); got != want {
			t.Errorf("taskNameFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
