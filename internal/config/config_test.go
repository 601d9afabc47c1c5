package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"podcaster/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokenAndExpandsPaths(t *testing.T) {
	t.Setenv("PODCASTER_TELEGRAM_TOKEN", "env-token")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCache := filepath.Join(tempHome, ".local", "share", "podcaster", "cache")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.Telegram.Token)
	}
	if cfg.Encoding.Bitrate != 80 || cfg.Encoding.SampleRate != 32000 || cfg.Encoding.Channels != 1 {
		t.Fatalf("unexpected encoding defaults: %+v", cfg.Encoding)
	}
	if cfg.Upload.Order != config.OrderAuto {
		t.Fatalf("unexpected order default %q", cfg.Upload.Order)
	}
	if cfg.SizeLimitBytes() != 49<<20 {
		t.Fatalf("unexpected size limit %d", cfg.SizeLimitBytes())
	}
	if err := cfg.RequireTelegram(); err != nil {
		t.Fatalf("RequireTelegram: %v", err)
	}
}

func TestLoadCustomConfigTasks(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PODCASTER_TELEGRAM_TOKEN", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[telegram]
token = "file-token"
default_chat = "@fallback"

[upload]
order = "oldest-first"

[[tasks]]
name = "Some Channel"
url = "https://www.youtube.com/@some"
suffixes = ["videos", "/streams/"]
order = "newest"

[[tasks]]
url = "https://artist.bandcamp.com"
chat = "@bandcamp"
cache = "~/bandcamp.csv"
link_type = "TRACK"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.Telegram.Token != "file-token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Upload.Order != config.OrderOldestFirst {
		t.Fatalf("upload order = %q", cfg.Upload.Order)
	}
	if len(cfg.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(cfg.Tasks))
	}

	first := cfg.Tasks[0]
	roots := first.Roots()
	if len(roots) != 2 || roots[0] != "https://www.youtube.com/@some/videos" || roots[1] != "https://www.youtube.com/@some/streams" {
		t.Fatalf("unexpected roots %v", roots)
	}
	if cfg.OrderFor(first) != config.OrderNewestFirst {
		t.Fatalf("task order = %q", cfg.OrderFor(first))
	}
	if cfg.ChatFor(first) != "@fallback" {
		t.Fatalf("chat fallback = %q", cfg.ChatFor(first))
	}
	if want := filepath.Join(cfg.Paths.CacheDir, "some_channel.csv"); first.Cache != want {
		t.Fatalf("derived cache = %q want %q", first.Cache, want)
	}

	second := cfg.Tasks[1]
	if second.Name != "task-2" {
		t.Fatalf("unnamed task got %q", second.Name)
	}
	if second.LinkType != config.LinkTrack {
		t.Fatalf("link type = %q", second.LinkType)
	}
	if second.Cache != filepath.Join(tempHome, "bandcamp.csv") {
		t.Fatalf("cache = %q", second.Cache)
	}
	if cfg.OrderFor(second) != config.OrderOldestFirst {
		t.Fatalf("order fallback = %q", cfg.OrderFor(second))
	}
	if roots := second.Roots(); len(roots) != 1 || roots[0] != second.URL {
		t.Fatalf("unexpected roots %v", roots)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"convert", func(c *config.Config) { c.Encoding.Convert = "sometimes" }, "encoding.convert"},
		{"channels", func(c *config.Config) { c.Encoding.Channels = 6 }, "encoding.channels"},
		{"order", func(c *config.Config) { c.Upload.Order = "random" }, "upload.order"},
		{"delimiter", func(c *config.Config) { c.Cache.Delimiter = ";;" }, "cache.delimiter"},
		{"same chars", func(c *config.Config) { c.Cache.Quote = "," }, "must differ"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"task url", func(c *config.Config) {
			c.Tasks = []config.Task{{Name: "a", URL: "ftp://x", LinkType: config.LinkPlaylist}}
		}, "tasks[0].url"},
		{"task link", func(c *config.Config) {
			c.Tasks = []config.Task{{Name: "a", URL: "https://x", LinkType: "album"}}
		}, "link_type"},
		{"duplicate names", func(c *config.Config) {
			c.Tasks = []config.Task{
				{Name: "a", URL: "https://x", LinkType: config.LinkPlaylist},
				{Name: "a", URL: "https://y", LinkType: config.LinkPlaylist},
			}
		}, "not unique"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestRequireTelegramWithoutToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	err := cfg.RequireTelegram()
	if err == nil || !strings.Contains(err.Error(), "PODCASTER_TELEGRAM_TOKEN") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.Encoding.Bitrate != 80 {
		t.Fatalf("sample bitrate = %d", decoded.Encoding.Bitrate)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("Load(sample): %v", err)
	}
}

func TestNormalizeOrder(t *testing.T) {
	cases := map[string]string{
		"newest_first": config.OrderNewestFirst,
		"Newest-First": config.OrderNewestFirst,
		"reverse":      config.OrderNewestFirst,
		"oldest":       config.OrderOldestFirst,
		" AUTO ":       config.OrderAuto,
		"random":       "random",
	}
	for in, want := range cases {
		if got := config.NormalizeOrder(in); got != want {
			t.Fatalf("NormalizeOrder(%q) = %q want %q", in, got, want)
		}
	}
}

func TestAddTaskAppliesDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.CacheDir = t.TempDir()

	task, err := cfg.AddTask(config.Task{Name: "My Show", URL: "https://www.youtube.com/@show", Order: "newest"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.Cache != filepath.Join(cfg.Paths.CacheDir, "my_show.csv") {
		t.Fatalf("cache = %q", task.Cache)
	}
	if task.Order != config.OrderNewestFirst || task.LinkType != config.LinkPlaylist {
		t.Fatalf("task = %+v", task)
	}
	if got, ok := cfg.TaskByName("My Show"); !ok || got.URL != task.URL {
		t.Fatalf("TaskByName = %+v, %v", got, ok)
	}

	if _, err := cfg.AddTask(config.Task{Name: "My Show", URL: "https://example.com/other"}); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
	if _, err := cfg.AddTask(config.Task{URL: "ftp://example.com"}); err == nil {
		t.Fatal("expected non-http url to be rejected")
	}
	if len(cfg.Tasks) != 1 {
		t.Fatalf("rejected tasks were kept: %d", len(cfg.Tasks))
	}
}
