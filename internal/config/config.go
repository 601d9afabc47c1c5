package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Telegram contains Bot API credentials and client tuning.
type Telegram struct {
	Token          string  `toml:"token"`
	APIBaseURL     string  `toml:"api_base_url"`
	DefaultChat    string  `toml:"default_chat"`
	RequestTimeout int     `toml:"request_timeout"`
	RatePerSecond  float64 `toml:"rate_per_second"`
}

// Encoding contains audio retrieval and transcode targets.
type Encoding struct {
	Bitrate    int    `toml:"bitrate"`
	SampleRate int    `toml:"samplerate"`
	Channels   int    `toml:"channels"`
	Format     string `toml:"format"`
	Convert    string `toml:"convert"`
}

// Upload contains traversal and delivery tuning.
type Upload struct {
	Order         string `toml:"order"`
	RetryInterval int    `toml:"retry_interval"`
	SizeLimitMiB  int    `toml:"size_limit_mib"`
}

// Cache contains the dialect of the on-disk cache log.
type Cache struct {
	Delimiter string `toml:"delimiter"`
	Quote     string `toml:"quote"`
	Escape    string `toml:"escape"`
}

// History contains configuration for the sqlite delivery ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Task describes one mirrored catalog.
type Task struct {
	Name     string   `toml:"name"`
	URL      string   `toml:"url"`
	Suffixes []string `toml:"suffixes"`
	Chat     string   `toml:"chat"`
	Cache    string   `toml:"cache"`
	Order    string   `toml:"order"`
	LinkType string   `toml:"link_type"`
}

// Roots expands the task URL with its suffixes. The bare URL is used when no
// suffix is configured.
func (t Task) Roots() []string {
	base := strings.TrimRight(t.URL, "/")
	if len(t.Suffixes) == 0 {
		return []string{t.URL}
	}
	roots := make([]string, 0, len(t.Suffixes))
	for _, suffix := range t.Suffixes {
		suffix = strings.Trim(strings.TrimSpace(suffix), "/")
		if suffix == "" {
			roots = append(roots, t.URL)
			continue
		}
		roots = append(roots, base+"/"+suffix)
	}
	return roots
}

// Config encapsulates all configuration values for podcaster.
//
// Configuration sections by subsystem:
//   - Paths: cache and log directories
//   - Telegram: bot credentials and request pacing
//   - Encoding: download format and transcode targets
//   - Upload: traversal order, retry cadence, per-message size limit
//   - Cache: delimiter, quote and escape characters of cache files
//   - History: sqlite delivery ledger
//   - Metrics: Prometheus textfile export
//   - Logging: log format and level
//   - Tasks: mirrored catalogs
type Config struct {
	Paths    Paths    `toml:"paths"`
	Telegram Telegram `toml:"telegram"`
	Encoding Encoding `toml:"encoding"`
	Upload   Upload   `toml:"upload"`
	Cache    Cache    `toml:"cache"`
	History  History  `toml:"history"`
	Metrics  Metrics  `toml:"metrics"`
	Logging  Logging  `toml:"logging"`
	Tasks    []Task   `toml:"tasks"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podcaster.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// YtDlpBinary returns the yt-dlp executable name.
func (c *Config) YtDlpBinary() string {
	return "yt-dlp"
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// ChatFor returns the chat a task delivers to.
func (c *Config) ChatFor(task Task) string {
	if chat := strings.TrimSpace(task.Chat); chat != "" {
		return chat
	}
	return c.Telegram.DefaultChat
}

// OrderFor returns the traversal order of a task, falling back to [upload].
func (c *Config) OrderFor(task Task) string {
	if order := strings.TrimSpace(task.Order); order != "" {
		return order
	}
	return c.Upload.Order
}

// SizeLimitBytes returns the per-message size limit in bytes.
func (c *Config) SizeLimitBytes() int64 {
	return int64(c.Upload.SizeLimitMiB) << 20
}

// RequireTelegram reports whether credentials needed for delivery are present.
func (c *Config) RequireTelegram() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("telegram.token is required. Set %s env var or edit %s (create with 'podcaster config init')", tokenEnv, defaultPath)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
