package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"podcaster/internal/textutil"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTelegram()
	c.normalizeEncoding()
	c.normalizeUpload()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return c.normalizeTasks()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTelegram() {
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	if c.Telegram.Token == "" {
		if value, ok := os.LookupEnv(tokenEnv); ok {
			c.Telegram.Token = strings.TrimSpace(value)
		}
	}
	c.Telegram.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Telegram.APIBaseURL), "/")
	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = defaultTelegramBaseURL
	}
	c.Telegram.DefaultChat = strings.TrimSpace(c.Telegram.DefaultChat)
	if c.Telegram.RequestTimeout <= 0 {
		c.Telegram.RequestTimeout = defaultTelegramTimeout
	}
	if c.Telegram.RatePerSecond <= 0 {
		c.Telegram.RatePerSecond = defaultTelegramRate
	}
}

func (c *Config) normalizeEncoding() {
	c.Encoding.Format = strings.ToLower(strings.TrimSpace(c.Encoding.Format))
	c.Encoding.Convert = strings.ToLower(strings.TrimSpace(c.Encoding.Convert))
	if c.Encoding.Convert == "" {
		c.Encoding.Convert = defaultConvert
	}
	if c.Encoding.Bitrate == 0 {
		c.Encoding.Bitrate = defaultBitrate
	}
	if c.Encoding.SampleRate == 0 {
		c.Encoding.SampleRate = defaultSampleRate
	}
	if c.Encoding.Channels == 0 {
		c.Encoding.Channels = defaultChannels
	}
}

func (c *Config) normalizeUpload() {
	c.Upload.Order = normalizeOrder(c.Upload.Order)
	if c.Upload.Order == "" {
		c.Upload.Order = defaultOrder
	}
	if c.Upload.RetryInterval <= 0 {
		c.Upload.RetryInterval = defaultRetryInterval
	}
	if c.Upload.SizeLimitMiB <= 0 {
		c.Upload.SizeLimitMiB = defaultSizeLimitMiB
	}
}

func (c *Config) normalizeHistory() error {
	if !c.History.Enabled {
		return nil
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetrics() error {
	var err error
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeTasks() error {
	for i := range c.Tasks {
		task := &c.Tasks[i]
		task.URL = strings.TrimSpace(task.URL)
		task.Name = strings.TrimSpace(task.Name)
		if task.Name == "" {
			task.Name = fmt.Sprintf("%s-%d", defaultUnnamedTaskPrefix, i+1)
		}
		task.Order = normalizeOrder(task.Order)
		task.LinkType = strings.ToLower(strings.TrimSpace(task.LinkType))
		if task.LinkType == "" {
			task.LinkType = defaultLinkType
		}
		task.Chat = strings.TrimSpace(task.Chat)
		if strings.TrimSpace(task.Cache) == "" {
			task.Cache = filepath.Join(c.Paths.CacheDir, cacheFileName(task.Name))
		}
		var err error
		if task.Cache, err = expandPath(task.Cache); err != nil {
			return fmt.Errorf("tasks[%d].cache: %w", i, err)
		}
	}
	return nil
}

// NormalizeOrder maps user spellings of a traversal order onto the canonical
// values. Unknown input is returned lowercased so validation can report it.
func NormalizeOrder(value string) string {
	return normalizeOrder(value)
}

func normalizeOrder(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	switch strings.NewReplacer("-", "_", " ", "_").Replace(value) {
	case "newest_first", "newest", "new_first", "reverse":
		return OrderNewestFirst
	case "oldest_first", "oldest", "old_first":
		return OrderOldestFirst
	case "auto":
		return OrderAuto
	}
	return value
}

func cacheFileName(name string) string {
	return textutil.SanitizeToken(name) + defaultCacheFileSuffix
}

// AddTask appends a task defined outside the config file, such as one built
// from command-line flags. It gets the same defaults and checks as configured
// tasks and is returned in normalized form.
func (c *Config) AddTask(task Task) (Task, error) {
	c.Tasks = append(c.Tasks, task)
	err := c.normalizeTasks()
	if err == nil {
		err = c.validateTasks()
	}
	if err != nil {
		c.Tasks = c.Tasks[:len(c.Tasks)-1]
		return Task{}, err
	}
	return c.Tasks[len(c.Tasks)-1], nil
}

// TaskByName returns the configured task called name.
func (c *Config) TaskByName(name string) (Task, bool) {
	for _, task := range c.Tasks {
		if task.Name == name {
			return task, true
		}
	}
	return Task{}, false
}
