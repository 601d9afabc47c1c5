package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateTasks()
}

func (c *Config) validateEncoding() error {
	switch c.Encoding.Convert {
	case ConvertAlways, ConvertNever, ConvertAuto:
	default:
		return fmt.Errorf("encoding.convert must be one of always, never, auto (got %q)", c.Encoding.Convert)
	}
	if c.Encoding.Bitrate < 0 {
		return errors.New("encoding.bitrate must be positive")
	}
	if c.Encoding.SampleRate < 0 {
		return errors.New("encoding.samplerate must be positive")
	}
	if c.Encoding.Channels < 1 || c.Encoding.Channels > 2 {
		return errors.New("encoding.channels must be 1 (mono) or 2 (stereo)")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if !validOrder(c.Upload.Order) {
		return fmt.Errorf("upload.order must be one of newest_first, oldest_first, auto (got %q)", c.Upload.Order)
	}
	return nil
}

func (c *Config) validateCache() error {
	fields := []struct {
		name  string
		value string
	}{
		{"cache.delimiter", c.Cache.Delimiter},
		{"cache.quote", c.Cache.Quote},
		{"cache.escape", c.Cache.Escape},
	}
	seen := make(map[string]string, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field.value) != 1 {
			return fmt.Errorf("%s must be a single character", field.name)
		}
		if field.value == "\n" || field.value == "\r" {
			return fmt.Errorf("%s must not be a line break", field.name)
		}
		if other, ok := seen[field.value]; ok {
			return fmt.Errorf("%s and %s must differ", other, field.name)
		}
		seen[field.value] = field.name
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateTasks() error {
	names := make(map[string]struct{}, len(c.Tasks))
	for i, task := range c.Tasks {
		if task.URL == "" {
			return fmt.Errorf("tasks[%d].url must be set", i)
		}
		if !strings.HasPrefix(task.URL, "http://") && !strings.HasPrefix(task.URL, "https://") {
			return fmt.Errorf("tasks[%d].url must be an http(s) URL", i)
		}
		if task.Order != "" && !validOrder(task.Order) {
			return fmt.Errorf("tasks[%d].order must be one of newest_first, oldest_first, auto (got %q)", i, task.Order)
		}
		switch task.LinkType {
		case LinkPlaylist, LinkTrack:
		default:
			return fmt.Errorf("tasks[%d].link_type must be playlist or track (got %q)", i, task.LinkType)
		}
		if _, ok := names[task.Name]; ok {
			return fmt.Errorf("tasks[%d].name %q is not unique", i, task.Name)
		}
		names[task.Name] = struct{}{}
	}
	return nil
}

func validOrder(order string) bool {
	switch order {
	case OrderNewestFirst, OrderOldestFirst, OrderAuto:
		return true
	}
	return false
}
