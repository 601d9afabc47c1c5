package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"podcaster/internal/config"
	"podcaster/internal/encoding"
	"podcaster/internal/history"
	"podcaster/internal/logging"
	"podcaster/internal/metrics"
	"podcaster/internal/services/ytdlp"
	"podcaster/internal/telegram"
	"podcaster/internal/upload"
)

type commandContext struct {
	configFlag *string
	logFlag    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logFlag:    logFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logFile := ""
		if c.logFlag != nil {
			logFile = strings.TrimSpace(*c.logFlag)
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, logFile)
	})
	return c.logger, c.loggerErr
}

// session bundles what a delivering command needs. close releases the
// history database.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	runner *upload.Runner
	close  func()
}

// openSession wires the external tools, the sink and the optional history
// and metrics sinks. withSink is false for commands that never deliver.
func (c *commandContext) openSession(ctx context.Context, withSink bool) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if withSink {
		if err := cfg.RequireTelegram(); err != nil {
			return nil, err
		}
	}

	deps := upload.Deps{
		Catalog: ytdlp.New(ytdlp.WithBinary(cfg.YtDlpBinary()), ytdlp.WithLogger(logger)),
		Encoder: encoding.New(encoding.WithBinary(cfg.FFmpegBinary()), encoding.WithProbeBinary(cfg.FFprobeBinary())),
		Sender: telegram.New(cfg.Telegram.Token,
			telegram.WithBaseURL(cfg.Telegram.APIBaseURL),
			telegram.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Telegram.RequestTimeout) * time.Second}),
			telegram.WithRateLimit(cfg.Telegram.RatePerSecond),
			telegram.WithLogger(logger),
		),
		Logger: logger,
	}
	if cfg.Metrics.Textfile != "" {
		deps.Metrics = metrics.New()
	}

	closeFn := func() {}
	if withSink && cfg.History.Enabled {
		store, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			logging.WarnWithContext(logger, "history ledger unavailable", "history_open_failed",
				logging.String("path", cfg.History.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check [history] path or set enabled = false"),
				logging.String(logging.FieldImpact, "deliveries of this run are not recorded"),
			)
		} else {
			deps.History = store
			closeFn = func() { _ = store.Close() }
		}
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		runner: upload.NewRunner(cfg, deps),
		close:  closeFn,
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
