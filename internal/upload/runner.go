package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"podcaster/internal/cache"
	"podcaster/internal/clock"
	"podcaster/internal/config"
	"podcaster/internal/encoding"
	"podcaster/internal/logging"
	"podcaster/internal/metrics"
	"podcaster/internal/retry"
	"podcaster/internal/services"
	"podcaster/internal/telegram"
)

// Deps are the collaborators shared by every task of a run.
type Deps struct {
	Catalog Catalog
	Encoder Encoder
	Sender  telegram.Sender
	History History
	Metrics *metrics.Recorder
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Runner executes configured tasks.
type Runner struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
}

// NewRunner constructs a Runner.
func NewRunner(cfg *config.Config, deps Deps) *Runner {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	return &Runner{cfg: cfg, deps: deps, logger: logging.NewComponentLogger(deps.Logger, "runner")}
}

// RunAll runs every task once under a fresh run id. A failing task does not
// stop the others; the failures are joined into the returned error.
func (r *Runner) RunAll(ctx context.Context) error {
	ctx = services.WithRunID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started", logging.Int("tasks", len(r.cfg.Tasks)))

	var errs []error
	for _, task := range r.cfg.Tasks {
		if _, err := r.RunTask(ctx, task); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.ErrorWithContext(logger, "task failed", "task_failed",
				logging.String(logging.FieldTask, task.Name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the cause and rerun; delivered items stay cached"),
				logging.String(logging.FieldImpact, "remaining items of the task were not processed"),
			)
			errs = append(errs, fmt.Errorf("task %s: %w", task.Name, err))
		}
	}

	r.deps.Metrics.Finished(r.deps.Clock.Now())
	if err := r.deps.Metrics.WriteTextfile(r.cfg.Metrics.Textfile); err != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [metrics] textfile directory"),
			logging.String(logging.FieldImpact, "metrics for this run are missing"),
		)
	}
	return errors.Join(errs...)
}

// Repeat runs RunAll on a fixed cadence until ctx ends. A failed pass is
// logged and the next one starts on schedule.
func (r *Runner) Repeat(ctx context.Context, every time.Duration) error {
	s := retry.New(every,
		retry.WithClock(r.deps.Clock),
		retry.WithLogger(r.deps.Logger),
		retry.WithClassifier(func(err error) bool { return !errors.Is(err, context.Canceled) }),
	)
	r.logger.Info("repeating runs", logging.Duration("every", s.Interval()))
	return s.Repeat(ctx, "run", r.RunAll)
}

// RunTask mirrors one task.
func (r *Runner) RunTask(ctx context.Context, task config.Task) (Summary, error) {
	ctx = services.WithTask(ctx, task.Name)
	order, err := ParseOrder(r.cfg.OrderFor(task))
	if err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "upload", "order", task.Name, err)
	}
	store, err := r.openCache(task)
	if err != nil {
		return Summary{}, err
	}
	defer store.Close()

	scheduler := r.scheduler()
	chat := r.cfg.ChatFor(task)
	sink := telegram.NewDeliverer(r.deps.Sender, chat, scheduler, r.deps.Logger)
	opts := []Option{
		WithRetry(scheduler),
		WithMetrics(r.deps.Metrics),
		WithLogger(r.deps.Logger),
		WithClock(r.deps.Clock),
	}
	if r.deps.History != nil {
		opts = append(opts, WithHistory(r.deps.History))
	}
	u := New(r.deps.Catalog, r.deps.Encoder, sink, store, Options{
		Task:     task.Name,
		Chat:     chat,
		Order:    order,
		Convert:  r.cfg.Encoding.Convert,
		Format:   r.cfg.Encoding.Format,
		LinkType: task.LinkType,
		Settings: encoding.Settings{
			BitrateKbps: r.cfg.Encoding.Bitrate,
			SampleRate:  r.cfg.Encoding.SampleRate,
			Channels:    r.cfg.Encoding.Channels,
		},
		SizeLimit: r.cfg.SizeLimitBytes(),
	}, opts...)

	start := r.deps.Clock.Now()
	summary, err := u.Run(ctx, task.Roots())
	r.deps.Metrics.TaskDuration(task.Name, r.deps.Clock.Now().Sub(start))
	return summary, err
}

// CacheTask marks everything currently listed by task as delivered.
func (r *Runner) CacheTask(ctx context.Context, task config.Task) (int, error) {
	ctx = services.WithTask(ctx, task.Name)
	store, err := r.openCache(task)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return NewCacher(r.deps.Catalog, store, task.LinkType, r.scheduler(), r.deps.Logger).CacheAll(ctx, task.Roots())
}

func (r *Runner) openCache(task config.Task) (*cache.Store, error) {
	dialect, err := cache.ParseDialect(r.cfg.Cache.Delimiter, r.cfg.Cache.Quote, r.cfg.Cache.Escape)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "dialect", "", err)
	}
	store, err := cache.Open(task.Cache, cache.WithDialect(dialect), cache.WithLogger(r.deps.Logger))
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", task.Cache, err)
	}
	return store, nil
}

func (r *Runner) scheduler() *retry.Scheduler {
	interval := time.Duration(r.cfg.Upload.RetryInterval) * time.Second
	return retry.New(interval,
		retry.WithClock(r.deps.Clock),
		retry.WithLogger(r.deps.Logger),
		retry.WithRetryHook(r.deps.Metrics.Retry),
	)
}
