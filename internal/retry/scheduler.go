package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"podcaster/internal/clock"
	"podcaster/internal/logging"
	"podcaster/internal/services"
)

// Classifier reports whether a failure should be retried.
type Classifier func(error) bool

// Scheduler holds the cadence and collaborators shared by every retry loop.
type Scheduler struct {
	clock     clock.Clock
	interval  time.Duration
	logger    *slog.Logger
	retriable Classifier
	onRetry   func(operation string, err error)
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, typically with clock.Fake in tests.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logging.NewComponentLogger(logger, "retry")
		}
	}
}

// WithClassifier replaces the retriable-failure predicate.
func WithClassifier(c Classifier) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.retriable = c
		}
	}
}

// WithRetryHook registers a callback invoked for every retried failure.
func WithRetryHook(fn func(operation string, err error)) Option {
	return func(s *Scheduler) {
		s.onRetry = fn
	}
}

// New constructs a Scheduler with the given interval between attempt slots.
func New(interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:     clock.Real(),
		interval:  interval,
		logger:    logging.NewNop(),
		retriable: services.IsRetriable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the configured slot length.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Until invokes op until stop accepts its result. Retriable failures are
// logged and retried on the next slot; any other failure is returned as-is.
// A nil stop accepts the first successful result.
func Until[T any](ctx context.Context, s *Scheduler, operation string, op func(context.Context) (T, error), stop func(T) bool) (T, error) {
	var zero T
	start := s.clock.Now()
	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			if !s.retriable(err) {
				return zero, err
			}
		} else if stop == nil || stop(result) {
			return result, nil
		}

		wait := s.nextWait(start, attempt)
		if err != nil {
			s.logRetry(ctx, operation, attempt, wait, err)
		} else {
			s.logger.Debug("scheduling next pass",
				logging.String("operation", operation),
				logging.Int("attempt", attempt),
				logging.Duration("next_in", wait),
			)
		}
		if err := s.clock.Sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
}

// Do invokes op until it stops failing.
func Do[T any](ctx context.Context, s *Scheduler, operation string, op func(context.Context) (T, error)) (T, error) {
	return Until(ctx, s, operation, op, nil)
}

// Run is Do for operations without a result.
func (s *Scheduler) Run(ctx context.Context, operation string, op func(context.Context) error) error {
	_, err := Do(ctx, s, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Repeat invokes op on every slot until ctx is cancelled or op returns a
// failure the classifier rejects. Retriable failures are logged and the loop
// continues. It returns ctx.Err() once the context ends.
func (s *Scheduler) Repeat(ctx context.Context, operation string, op func(context.Context) error) error {
	_, err := Until(ctx, s, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, func(struct{}) bool { return false })
	return err
}

func (s *Scheduler) nextWait(start time.Time, attempt int) time.Duration {
	deadline := start.Add(s.interval * time.Duration(attempt))
	wait := deadline.Sub(s.clock.Now())
	if wait < 0 {
		return 0
	}
	return wait
}

func (s *Scheduler) logRetry(ctx context.Context, operation string, attempt int, wait time.Duration, err error) {
	if s.onRetry != nil {
		s.onRetry(operation, err)
	}
	logging.WarnWithContext(logging.WithContext(ctx, s.logger), "operation failed; retrying", "retry_scheduled",
		logging.String("operation", operation),
		logging.String("error_type", fmt.Sprintf("%T", err)),
		logging.Error(err),
		logging.Int("attempt", attempt),
		logging.Duration("next_in", wait),
		logging.String(logging.FieldErrorHint, "transient failure; the operation is retried at a fixed interval"),
		logging.String(logging.FieldImpact, "processing is paused until the operation succeeds"),
	)
}
