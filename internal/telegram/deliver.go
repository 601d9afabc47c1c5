package telegram

import (
	"context"
	"log/slog"
	"net/http"

	"podcaster/internal/logging"
	"podcaster/internal/retry"
)

// Sender is the transport used by Deliverer.
type Sender interface {
	SendAudio(ctx context.Context, chat string, audio Audio, tags Tags, silent bool) (int, Response, error)
}

// Deliverer sends audio to one chat, retrying until the Bot API answers 200.
type Deliverer struct {
	sender Sender
	chat   string
	retry  *retry.Scheduler
	logger *slog.Logger
}

// NewDeliverer constructs a Deliverer for chat.
func NewDeliverer(sender Sender, chat string, scheduler *retry.Scheduler, logger *slog.Logger) *Deliverer {
	return &Deliverer{
		sender: sender,
		chat:   chat,
		retry:  scheduler,
		logger: logging.NewComponentLogger(logger, "telegram"),
	}
}

// Chat returns the destination chat.
func (d *Deliverer) Chat() string { return d.chat }

// Deliver sends audio and blocks until the message is accepted. Any status
// other than 200 and any transport failure the scheduler considers retriable
// is retried on the scheduler's cadence.
func (d *Deliverer) Deliver(ctx context.Context, audio Audio, tags Tags, silent bool) error {
	_, err := retry.Until(ctx, d.retry, "telegram sendAudio", func(ctx context.Context) (int, error) {
		status, resp, err := d.sender.SendAudio(ctx, d.chat, audio, tags, silent)
		if err != nil {
			return 0, err
		}
		if status != http.StatusOK {
			logging.WarnWithContext(logging.WithContext(ctx, d.logger), "non-200 status from Telegram", "telegram_status",
				logging.Int("status", status),
				logging.String("description", resp.Description),
				logging.Int("retry_after", resp.Parameters.RetryAfter),
				logging.String("title", tags.TitleWithPart()),
				logging.String(logging.FieldErrorHint, statusHint(status)),
				logging.String(logging.FieldImpact, "delivery delayed; the upload is repeated"),
			)
		}
		return status, nil
	}, func(status int) bool { return status == http.StatusOK })
	if err != nil {
		return err
	}
	logging.WithContext(ctx, d.logger).Info("audio delivered",
		logging.String("title", tags.TitleWithPart()),
		logging.Int64("size_bytes", int64(len(audio.Data))),
		logging.Bool("silent", silent),
	)
	return nil
}

func statusHint(status int) string {
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return "Telegram is throttling or unavailable"
	case status == http.StatusUnauthorized || status == http.StatusNotFound:
		return "check telegram.token"
	case status == http.StatusBadRequest || status == http.StatusForbidden:
		return "check the chat id and that the bot may post there"
	case status == http.StatusRequestEntityTooLarge:
		return "lower upload.size_limit_mib"
	}
	return "inspect the description from the Bot API"
}
