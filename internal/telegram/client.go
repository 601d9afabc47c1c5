// Package telegram delivers audio to a chat through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"podcaster/internal/logging"
	"podcaster/internal/services"
	"podcaster/internal/textutil"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	userAgent      = "podcaster/1.0"
)

// Audio is a single deliverable file.
type Audio struct {
	Data     []byte
	Duration time.Duration
}

// Response is the Bot API envelope.
type Response struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL points the client at a different Bot API server.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url = strings.TrimRight(strings.TrimSpace(url), "/"); url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRateLimit bounds requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "telegram")
		}
	}
}

// Client posts to the Bot API.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New constructs a Client for the bot token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Minute},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendAudio uploads one audio message and returns the HTTP status code. A
// transport failure is returned as an error; any HTTP response, successful or
// not, is reported through the status code and decoded envelope.
func (c *Client) SendAudio(ctx context.Context, chat string, audio Audio, tags Tags, silent bool) (int, Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, Response{}, err
	}

	body, contentType, err := c.multipartBody(chat, audio, tags, silent)
	if err != nil {
		return 0, Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendAudio"), body)
	if err != nil {
		return 0, Response{}, fmt.Errorf("build sendAudio request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, Response{}, services.Wrap(services.ErrTransient, "telegram", "sendAudio", "request failed", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var envelope Response
	_ = json.Unmarshal(raw, &envelope)
	if envelope.Description == "" && resp.StatusCode >= 300 {
		envelope.Description = strings.TrimSpace(string(raw))
	}
	return resp.StatusCode, envelope, nil
}

func (c *Client) endpoint(method string) string {
	return c.baseURL + "/bot" + c.token + "/" + method
}

func (c *Client) multipartBody(chat string, audio Audio, tags Tags, silent bool) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"chat_id", chat},
		{"caption", tags.Caption()},
		{"title", tags.TitleWithPart()},
		{"performer", tags.Artist},
		{"protect_content", "false"},
		{"disable_notification", strconv.FormatBool(silent)},
	}
	if audio.Duration > 0 {
		fields = append(fields, [2]string{"duration", strconv.Itoa(int(audio.Duration.Seconds()))})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	if err := writeFile(w, "audio", textutil.AudioFileName(tags.TitleWithPart()), audio.Data); err != nil {
		return nil, "", err
	}
	if len(tags.Cover) > 0 {
		if err := writeFile(w, "thumbnail", "cover.jpg", tags.Cover); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field, name string, data []byte) error {
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return fmt.Errorf("create form file %s: %w", field, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write form file %s: %w", field, err)
	}
	return nil
}
