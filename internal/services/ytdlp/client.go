package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"podcaster/internal/catalog"
	"podcaster/internal/logging"
	"podcaster/internal/services"
)

const userAgent = "podcaster/1.0"

var commandContext = exec.CommandContext

// Option configures the Client.
type Option func(*Client)

// WithBinary overrides the yt-dlp executable.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithHTTPClient overrides the client used for thumbnail downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "ytdlp")
		}
	}
}

// Client runs yt-dlp.
type Client struct {
	binary string
	http   *http.Client
	logger *slog.Logger
}

// New constructs a Client using defaults.
func New(opts ...Option) *Client {
	c := &Client{
		binary: "yt-dlp",
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch lists url. Playlists, channels and albums become collections whose
// nested listings load lazily; anything else becomes an item.
func (c *Client) Fetch(ctx context.Context, url string) (catalog.Node, error) {
	root, err := c.dump(ctx, "fetch", "--flat-playlist", url)
	if err != nil {
		return nil, err
	}
	return c.node(root, url), nil
}

// FetchItem resolves url as a single item even when it belongs to a playlist.
func (c *Client) FetchItem(ctx context.Context, url string) (*catalog.Item, error) {
	root, err := c.dump(ctx, "fetch item", "--no-playlist", url)
	if err != nil {
		return nil, err
	}
	item := root.item()
	if item.URL == "" {
		item.URL = url
	}
	return item, nil
}

// Resolve fetches full metadata for an item listed from a flat playlist.
func (c *Client) Resolve(ctx context.Context, item *catalog.Item) (*catalog.Item, error) {
	return c.FetchItem(ctx, item.URL)
}

// Download streams the best audio for item. A non-empty format selects that
// container; otherwise the best audio at or below maxBitrateKbps is
// preferred.
func (c *Client) Download(ctx context.Context, item *catalog.Item, format string, maxBitrateKbps int) ([]byte, error) {
	args := []string{
		"--quiet", "--no-warnings", "--no-progress", "--no-playlist",
		"-f", formatSelector(format, maxBitrateKbps),
		"-o", "-",
		item.URL,
	}
	out, err := c.run(ctx, "download", args)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrTransient, "ytdlp", "download", "empty audio stream", nil)
	}
	c.logger.Debug("downloaded audio",
		logging.String(logging.FieldItemURL, item.URL),
		logging.Int64("size_bytes", int64(len(out))),
	)
	return out, nil
}

// Thumbnail downloads an image over HTTP.
func (c *Client) Thumbnail(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build thumbnail request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ytdlp", "thumbnail", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		marker := services.ErrExternalTool
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			marker = services.ErrTransient
		}
		return nil, services.Wrap(marker, "ytdlp", "thumbnail", fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	return io.ReadAll(resp.Body)
}

func formatSelector(format string, maxBitrateKbps int) string {
	if format = strings.TrimSpace(format); format != "" {
		return fmt.Sprintf("bestaudio[ext=%s]/bestaudio", format)
	}
	if maxBitrateKbps > 0 {
		return fmt.Sprintf("bestaudio[abr<=%s]/bestaudio", strconv.Itoa(maxBitrateKbps))
	}
	return "bestaudio"
}

func (c *Client) node(i info, fallbackURL string) catalog.Node {
	if !i.isCollection() {
		item := i.item()
		if item.URL == "" {
			item.URL = fallbackURL
		}
		return item
	}
	meta := catalog.Meta{URL: i.pageURL(), Title: i.Title, Available: i.available()}
	if meta.URL == "" {
		meta.URL = fallbackURL
	}
	if i.Type == "playlist" {
		children := make([]catalog.Node, 0, len(i.Entries))
		for _, entry := range i.Entries {
			children = append(children, c.node(entry, ""))
		}
		collection := catalog.NewCollection(meta, children)
		collection.Uploader = i.uploader()
		collection.Thumbnail = i.thumbnail()
		return collection
	}
	url := meta.URL
	collection := catalog.NewLazyCollection(meta, func(ctx context.Context) ([]catalog.Node, error) {
		node, err := c.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		if nested, ok := node.(*catalog.Collection); ok {
			return nested.Children(ctx)
		}
		return []catalog.Node{node}, nil
	})
	collection.Uploader = i.uploader()
	return collection
}

func (c *Client) dump(ctx context.Context, operation string, mode string, url string) (info, error) {
	out, err := c.run(ctx, operation, []string{"--quiet", "--no-warnings", "-J", mode, url})
	if err != nil {
		return info{}, err
	}
	var root info
	if err := json.Unmarshal(out, &root); err != nil {
		return info{}, services.Wrap(services.ErrExternalTool, "ytdlp", operation, "decode metadata", err)
	}
	return root, nil
}

func (c *Client) run(ctx context.Context, operation string, args []string) ([]byte, error) {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		message := strings.TrimSpace(stderr.String())
		return nil, services.Wrap(classify(message), "ytdlp", operation, message, err)
	}
	return stdout.Bytes(), nil
}

// classify maps yt-dlp error output onto service markers.
func classify(stderr string) error {
	lower := strings.ToLower(stderr)
	for _, token := range []string{
		"private video",
		"video unavailable",
		"has been removed",
		"members-only",
		"join this channel",
		"sign in to confirm your age",
		"not available in your country",
		"this live event will begin",
		"premieres in",
	} {
		if strings.Contains(lower, token) {
			return services.ErrUnavailable
		}
	}
	for _, token := range []string{
		"http error 429",
		"http error 5",
		"timed out",
		"connection reset",
		"temporary failure in name resolution",
		"incompleteread",
		"remote end closed",
	} {
		if strings.Contains(lower, token) {
			return services.ErrTransient
		}
	}
	return services.ErrExternalTool
}
