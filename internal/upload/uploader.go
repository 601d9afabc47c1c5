package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"podcaster/internal/cache"
	"podcaster/internal/catalog"
	"podcaster/internal/clock"
	"podcaster/internal/config"
	"podcaster/internal/encoding"
	"podcaster/internal/history"
	"podcaster/internal/logging"
	"podcaster/internal/metrics"
	"podcaster/internal/retry"
	"podcaster/internal/services"
	"podcaster/internal/split"
	"podcaster/internal/telegram"
)

const (
	coverSize    = 150
	unknownAlbum = "UnknownAlbum"
	// Auto conversion only pays off when it saves at least a tenth.
	convertRatio = 0.9
)

// errCache marks failures writing the cache file. They end the run.
var errCache = errors.New("cache write failed")

// Options tune one Uploader.
type Options struct {
	Task      string
	Chat      string
	Order     Order
	Convert   string
	Format    string
	LinkType  string
	Settings  encoding.Settings
	SizeLimit int64
}

// Summary counts what a run did.
type Summary struct {
	Delivered int
	Parts     int
	Cached    int
	Skipped   int
	Failed    int
	Bytes     int64
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithRetry replaces the scheduler used for network operations.
func WithRetry(s *retry.Scheduler) Option {
	return func(u *Uploader) {
		if s != nil {
			u.retry = s
		}
	}
}

// WithHistory records every accepted message.
func WithHistory(h History) Option {
	return func(u *Uploader) { u.history = h }
}

// WithMetrics counts deliveries, skips and failures.
func WithMetrics(r *metrics.Recorder) Option {
	return func(u *Uploader) { u.metrics = r }
}

// WithLogger sets the uploader logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logging.NewComponentLogger(logger, "upload")
		}
	}
}

// WithClock replaces the wall clock used for history timestamps.
func WithClock(c clock.Clock) Option {
	return func(u *Uploader) {
		if c != nil {
			u.clock = c
		}
	}
}

// Uploader mirrors catalogs into a sink.
type Uploader struct {
	catalog  Catalog
	encoder  Encoder
	sink     Sink
	cache    *cache.Store
	splitter *split.Splitter
	retry    *retry.Scheduler
	history  History
	metrics  *metrics.Recorder
	clock    clock.Clock
	logger   *slog.Logger
	opts     Options
}

// New constructs an Uploader writing to store.
func New(cat Catalog, enc Encoder, sink Sink, store *cache.Store, opts Options, options ...Option) *Uploader {
	u := &Uploader{
		catalog: cat,
		encoder: enc,
		sink:    sink,
		cache:   store,
		retry:   retry.New(3 * time.Second),
		clock:   clock.Real(),
		logger:  logging.NewComponentLogger(logging.NewNop(), "upload"),
		opts:    opts,
	}
	for _, opt := range options {
		opt(u)
	}
	if u.opts.SizeLimit <= 0 {
		u.opts.SizeLimit = 49 << 20
	}
	u.splitter = split.New(enc, u.opts.SizeLimit, u.logger)
	return u
}

type signal int

const (
	continueSibling signal = iota
	stopFrame
)

// pass is the state of one Run. It is passed down the traversal explicitly.
type pass struct {
	// notified is set once a message went out with notifications enabled;
	// every later message of the run is silent.
	notified bool
	summary  Summary
}

// Run processes every root URL in order. An Auto order is resolved once,
// before the first root is fetched.
func (u *Uploader) Run(ctx context.Context, urls []string) (Summary, error) {
	order := u.opts.Order.resolve(u.cache.Empty())
	logger := logging.WithContext(ctx, u.logger)
	logger.Info("upload started",
		logging.String("order", order.String()),
		logging.Int("roots", len(urls)),
		logging.Int("cached_entries", u.cache.Len()),
	)

	p := &pass{}
	for _, url := range urls {
		if err := u.uploadRoot(ctx, url, order, p); err != nil {
			return p.summary, err
		}
	}

	s := p.summary
	logger.Info("upload finished",
		logging.Int("delivered", s.Delivered),
		logging.Int("parts", s.Parts),
		logging.Int("cached", s.Cached),
		logging.Int("skipped", s.Skipped),
		logging.Int("failed", s.Failed),
		logging.Int64("delivered_bytes", s.Bytes),
	)
	return s, nil
}

func (u *Uploader) uploadRoot(ctx context.Context, url string, order Order, p *pass) error {
	ctx = services.WithCollection(ctx, url)
	root, err := u.fetchRoot(ctx, url)
	if err != nil {
		return u.failed(ctx, url, "fetch", err, p)
	}
	breakOnFirst := order == NewestFirst
	switch n := root.(type) {
	case *catalog.Collection:
		_, err = u.walk(ctx, n, order, breakOnFirst, p)
	case *catalog.Item:
		_, err = u.visitItem(ctx, n, "", breakOnFirst, p)
	default:
		err = fmt.Errorf("unsupported catalog node %T", root)
	}
	return err
}

func (u *Uploader) fetchRoot(ctx context.Context, url string) (catalog.Node, error) {
	if u.opts.LinkType == config.LinkTrack {
		return retry.Do(ctx, u.retry, "fetch "+url, func(ctx context.Context) (catalog.Node, error) {
			item, err := u.catalog.FetchItem(ctx, url)
			if err != nil {
				return nil, err
			}
			return item, nil
		})
	}
	return retry.Do(ctx, u.retry, "fetch "+url, func(ctx context.Context) (catalog.Node, error) {
		return u.catalog.Fetch(ctx, url)
	})
}

// walk visits the children of c. Its signal tells the caller whether the
// frame ended early; the caller's own loop is never stopped by it.
func (u *Uploader) walk(ctx context.Context, c *catalog.Collection, order Order, breakOnFirst bool, p *pass) (signal, error) {
	children, err := u.children(ctx, c)
	if err != nil {
		return continueSibling, u.failed(ctx, c.URL, "list", err, p)
	}
	if order == OldestFirst {
		children = catalog.Reversed(children)
	}
	ctx = services.WithCollection(ctx, collectionName(c))

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return stopFrame, err
		}
		var sig signal
		switch n := child.(type) {
		case *catalog.Collection:
			sig, err = u.visitCollection(ctx, n, order, p)
		case *catalog.Item:
			sig, err = u.visitItem(ctx, n, c.Title, breakOnFirst, p)
		}
		if err != nil {
			return stopFrame, err
		}
		if sig == stopFrame {
			logging.WithContext(ctx, u.logger).Debug("frame stopped at cached entry",
				logging.String("stopped_at", child.Info().URL),
			)
			return stopFrame, nil
		}
	}
	return continueSibling, nil
}

func (u *Uploader) visitCollection(ctx context.Context, c *catalog.Collection, order Order, p *pass) (signal, error) {
	if !c.Available {
		u.skip(ctx, c.URL, "unavailable", p)
		return continueSibling, nil
	}
	children, err := u.children(ctx, c)
	if err != nil {
		return continueSibling, u.failed(ctx, c.URL, "list", err, p)
	}
	if len(children) == 0 {
		u.skip(ctx, c.URL, "empty", p)
		return continueSibling, nil
	}

	cached, err := u.contains(ctx, c)
	if err != nil {
		return continueSibling, u.failed(ctx, c.URL, "cache lookup", err, p)
	}
	if cached {
		p.summary.Cached++
		if order == OldestFirst {
			return continueSibling, nil
		}
		return stopFrame, nil
	}

	logging.WithContext(ctx, u.logger).Info("entering collection",
		logging.String("url", c.URL),
		logging.String("title", c.Title),
		logging.Int("children", len(children)),
	)
	failedBefore := p.summary.Failed
	if _, err := u.walk(ctx, c, NewestFirst, order == NewestFirst, p); err != nil {
		return stopFrame, err
	}
	// Items of sources without native ids can drift between listings, so a
	// finished album is remembered as a whole.
	if catalog.SourceOf(c.URL) != catalog.SourceYouTube && p.summary.Failed == failedBefore {
		if err := u.cache.AddCollection(c); err != nil {
			return stopFrame, fmt.Errorf("%w: %s: %w", errCache, c.URL, err)
		}
	}
	return continueSibling, nil
}

func (u *Uploader) visitItem(ctx context.Context, item *catalog.Item, album string, breakOnFirst bool, p *pass) (signal, error) {
	ctx = services.WithItemURL(ctx, item.URL)
	if !item.Available {
		u.skip(ctx, item.URL, "unavailable", p)
		return continueSibling, nil
	}

	// Fingerprint keys need full metadata; native ids do not.
	// A fingerprint key needs uploader and upload time, which flat listings of
	// non-native sources lack, so these items are resolved before the lookup.
	resolved := false
	if _, native := catalog.NativeID(item.URL); !native && item.UploadedAt.IsZero() {
		full, err := u.resolve(ctx, item)
		if err != nil {
			return continueSibling, u.itemError(ctx, item.URL, "resolve", err, p)
		}
		item, resolved = full, true
	}
	if !item.Eligible() {
		u.skip(ctx, item.URL, item.Liveness.String(), p)
		return continueSibling, nil
	}

	cached, err := u.contains(ctx, item)
	if err != nil {
		return continueSibling, u.failed(ctx, item.URL, "cache lookup", err, p)
	}
	if !cached && !resolved && item.UploadedAt.IsZero() {
		full, err := u.resolve(ctx, item)
		if err != nil {
			return continueSibling, u.itemError(ctx, item.URL, "resolve", err, p)
		}
		item = full
		if !item.Eligible() {
			u.skip(ctx, item.URL, item.Liveness.String(), p)
			return continueSibling, nil
		}
		if cached, err = u.contains(ctx, item); err != nil {
			return continueSibling, u.failed(ctx, item.URL, "cache lookup", err, p)
		}
	}
	if cached {
		p.summary.Cached++
		if breakOnFirst {
			return stopFrame, nil
		}
		return continueSibling, nil
	}

	if err := u.deliver(ctx, item, album, p); err != nil {
		return continueSibling, u.itemError(ctx, item.URL, "deliver", err, p)
	}
	return continueSibling, nil
}

// deliver downloads, converts, tags, splits and sends item, then caches it.
func (u *Uploader) deliver(ctx context.Context, item *catalog.Item, album string, p *pass) error {
	logger := logging.WithContext(ctx, u.logger)
	logger.Info("downloading item",
		logging.String("title", item.Title),
		logging.String("uploader", item.Uploader),
	)

	raw, err := retry.Do(ctx, u.retry, "download "+item.URL, func(ctx context.Context) ([]byte, error) {
		return u.catalog.Download(ctx, item, u.opts.Format, u.opts.Settings.BitrateKbps)
	})
	if err != nil {
		return err
	}
	audio, err := u.convert(ctx, raw)
	if err != nil {
		return err
	}

	duration, err := u.encoder.Duration(ctx, audio)
	if err != nil || duration <= 0 {
		logger.Debug("falling back to catalog duration", logging.Error(err))
		duration = item.Duration
	}
	if album == "" {
		album = unknownAlbum
	}
	tags := telegram.Tags{
		Artist: item.Uploader,
		Album:  album,
		Title:  item.Title,
		Date:   item.UploadedAt,
		Cover:  u.cover(ctx, item),
	}
	tagged, err := u.encoder.Tag(ctx, audio, encoding.Tags{
		Title:  tags.Title,
		Album:  tags.Album,
		Artist: tags.Artist,
		Date:   tags.Date,
		Cover:  tags.Cover,
	})
	if err != nil {
		return err
	}

	artifacts, err := u.splitter.Split(ctx, tagged, duration)
	if err != nil {
		return err
	}
	for _, artifact := range artifacts {
		partTags, length, part, total := tags, duration, 0, 1
		if artifact.Part != nil {
			partTags = tags.WithPart(artifact.Part.Index)
			length, part, total = artifact.Part.Length, artifact.Part.Index, artifact.Part.Total
		}
		size := int64(len(artifact.Data))
		if err := u.sink.Deliver(ctx, telegram.Audio{Data: artifact.Data, Duration: length}, partTags, p.notified); err != nil {
			return err
		}
		p.notified = true
		p.summary.Parts++
		p.summary.Bytes += size
		u.metrics.Part(u.opts.Task, size)
		u.record(ctx, item, partTags.TitleWithPart(), part, total, size)
	}

	if err := u.cache.Add(item); err != nil {
		return fmt.Errorf("%w: %s: %w", errCache, item.URL, err)
	}
	p.summary.Delivered++
	u.metrics.Delivered(u.opts.Task)
	logger.Info("item delivered",
		logging.String("title", item.Title),
		logging.Int("parts", len(artifacts)),
		logging.Int64("audio_bytes", int64(len(tagged))),
		logging.String("key", cache.KeyFor(item)),
	)
	return nil
}

// convert transcodes raw when the policy asks for it. Audio at or above the
// size limit is always transcoded.
func (u *Uploader) convert(ctx context.Context, raw []byte) ([]byte, error) {
	reason := ""
	switch {
	case int64(len(raw)) >= u.splitter.Limit():
		reason = "oversized"
	case u.opts.Convert == config.ConvertAlways:
		reason = "always"
	case u.opts.Convert == config.ConvertNever:
	default:
		estimate, err := u.encoder.EstimateEncodedSize(ctx, raw, u.opts.Settings.BitrateKbps)
		if err != nil {
			return nil, err
		}
		if float64(estimate) < convertRatio*float64(len(raw)) {
			reason = "smaller"
		}
	}
	if reason == "" {
		return raw, nil
	}
	encoded, err := u.encoder.Encode(ctx, raw, u.opts.Settings)
	if err != nil {
		return nil, err
	}
	logging.WithContext(ctx, u.logger).Debug("audio converted",
		logging.String("reason", reason),
		logging.Int64("raw_bytes", int64(len(raw))),
		logging.Int64("encoded_bytes", int64(len(encoded))),
	)
	return encoded, nil
}

// cover returns the scaled thumbnail or nil. Artwork problems never fail an
// item.
func (u *Uploader) cover(ctx context.Context, item *catalog.Item) []byte {
	if item.Thumbnail == "" {
		return nil
	}
	image, err := retry.Do(ctx, u.retry, "thumbnail "+item.URL, func(ctx context.Context) ([]byte, error) {
		return u.catalog.Thumbnail(ctx, item.Thumbnail)
	})
	if err == nil {
		image, err = u.encoder.ScaleCover(ctx, image, coverSize)
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, u.logger), "cover unavailable", "cover_failed",
			logging.String("thumbnail", item.Thumbnail),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the item is delivered without artwork"),
			logging.String(logging.FieldImpact, "missing cover"),
		)
		return nil
	}
	return image
}

func (u *Uploader) resolve(ctx context.Context, item *catalog.Item) (*catalog.Item, error) {
	return retry.Do(ctx, u.retry, "resolve "+item.URL, func(ctx context.Context) (*catalog.Item, error) {
		return u.catalog.Resolve(ctx, item)
	})
}

func (u *Uploader) children(ctx context.Context, c *catalog.Collection) ([]catalog.Node, error) {
	return retry.Do(ctx, u.retry, "list "+c.URL, c.Children)
}

// contains asks the cache about node. Listing failures of nested
// collections keep their service marker; anything else is a cache failure.
func (u *Uploader) contains(ctx context.Context, node catalog.Node) (bool, error) {
	ok, err := retry.Do(ctx, u.retry, "cache lookup "+node.Info().URL, func(ctx context.Context) (bool, error) {
		return u.cache.Contains(ctx, node)
	})
	if err != nil && !services.IsServiceError(err) && ctx.Err() == nil {
		return false, fmt.Errorf("%w: %w", errCache, err)
	}
	return ok, err
}

func (u *Uploader) record(ctx context.Context, item *catalog.Item, title string, part, total int, size int64) {
	if u.history == nil {
		return
	}
	runID, _ := services.RunIDFromContext(ctx)
	_, err := u.history.Record(ctx, history.Delivery{
		RunID:       runID,
		Task:        u.opts.Task,
		Chat:        u.opts.Chat,
		Key:         cache.KeyFor(item),
		URL:         item.URL,
		Title:       title,
		Part:        part,
		Parts:       total,
		SizeBytes:   size,
		DeliveredAt: u.clock.Now(),
	})
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, u.logger), "history record failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [history] path permissions"),
			logging.String(logging.FieldImpact, "delivery missing from the history ledger"),
		)
	}
}

func (u *Uploader) skip(ctx context.Context, url, reason string, p *pass) {
	p.summary.Skipped++
	u.metrics.Skipped(u.opts.Task, reason)
	logging.WithContext(ctx, u.logger).Info("skipping",
		logging.String("url", url),
		logging.String("reason", reason),
	)
}

// itemError treats an unavailable item as a skip and everything else as a
// failure.
func (u *Uploader) itemError(ctx context.Context, url, operation string, err error, p *pass) error {
	if errors.Is(err, services.ErrUnavailable) && ctx.Err() == nil {
		u.skip(ctx, url, "unavailable", p)
		return nil
	}
	return u.failed(ctx, url, operation, err, p)
}

// failed logs a per-item failure and returns nil so the walk continues.
// Cancellation and cache write failures are returned instead.
func (u *Uploader) failed(ctx context.Context, url, operation string, err error, p *pass) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, errCache) {
		return err
	}
	p.summary.Failed++
	u.metrics.Failed(u.opts.Task)
	logging.ErrorWithContext(logging.WithContext(ctx, u.logger), "item failed; skipping", "item_failed",
		logging.String("url", url),
		logging.String("operation", operation),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the item is retried on the next run"),
		logging.String(logging.FieldImpact, "item not delivered"),
	)
	return nil
}

func collectionName(c *catalog.Collection) string {
	if c.Title != "" {
		return c.Title
	}
	return c.URL
}
