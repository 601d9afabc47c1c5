package upload

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"podcaster/internal/cache"
	"podcaster/internal/catalog"
	"podcaster/internal/clock"
	"podcaster/internal/encoding"
	"podcaster/internal/retry"
	"podcaster/internal/services"
	"podcaster/internal/telegram"
)

const channelURL = "https://www.youtube.com/@chan/videos"

func ytItem(id string, uploaded int64) *catalog.Item {
	return catalog.NewItem(catalog.Item{
		Meta:       catalog.Meta{URL: "https://www.youtube.com/watch?v=" + id, Title: id, Available: true},
		Uploader:   "chan",
		UploadedAt: time.Unix(uploaded, 0),
		Duration:   time.Minute,
		Thumbnail:  "https://i.ytimg.com/" + id + ".jpg",
	})
}

// flatItem is an entry as listed by a flat playlist dump: no upload time.
func flatItem(url, title string) *catalog.Item {
	return catalog.NewItem(catalog.Item{
		Meta:     catalog.Meta{URL: url, Title: title, Available: true},
		Uploader: "artist",
	})
}

func collection(url, title string, children ...catalog.Node) *catalog.Collection {
	return catalog.NewCollection(catalog.Meta{URL: url, Title: title, Available: true}, children)
}

type fakeCatalog struct {
	mu        sync.Mutex
	roots     map[string]catalog.Node
	resolved  map[string]*catalog.Item
	failures  map[string]error
	downloads []string
	audio     map[string][]byte
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		roots:    map[string]catalog.Node{},
		resolved: map[string]*catalog.Item{},
		failures: map[string]error{},
		audio:    map[string][]byte{},
	}
}

func (f *fakeCatalog) Fetch(_ context.Context, url string) (catalog.Node, error) {
	node, ok := f.roots[url]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "fake", "fetch", url, nil)
	}
	return node, nil
}

func (f *fakeCatalog) FetchItem(ctx context.Context, url string) (*catalog.Item, error) {
	node, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return node.(*catalog.Item), nil
}

func (f *fakeCatalog) Resolve(_ context.Context, item *catalog.Item) (*catalog.Item, error) {
	if full, ok := f.resolved[item.URL]; ok {
		return full, nil
	}
	return item, nil
}

func (f *fakeCatalog) Download(_ context.Context, item *catalog.Item, _ string, _ int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[item.URL]; err != nil {
		return nil, err
	}
	f.downloads = append(f.downloads, item.URL)
	if data, ok := f.audio[item.URL]; ok {
		return data, nil
	}
	return []byte("audio:" + item.Title), nil
}

func (f *fakeCatalog) Thumbnail(context.Context, string) ([]byte, error) {
	return []byte("image"), nil
}

type fakeEncoder struct {
	duration time.Duration
	estimate int64
	encodes  int
	tags     []encoding.Tags
}

func (e *fakeEncoder) Duration(context.Context, []byte) (time.Duration, error) {
	if e.duration == 0 {
		return time.Minute, nil
	}
	return e.duration, nil
}

func (e *fakeEncoder) EstimateEncodedSize(_ context.Context, raw []byte, _ int) (int64, error) {
	if e.estimate == 0 {
		return int64(len(raw)), nil
	}
	return e.estimate, nil
}

func (e *fakeEncoder) Encode(_ context.Context, raw []byte, _ encoding.Settings) ([]byte, error) {
	e.encodes++
	return raw, nil
}

func (e *fakeEncoder) Tag(_ context.Context, audio []byte, tags encoding.Tags) ([]byte, error) {
	e.tags = append(e.tags, tags)
	return audio, nil
}

func (e *fakeEncoder) ScaleCover(_ context.Context, image []byte, _ int) ([]byte, error) {
	return append([]byte("scaled:"), image...), nil
}

func (e *fakeEncoder) Slice(_ context.Context, _ []byte, _, length time.Duration) ([]byte, error) {
	return []byte(length.String()), nil
}

type delivery struct {
	title    string
	album    string
	silent   bool
	duration time.Duration
	cover    string
}

type fakeSink struct {
	deliveries []delivery
	failures   map[string]error
}

func (s *fakeSink) Deliver(_ context.Context, audio telegram.Audio, tags telegram.Tags, silent bool) error {
	if err := s.failures[tags.Title]; err != nil {
		return err
	}
	s.deliveries = append(s.deliveries, delivery{
		title:    tags.TitleWithPart(),
		album:    tags.Album,
		silent:   silent,
		duration: audio.Duration,
		cover:    string(tags.Cover),
	})
	return nil
}

func (s *fakeSink) titles() []string {
	out := make([]string, len(s.deliveries))
	for i, d := range s.deliveries {
		out[i] = d.title
	}
	return out
}

func openCache(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.csv"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testScheduler() *retry.Scheduler {
	return retry.New(time.Second, retry.WithClock(clock.Fake(time.Unix(0, 0))))
}

func newTestUploader(cat Catalog, enc Encoder, sink Sink, store *cache.Store, opts Options) *Uploader {
	if opts.Task == "" {
		opts.Task = "test"
	}
	return New(cat, enc, sink, store, opts, WithRetry(testScheduler()), WithClock(clock.Fake(time.Unix(1700000000, 0))))
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
