package upload

import (
	"context"
	"time"

	"podcaster/internal/catalog"
	"podcaster/internal/encoding"
	"podcaster/internal/history"
	"podcaster/internal/telegram"
)

// Catalog lists catalogs and retrieves raw audio and artwork.
type Catalog interface {
	Fetch(ctx context.Context, url string) (catalog.Node, error)
	FetchItem(ctx context.Context, url string) (*catalog.Item, error)
	Resolve(ctx context.Context, item *catalog.Item) (*catalog.Item, error)
	Download(ctx context.Context, item *catalog.Item, format string, maxBitrateKbps int) ([]byte, error)
	Thumbnail(ctx context.Context, url string) ([]byte, error)
}

// Encoder transcodes, tags and slices audio.
type Encoder interface {
	Duration(ctx context.Context, audio []byte) (time.Duration, error)
	EstimateEncodedSize(ctx context.Context, raw []byte, bitrateKbps int) (int64, error)
	Encode(ctx context.Context, raw []byte, settings encoding.Settings) ([]byte, error)
	Tag(ctx context.Context, audio []byte, tags encoding.Tags) ([]byte, error)
	ScaleCover(ctx context.Context, image []byte, size int) ([]byte, error)
	Slice(ctx context.Context, audio []byte, start, length time.Duration) ([]byte, error)
}

// Sink delivers one artifact and returns once it was accepted.
type Sink interface {
	Deliver(ctx context.Context, audio telegram.Audio, tags telegram.Tags, silent bool) error
}

// History records accepted messages. It is optional.
type History interface {
	Record(ctx context.Context, d history.Delivery) (int64, error)
}
