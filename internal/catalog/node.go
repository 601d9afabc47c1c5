package catalog

import (
	"context"
	"time"

	"podcaster/internal/textutil"
)

// Meta carries the fields shared by items and collections.
type Meta struct {
	URL       string
	Title     string
	Available bool
}

// Info returns the shared node fields.
func (m Meta) Info() Meta { return m }

// Node is implemented by *Item and *Collection only.
type Node interface {
	Info() Meta
	isNode()
}

// Item is a single media entry. Items are immutable once fetched.
type Item struct {
	Meta
	Uploader        string
	SimplifiedTitle string
	UploadedAt      time.Time
	Duration        time.Duration
	Liveness        Liveness
	Thumbnail       string
}

// NewItem fills SimplifiedTitle and normalizes UploadedAt to whole UTC
// seconds.
func NewItem(item Item) *Item {
	if item.SimplifiedTitle == "" {
		item.SimplifiedTitle = textutil.SimplifyTitle(item.Title)
	}
	if !item.UploadedAt.IsZero() {
		item.UploadedAt = item.UploadedAt.UTC().Truncate(time.Second)
	}
	item.Duration = item.Duration.Truncate(time.Second)
	return &item
}

// Unavailable returns an item that could not be fetched. Only its URL is
// known.
func Unavailable(url string) *Item {
	return &Item{Meta: Meta{URL: url}}
}

// Eligible reports whether the item can be delivered: it must be available
// and its recording must be complete.
func (i *Item) Eligible() bool {
	return i.Available && i.Liveness.Eligible()
}

func (*Item) isNode() {}

// Loader produces the children of a collection.
type Loader func(ctx context.Context) ([]Node, error)

// Collection is an ordered list of child nodes. It is not safe for
// concurrent use.
type Collection struct {
	Meta
	Uploader  string
	Thumbnail string

	load     Loader
	loaded   bool
	children []Node
}

// NewCollection returns a collection with a fixed child list.
func NewCollection(meta Meta, children []Node) *Collection {
	return &Collection{Meta: meta, loaded: true, children: children}
}

// NewLazyCollection returns a collection whose children are fetched on first
// use. A failed load is not cached; the next call tries again.
func NewLazyCollection(meta Meta, load Loader) *Collection {
	return &Collection{Meta: meta, load: load}
}

// Children returns the child nodes in source order.
func (c *Collection) Children(ctx context.Context) ([]Node, error) {
	if c.loaded {
		return c.children, nil
	}
	if c.load == nil {
		c.loaded = true
		return nil, nil
	}
	children, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.children = children
	c.loaded = true
	return children, nil
}

func (*Collection) isNode() {}

// Reversed returns a copy of nodes in reverse order.
func Reversed(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}
