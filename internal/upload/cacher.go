package upload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"podcaster/internal/cache"
	"podcaster/internal/catalog"
	"podcaster/internal/config"
	"podcaster/internal/logging"
	"podcaster/internal/retry"
	"podcaster/internal/services"
)

// Cacher marks a catalog as already delivered without uploading anything.
type Cacher struct {
	catalog  Catalog
	cache    *cache.Store
	retry    *retry.Scheduler
	logger   *slog.Logger
	linkType string
}

// NewCacher constructs a Cacher. A nil scheduler retries every 3 seconds.
func NewCacher(cat Catalog, store *cache.Store, linkType string, scheduler *retry.Scheduler, logger *slog.Logger) *Cacher {
	if scheduler == nil {
		scheduler = retry.New(3*time.Second, retry.WithLogger(logger))
	}
	return &Cacher{
		catalog:  cat,
		cache:    store,
		retry:    scheduler,
		logger:   logging.NewComponentLogger(logger, "cacher"),
		linkType: linkType,
	}
}

// CacheAll wipes the cache and records every available item reachable from
// urls, oldest first. It returns the number of records written.
func (c *Cacher) CacheAll(ctx context.Context, urls []string) (int, error) {
	if err := c.cache.Reset(); err != nil {
		return 0, fmt.Errorf("reset cache: %w", err)
	}
	added := 0
	for _, url := range urls {
		ctx := services.WithCollection(ctx, url)
		root, err := c.fetchRoot(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return added, ctx.Err()
			}
			c.warn(ctx, url, err)
			continue
		}
		n, err := c.cacheNode(ctx, root)
		added += n
		if err != nil {
			return added, err
		}
	}
	logging.WithContext(ctx, c.logger).Info("catalog cached",
		logging.Int("added", added),
		logging.Int("entries", c.cache.Len()),
	)
	return added, nil
}

func (c *Cacher) fetchRoot(ctx context.Context, url string) (catalog.Node, error) {
	return retry.Do(ctx, c.retry, "fetch "+url, func(ctx context.Context) (catalog.Node, error) {
		if c.linkType == config.LinkTrack {
			item, err := c.catalog.FetchItem(ctx, url)
			if err != nil {
				return nil, err
			}
			return item, nil
		}
		return c.catalog.Fetch(ctx, url)
	})
}

func (c *Cacher) cacheNode(ctx context.Context, node catalog.Node) (int, error) {
	switch n := node.(type) {
	case *catalog.Item:
		return c.cacheItem(ctx, n)
	case *catalog.Collection:
		return c.cacheCollection(ctx, n)
	default:
		return 0, fmt.Errorf("unsupported catalog node %T", node)
	}
}

// cacheCollection walks YouTube collections item by item; collections of
// other sources are recorded under their URL.
func (c *Cacher) cacheCollection(ctx context.Context, coll *catalog.Collection) (int, error) {
	children, err := retry.Do(ctx, c.retry, "list "+coll.URL, coll.Children)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		c.warn(ctx, coll.URL, err)
		return 0, nil
	}
	added := 0
	for _, child := range catalog.Reversed(children) {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		nested, isCollection := child.(*catalog.Collection)
		if isCollection && catalog.SourceOf(nested.URL) == catalog.SourceYouTube {
			n, err := c.cacheCollection(ctx, nested)
			added += n
			if err != nil {
				return added, err
			}
			continue
		}
		if !child.Info().Available {
			continue
		}
		if isCollection {
			if err := c.cache.AddCollection(nested); err != nil {
				return added, fmt.Errorf("cache collection %s: %w", nested.URL, err)
			}
			added++
			continue
		}
		n, err := c.cacheItem(ctx, child.(*catalog.Item))
		added += n
		if err != nil {
			return added, err
		}
	}
	return added, nil
}

func (c *Cacher) cacheItem(ctx context.Context, item *catalog.Item) (int, error) {
	if !item.Available {
		return 0, nil
	}
	if _, native := catalog.NativeID(item.URL); !native && item.UploadedAt.IsZero() {
		full, err := retry.Do(ctx, c.retry, "resolve "+item.URL, func(ctx context.Context) (*catalog.Item, error) {
			return c.catalog.Resolve(ctx, item)
		})
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			c.warn(ctx, item.URL, err)
			return 0, nil
		}
		item = full
	}
	if err := c.cache.Add(item); err != nil {
		return 0, fmt.Errorf("cache item %s: %w", item.URL, err)
	}
	c.logger.Debug("item cached",
		logging.String("key", cache.KeyFor(item)),
		logging.String(logging.FieldItemURL, item.URL),
	)
	return 1, nil
}

func (c *Cacher) warn(ctx context.Context, url string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "caching failed; skipping", "cache_item_failed",
		logging.String("url", url),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the entry will be delivered by the next upload run"),
		logging.String(logging.FieldImpact, "entry not marked as delivered"),
	)
}
