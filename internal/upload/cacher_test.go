package upload

import (
	"context"
	"testing"

	"podcaster/internal/cache"
	"podcaster/internal/catalog"
	"podcaster/internal/config"
	"podcaster/internal/logging"
)

func TestCacheAllMarksCatalogDelivered(t *testing.T) {
	store := openCache(t)
	if err := store.AddEntry(cache.Entry{Key: "stale"}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	cat := newFakeCatalog()
	album := bandcampAlbum(cat, "https://artist.bandcamp.com/album/first", "First", "one")
	playlist := collection("https://www.youtube.com/playlist?list=PL1", "Playlist", ytItem("p1", 150))
	cat.roots[channelURL] = collection(channelURL, "Chan",
		ytItem("b", 300),
		playlist,
		album,
		catalog.Unavailable("https://www.youtube.com/watch?v=gone"),
		ytItem("a", 100),
	)

	added, err := NewCacher(cat, store, config.LinkPlaylist, testScheduler(), logging.NewNop()).
		CacheAll(context.Background(), []string{channelURL})
	if err != nil {
		t.Fatalf("CacheAll: %v", err)
	}
	if added != 4 {
		t.Fatalf("added = %d, want 4", added)
	}
	if _, ok := store.Lookup("stale"); ok {
		t.Fatal("stale entry survived the reset")
	}
	for _, key := range []string{"a", "b", "p1", cache.URLKey(album.URL)} {
		if _, ok := store.Lookup(key); !ok {
			t.Fatalf("%s not cached", key)
		}
	}
	if _, ok := store.Lookup("gone"); ok {
		t.Fatal("unavailable item cached")
	}

	sink := &fakeSink{}
	if _, err := newTestUploader(cat, &fakeEncoder{}, sink, store, Options{Order: OldestFirst}).
		Run(context.Background(), []string{channelURL}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.deliveries) != 0 {
		t.Fatalf("delivered %v after caching everything", sink.titles())
	}
}

func TestCacheAllResolvesFingerprintKeys(t *testing.T) {
	store := openCache(t)
	cat := newFakeCatalog()
	url := "https://artist.bandcamp.com/track/single"
	cat.roots[url] = flatItem(url, "single")
	full := ytItem("unused", 500)
	full.URL = url
	cat.resolved[url] = full

	if _, err := NewCacher(cat, store, config.LinkTrack, testScheduler(), nil).
		CacheAll(context.Background(), []string{url}); err != nil {
		t.Fatalf("CacheAll: %v", err)
	}
	if _, ok := store.Lookup(cache.KeyFor(full)); !ok {
		t.Fatal("resolved item not cached under its fingerprint key")
	}
}
