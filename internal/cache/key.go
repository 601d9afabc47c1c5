package cache

import (
	"encoding/hex"
	"strconv"

	"github.com/zeebo/blake3"

	"podcaster/internal/catalog"
)

// fingerprintKey separates cache fingerprints from any other use of BLAKE3 on
// the same input. Changing it invalidates every fingerprint-keyed record.
var fingerprintKey = [32]byte{
	'p', 'o', 'd', 'c', 'a', 's', 't', 'e', 'r', '.', 'c', 'a', 'c', 'h', 'e', '.',
	'k', 'e', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// KeyFor derives the cache key of an item: the native id for sources that
// embed one in the URL, otherwise a fingerprint of uploader, simplified title
// and upload time. Unavailable items without a native id are keyed by URL.
func KeyFor(item *catalog.Item) string {
	if id, ok := catalog.NativeID(item.URL); ok {
		return id
	}
	if !item.Available {
		return URLKey(item.URL)
	}
	uploaded := ""
	if !item.UploadedAt.IsZero() {
		uploaded = strconv.FormatInt(item.UploadedAt.Unix(), 10)
	}
	return fingerprint(item.Uploader, item.SimplifiedTitle, uploaded)
}

// URLKey derives a key from a URL alone. Collections of sources without
// native ids are cached under this key.
func URLKey(url string) string {
	return fingerprint(url)
}

func fingerprint(parts ...string) string {
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("cache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	for i, part := range parts {
		if i > 0 {
			_, _ = hasher.Write([]byte{0})
		}
		_, _ = hasher.Write([]byte(part))
	}
	sum := hasher.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// EntryFor builds the record written when item is delivered or skipped as
// unavailable. Only items with a native id carry upload time and duration:
// a fingerprint key already covers the upload time, and tracks of one album
// share a release time, so content matching them would merge distinct tracks.
func EntryFor(item *catalog.Item) Entry {
	entry := Entry{Key: KeyFor(item)}
	if _, native := catalog.NativeID(item.URL); native && item.Available {
		entry.UploadedAt = item.UploadedAt
		entry.Duration = item.Duration
	}
	return entry.normalized()
}
