package cache

import "sort"

type indexed struct {
	entry Entry
	seq   uint64
}

// index maps keys to entries and content fingerprints back to keys. Every
// entry with an upload time is reachable through both maps.
type index struct {
	byKey     map[string]indexed
	byContent map[content]string
	seq       uint64
}

func newIndex() *index {
	return &index{
		byKey:     make(map[string]indexed),
		byContent: make(map[content]string),
	}
}

// put inserts entry and returns the key it displaced through content
// reconciliation, if any.
func (ix *index) put(entry Entry) (displaced string) {
	if old, ok := ix.byKey[entry.Key]; ok {
		if fp, has := old.entry.fingerprint(); has && ix.byContent[fp] == entry.Key {
			delete(ix.byContent, fp)
		}
	}
	if fp, has := entry.fingerprint(); has {
		if other, ok := ix.byContent[fp]; ok && other != entry.Key {
			delete(ix.byKey, other)
			displaced = other
		}
		ix.byContent[fp] = entry.Key
	}
	ix.seq++
	ix.byKey[entry.Key] = indexed{entry: entry, seq: ix.seq}
	return displaced
}

func (ix *index) get(key string) (Entry, bool) {
	e, ok := ix.byKey[key]
	return e.entry, ok
}

// keyForContent returns the key currently holding entry's content.
func (ix *index) keyForContent(entry Entry) (string, bool) {
	fp, has := entry.fingerprint()
	if !has {
		return "", false
	}
	key, ok := ix.byContent[fp]
	return key, ok
}

func (ix *index) len() int {
	return len(ix.byKey)
}

// entries returns the index contents in insertion order.
func (ix *index) entries() []Entry {
	all := make([]indexed, 0, len(ix.byKey))
	for _, e := range ix.byKey {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	out := make([]Entry, len(all))
	for i, e := range all {
		out[i] = e.entry
	}
	return out
}
