package cache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"podcaster/internal/catalog"
	"podcaster/internal/fileutil"
	"podcaster/internal/logging"
	"podcaster/internal/services"
)

// ErrLocked is returned by Open when another process holds the cache lock.
var ErrLocked = errors.New("cache is locked by another process")

// ParseError reports a malformed record in the cache log.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cache %s: line %d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Store is the persisted dedup log plus its in-memory index. It is not safe
// for concurrent use.
type Store struct {
	path    string
	dialect Dialect
	logger  *slog.Logger
	lock    *flock.Flock
	file    *os.File
	index   *index

	// beforeCommit runs after compacted rows are written and before the
	// rename. Tests use it to simulate a crash mid-compaction.
	beforeCommit func() error
}

// Option customizes a Store.
type Option func(*Store)

// WithDialect sets the on-disk record dialect.
func WithDialect(d Dialect) Option {
	return func(s *Store) { s.dialect = d }
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logging.NewComponentLogger(logger, "cache")
		}
	}
}

// Open locks path, loads every record into memory and prepares the file for
// appends. A missing file is treated as an empty cache. Malformed rows fail
// the load with a *ParseError naming the line.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:    path,
		dialect: DefaultDialect,
		logger:  logging.NewComponentLogger(logging.NewNop(), "cache"),
		index:   newIndex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.dialect.validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "open", "invalid dialect", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	s.lock = flock.New(path + ".lock")
	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	if err := s.load(); err != nil {
		_ = s.lock.Unlock()
		return nil, err
	}
	if err := s.openAppend(); err != nil {
		_ = s.lock.Unlock()
		return nil, err
	}
	s.logger.Debug("cache loaded",
		logging.String("path", path),
		logging.Int("entries", s.index.len()),
	)
	return s, nil
}

func (s *Store) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open cache: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	lineNo := 0
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read cache: %w", readErr)
		}
		if line != "" {
			lineNo++
			line = strings.TrimRight(line, "\r\n")
			if line != "" {
				if err := s.loadLine(line, lineNo); err != nil {
					return err
				}
			}
		}
		if readErr != nil {
			return nil
		}
	}
}

func (s *Store) loadLine(line string, lineNo int) error {
	fields, err := s.dialect.decode(line)
	if err != nil {
		return &ParseError{Path: s.path, Line: lineNo, Err: err}
	}
	entry, err := parseEntry(fields)
	if err != nil {
		return &ParseError{Path: s.path, Line: lineNo, Err: err}
	}
	s.index.put(entry)
	return nil
}

func (s *Store) openAppend() error {
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open cache for append: %w", err)
	}
	s.file = file
	return nil
}

// Close releases the file handle and the lock.
func (s *Store) Close() error {
	var errs []error
	if s.file != nil {
		errs = append(errs, s.file.Close())
		s.file = nil
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}

// Path returns the log location.
func (s *Store) Path() string { return s.path }

// Len returns the number of indexed entries.
func (s *Store) Len() int { return s.index.len() }

// Empty reports whether the cache has no entries.
func (s *Store) Empty() bool { return s.index.len() == 0 }

// Entries returns the indexed entries in the order they were recorded.
func (s *Store) Entries() []Entry { return s.index.entries() }

// Lookup returns the entry stored under key.
func (s *Store) Lookup(key string) (Entry, bool) { return s.index.get(key) }

// Contains reports whether node has already been processed.
//
// An item is contained when its key is indexed. An unavailable item that
// misses is recorded and reported as contained, since it can never be
// delivered. An available item whose content is indexed under another key is
// moved to its new key and reported as contained. A collection is contained
// when its own URL key is indexed or every child is contained.
func (s *Store) Contains(ctx context.Context, node catalog.Node) (bool, error) {
	switch n := node.(type) {
	case *catalog.Item:
		return s.containsItem(n)
	case *catalog.Collection:
		return s.containsCollection(ctx, n)
	default:
		return false, fmt.Errorf("cache: unsupported node %T", node)
	}
}

func (s *Store) containsItem(item *catalog.Item) (bool, error) {
	entry := EntryFor(item)
	if _, ok := s.index.get(entry.Key); ok {
		return true, nil
	}
	if !item.Available {
		s.logger.Debug("recording unavailable item",
			logging.String(logging.FieldItemURL, item.URL),
			logging.String("key", entry.Key),
		)
		return true, s.append(entry)
	}
	if previous, ok := s.index.keyForContent(entry); ok {
		s.logger.Info("item key changed; reconciling cache",
			logging.String(logging.FieldItemURL, item.URL),
			logging.String("previous_key", previous),
			logging.String("key", entry.Key),
		)
		return true, s.append(entry)
	}
	return false, nil
}

// Children of a listing are usually unresolved. For sources without native
// ids their fingerprint keys cannot match, so such a collection is found only
// through its own URL key.
func (s *Store) containsCollection(ctx context.Context, collection *catalog.Collection) (bool, error) {
	if _, ok := s.index.get(URLKey(collection.URL)); ok {
		return true, nil
	}
	children, err := collection.Children(ctx)
	if err != nil {
		return false, err
	}
	for _, child := range children {
		ok, err := s.Contains(ctx, child)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Add records item. Adding an item whose entry is already indexed is a
// no-op.
func (s *Store) Add(item *catalog.Item) error {
	return s.AddEntry(EntryFor(item))
}

// AddCollection records a whole collection under its URL key.
func (s *Store) AddCollection(collection *catalog.Collection) error {
	return s.AddEntry(Entry{Key: URLKey(collection.URL)})
}

// AddEntry appends entry unless an identical record is already indexed.
func (s *Store) AddEntry(entry Entry) error {
	entry = entry.normalized()
	if existing, ok := s.index.get(entry.Key); ok && existing.equal(entry) {
		return nil
	}
	return s.append(entry)
}

func (s *Store) append(entry Entry) error {
	if s.file == nil {
		return errors.New("cache is closed")
	}
	fields, err := entry.fields()
	if err != nil {
		return services.Wrap(services.ErrValidation, "cache", "append", entry.Key, err)
	}
	line, err := s.dialect.encode(fields)
	if err != nil {
		return services.Wrap(services.ErrValidation, "cache", "append", entry.Key, err)
	}
	if _, err := s.file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append cache record: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync cache: %w", err)
	}
	if displaced := s.index.put(entry); displaced != "" {
		s.logger.Debug("cache entry displaced",
			logging.String("previous_key", displaced),
			logging.String("key", entry.Key),
		)
	}
	return nil
}

// Compact rewrites the log to exactly the indexed entries. The rewrite goes
// through a temp file and an atomic rename, so an interrupted compaction
// leaves the previous log intact.
func (s *Store) Compact() error {
	entries := s.index.entries()
	err := fileutil.WriteAtomic(s.path, 0o644, func(w io.Writer) error {
		for _, entry := range entries {
			fields, err := entry.fields()
			if err != nil {
				return err
			}
			line, err := s.dialect.encode(fields)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return err
			}
		}
		if s.beforeCommit != nil {
			return s.beforeCommit()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("compact cache: %w", err)
	}
	return s.reopen()
}

// Reset discards every entry and truncates the log.
func (s *Store) Reset() error {
	err := fileutil.WriteAtomic(s.path, 0o644, func(io.Writer) error { return nil })
	if err != nil {
		return fmt.Errorf("reset cache: %w", err)
	}
	s.index = newIndex()
	return s.reopen()
}

func (s *Store) reopen() error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	return s.openAppend()
}
