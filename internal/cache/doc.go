// Package cache persists which catalog items have already been delivered.
//
// The store is an append-only text log with one record per line
// (key, uploaded-at, duration) plus an in-memory index rebuilt at Open. Two
// records with the same uploaded-at and duration describe the same content
// even when their keys differ; the index keeps only the newest key for such
// content, and replaying the log reproduces the same reconciliation. Compact
// rewrites the log to exactly the index contents.
//
// A Store holds an exclusive lock on <path>.lock for its lifetime, so a second
// process pointed at the same file fails at Open instead of interleaving
// appends.
package cache
