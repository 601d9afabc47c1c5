// Package textutil provides text helpers shared by the cache, sink and CLI.
//
// The primary use cases are:
//   - Building caption hashtags from free-form artist, album and title text
//   - Simplifying titles so the same upload compares equal across renames
//     that only touch case, punctuation or spacing
//   - Sanitizing filenames and path segments for safe filesystem use
package textutil
