// Package ytdlp adapts the yt-dlp command-line tool into catalog nodes and raw
// audio.
//
// Catalog listings use --flat-playlist so that large channels are enumerated
// with one request; nested playlists become lazy collections that are only
// listed when traversal reaches them. Full item metadata (upload time,
// thumbnail, availability) is fetched per item through Resolve, and audio is
// streamed from yt-dlp's stdout.
package ytdlp
