// Package services defines shared utilities consumed by the upload scheduler
// and its external integrations (yt-dlp, ffmpeg, Telegram).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, task names, collection titles, and
//     item URLs for logging.
//   - Structured error markers plus the Wrap helper so failures carry the
//     component and operation that produced them.
//   - IsRetriable, the single classifier deciding which failures the retry
//     scheduler may absorb and which must surface.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, observability, retries) stays uniform.
package services
