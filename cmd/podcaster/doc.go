// Command podcaster mirrors new audio from YouTube, Bandcamp and other
// yt-dlp sources into Telegram chats.
//
// Usage:
//
//	podcaster upload --url <catalog> --telegram <chat> [flags]
//	podcaster run [--every 1h]
//	podcaster cache --url <catalog>
//	podcaster compact --cache <file>
//	podcaster history
//	podcaster check
//	podcaster config init
package main
