// Package encoding wraps ffmpeg for the audio work done between download and
// delivery: transcoding to the target bitrate, slicing oversized files into
// parts, embedding ID3 tags and scaling cover art.
//
// All operations stream bytes through ffmpeg's stdin and stdout; only cover
// art, which ffmpeg needs as a second input, touches a temp file. Durations
// come from ffprobe via the media/ffprobe package.
package encoding
