package encoding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"podcaster/internal/media/ffprobe"
	"podcaster/internal/services"
)

var commandContext = exec.CommandContext

// Settings describes the transcode target.
type Settings struct {
	BitrateKbps int
	SampleRate  int
	Channels    int
}

// Tags is the metadata embedded into delivered audio.
type Tags struct {
	Title  string
	Album  string
	Artist string
	Date   time.Time
	Cover  []byte
}

// Option configures the FFmpeg client.
type Option func(*FFmpeg)

// WithBinary overrides the ffmpeg executable.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// WithProbeBinary overrides the ffprobe executable.
func WithProbeBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.probeBinary = binary
		}
	}
}

// WithTempDir sets where cover art is staged.
func WithTempDir(dir string) Option {
	return func(f *FFmpeg) {
		f.tempDir = dir
	}
}

// FFmpeg runs ffmpeg and ffprobe subprocesses.
type FFmpeg struct {
	binary      string
	probeBinary string
	tempDir     string
}

// New constructs an FFmpeg client using defaults.
func New(opts ...Option) *FFmpeg {
	f := &FFmpeg{binary: "ffmpeg", probeBinary: "ffprobe"}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Duration probes the playing time of audio.
func (f *FFmpeg) Duration(ctx context.Context, audio []byte) (time.Duration, error) {
	result, err := ffprobe.InspectBytes(ctx, f.probeBinary, audio)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "encoding", "probe", "failed to read audio duration", err)
	}
	return result.Duration(), nil
}

// EstimateEncodedSize predicts the size of raw after transcoding at
// bitrateKbps from its probed duration.
func (f *FFmpeg) EstimateEncodedSize(ctx context.Context, raw []byte, bitrateKbps int) (int64, error) {
	duration, err := f.Duration(ctx, raw)
	if err != nil {
		return 0, err
	}
	return EstimateSize(duration, bitrateKbps), nil
}

// EstimateSize returns the byte size of duration seconds of audio at a
// constant bitrate.
func EstimateSize(duration time.Duration, bitrateKbps int) int64 {
	return int64(duration.Seconds() * float64(bitrateKbps) * 1000 / 8)
}

// Encode transcodes raw to MP3 with the given settings.
func (f *FFmpeg) Encode(ctx context.Context, raw []byte, settings Settings) ([]byte, error) {
	if settings.BitrateKbps <= 0 {
		return nil, errors.New("encode: bitrate must be positive")
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", strconv.Itoa(settings.BitrateKbps) + "k",
	}
	if settings.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(settings.SampleRate))
	}
	if settings.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(settings.Channels))
	}
	args = append(args, "-f", "mp3", "pipe:1")
	return f.run(ctx, "encode", args, raw)
}

// Slice cuts [start, start+length) out of MP3 audio without re-encoding.
func (f *FFmpeg) Slice(ctx context.Context, audio []byte, start, length time.Duration) ([]byte, error) {
	if length <= 0 {
		return nil, errors.New("slice: length must be positive")
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-map", "0:a",
		"-c", "copy",
		"-f", "mp3", "pipe:1",
	}
	return f.run(ctx, "slice", args, audio)
}

// Tag embeds ID3v2 metadata and, when present, the cover image.
func (f *FFmpeg) Tag(ctx context.Context, audio []byte, tags Tags) ([]byte, error) {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", "pipe:0"}

	if len(tags.Cover) > 0 {
		coverPath, cleanup, err := f.stageCover(tags.Cover)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		args = append(args, "-i", coverPath, "-map", "0:a", "-map", "1:v",
			"-metadata:s:v", "title=Album cover",
			"-metadata:s:v", "comment=Cover (front)",
		)
	} else {
		args = append(args, "-map", "0:a")
	}

	args = append(args, "-c", "copy", "-id3v2_version", "3")
	for _, kv := range []struct{ key, value string }{
		{"title", tags.Title},
		{"album", tags.Album},
		{"artist", tags.Artist},
	} {
		if v := strings.TrimSpace(kv.value); v != "" {
			args = append(args, "-metadata", kv.key+"="+v)
		}
	}
	if !tags.Date.IsZero() {
		args = append(args, "-metadata", "date="+tags.Date.UTC().Format("2006-01-02"))
	}
	args = append(args, "-f", "mp3", "pipe:1")
	return f.run(ctx, "tag", args, audio)
}

// ScaleCover resizes an image to a size x size JPEG thumbnail, cropping to
// a centered square first.
func (f *FFmpeg) ScaleCover(ctx context.Context, image []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.New("scale cover: size must be positive")
	}
	filter := fmt.Sprintf("crop='min(iw,ih)':'min(iw,ih)',scale=%d:%d", size, size)
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-vf", filter,
		"-frames:v", "1",
		"-f", "mjpeg", "pipe:1",
	}
	return f.run(ctx, "scale cover", args, image)
}

func (f *FFmpeg) stageCover(cover []byte) (string, func(), error) {
	file, err := os.CreateTemp(f.tempDir, "podcaster-cover-*.jpg")
	if err != nil {
		return "", nil, fmt.Errorf("stage cover: %w", err)
	}
	cleanup := func() { _ = os.Remove(file.Name()) }
	if _, err := file.Write(cover); err != nil {
		_ = file.Close()
		cleanup()
		return "", nil, fmt.Errorf("stage cover: %w", err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("stage cover: %w", err)
	}
	return file.Name(), cleanup, nil
}

func (f *FFmpeg) run(ctx context.Context, operation string, args []string, stdin []byte) ([]byte, error) {
	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", operation, strings.TrimSpace(stderr.String()), err)
	}
	if stdout.Len() == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", operation, "produced no output", nil)
	}
	return stdout.Bytes(), nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
