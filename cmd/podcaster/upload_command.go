package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"podcaster/internal/config"
	"podcaster/internal/textutil"
	"podcaster/internal/upload"
)

// uploadFlags mirror the settings of a single [[tasks]] entry plus the
// encoding and credential overrides.
type uploadFlags struct {
	url        string
	name       string
	suffixes   []string
	token      string
	chat       string
	cache      string
	bitrate    int
	sampleRate int
	channels   int
	format     string
	convert    string
	order      string
	linkType   string
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var flags uploadFlags

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Mirror one catalog into a Telegram chat",
		Long: "Deliver every item of --url that is not in the cache to the chat named by --telegram.\n" +
			"Flags override the matching configuration values for this invocation only.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			task, err := flags.apply(cfg, cmd)
			if err != nil {
				return err
			}

			s, err := ctx.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()

			summary, err := s.runner.RunTask(cmd.Context(), task)
			printSummary(cmd.OutOrStdout(), task.Name, summary)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.url, "url", "", "Channel, playlist, album or track URL")
	f.StringVar(&flags.name, "name", "", "Task name used in logs and history (derived from --url when empty)")
	f.StringSliceVarP(&flags.suffixes, "suffixes", "s", nil, "Path suffixes appended to --url, each mirrored in turn (e.g. videos,streams)")
	f.StringVar(&flags.token, "token", "", "Telegram bot token")
	f.StringVar(&flags.chat, "telegram", "", "Destination chat (e.g. @my_channel)")
	f.StringVar(&flags.cache, "cache", "", "Cache file path")
	f.IntVar(&flags.bitrate, "bitrate", 0, "Target bitrate in kbit/s")
	f.IntVar(&flags.sampleRate, "samplerate", 0, "Target sample rate in Hz")
	f.IntVar(&flags.channels, "channels", 0, "Target channel count (1 or 2)")
	f.StringVar(&flags.format, "format", "", "Preferred download format (e.g. m4a)")
	f.StringVar(&flags.convert, "convert", "", "Transcode policy: always, never or auto")
	f.StringVar(&flags.order, "order", "", "Traversal order: newest_first, oldest_first or auto")
	f.StringVar(&flags.linkType, "link_type", "", "playlist to walk a catalog, track to deliver a single item")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

// apply copies explicitly set flags onto cfg and registers the ad-hoc task.
func (f uploadFlags) apply(cfg *config.Config, cmd *cobra.Command) (config.Task, error) {
	changed := cmd.Flags().Changed
	if changed("token") {
		cfg.Telegram.Token = strings.TrimSpace(f.token)
	}
	if changed("bitrate") {
		cfg.Encoding.Bitrate = f.bitrate
	}
	if changed("samplerate") {
		cfg.Encoding.SampleRate = f.sampleRate
	}
	if changed("channels") {
		cfg.Encoding.Channels = f.channels
	}
	if changed("format") {
		cfg.Encoding.Format = strings.TrimSpace(f.format)
	}
	if changed("convert") {
		cfg.Encoding.Convert = strings.ToLower(strings.TrimSpace(f.convert))
	}
	if err := cfg.Validate(); err != nil {
		return config.Task{}, err
	}

	task, err := f.addTask(cfg)
	if err != nil {
		return config.Task{}, err
	}
	if cfg.ChatFor(task) == "" {
		return config.Task{}, errors.New("no destination chat: pass --telegram or set telegram.default_chat")
	}
	return task, nil
}

func taskNameFromURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return textutil.SanitizeToken(raw)
	}
	host := strings.TrimPrefix(parsed.Host, "www.")
	return textutil.SanitizeToken(host + parsed.Path)
}

func printSummary(w io.Writer, task string, s upload.Summary) {
	fmt.Fprintf(w, "%s: delivered %d (%d parts, %s), cached %d, skipped %d, failed %d\n",
		task, s.Delivered, s.Parts, humanize.IBytes(uint64(s.Bytes)), s.Cached, s.Skipped, s.Failed)
}
