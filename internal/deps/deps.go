// Package deps reports whether the external tools podcaster shells out to are
// installed.
package deps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"podcaster/internal/config"
)

// Requirement defines an external dependency podcaster relies on.
type Requirement struct {
	Name        string
	Command     string
	VersionArgs []string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// Requirements lists the binaries used by the configured pipeline.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YtDlpBinary(),
			VersionArgs: []string{"--version"},
			Description: "Catalog listing and audio download",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			VersionArgs: []string{"-version"},
			Description: "Transcoding, splitting and tagging",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			VersionArgs: []string{"-version"},
			Description: "Duration probing of downloaded audio",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
// For requirements that declare VersionArgs the first line of the version
// output is captured.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		if len(req.VersionArgs) > 0 {
			status.Version = version(ctx, resolved, req.VersionArgs)
		}
		results = append(results, status)
	}
	return results
}

// Missing returns an error naming every unavailable required dependency.
func Missing(statuses []Status) error {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.New("missing dependencies: " + strings.Join(missing, ", "))
}

func version(ctx context.Context, binary string, args []string) string {
	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		return ""
	}
	line, _, _ := bytes.Cut(bytes.TrimSpace(out), []byte("\n"))
	return strings.TrimSpace(string(line))
}
