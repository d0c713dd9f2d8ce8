// Package ytdlp acquires source videos through the yt-dlp binary.
package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/Morris88826/YouClipAI/internal/types"
)

type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Adapter{bin: binPath}
}

// Resolve asks yt-dlp for the video's metadata without downloading media.
// Errors carry yt-dlp's own output: acquisition failures are surfaced to the
// client verbatim.
func (a *Adapter) Resolve(ctx context.Context, ref string) (types.VideoMeta, error) {
	cmd := exec.CommandContext(ctx, a.bin,
		"--dump-single-json",
		"--no-download",
		"--no-playlist",
		ref,
	)
	b, err := cmd.Output()
	if err != nil {
		return types.VideoMeta{}, fmt.Errorf("yt-dlp resolve %q: %w\n%s", ref, err, exitDetail(err))
	}

	var info struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		WebpageURL string `json:"webpage_url"`
	}
	if err := json.Unmarshal(b, &info); err != nil {
		return types.VideoMeta{}, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	if info.ID == "" {
		return types.VideoMeta{}, fmt.Errorf("yt-dlp returned no id for %q", ref)
	}
	return types.VideoMeta{ID: info.ID, Title: info.Title, URL: info.WebpageURL}, nil
}

// Download fetches the best mp4 stream to dest.
func (a *Adapter) Download(ctx context.Context, ref, dest string) error {
	cmd := exec.CommandContext(ctx, a.bin,
		"-f", "best[ext=mp4]/best",
		"--no-playlist",
		"-o", dest,
		ref,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp download %q: %w\n%s", ref, err, string(b))
	}
	return nil
}

// exitDetail pulls stderr out of an ExitError so resolve failures keep the
// underlying reason (age gate, region lock, bad id).
func exitDetail(err error) string {
	if ee, ok := err.(*exec.ExitError); ok {
		return string(ee.Stderr)
	}
	return ""
}
