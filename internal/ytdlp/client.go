package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const defaultBinary = "yt-dlp"

// Runner invokes the yt-dlp binary. Output goes straight to Stdout and
// Stderr (the process streams when nil).
type Runner struct {
	Binary string
	Stdout io.Writer
	Stderr io.Writer
}

func NewRunner(binary string) *Runner {
	return &Runner{Binary: binary}
}

func (r *Runner) binary() string {
	if r == nil || strings.TrimSpace(r.Binary) == "" {
		return defaultBinary
	}
	return strings.TrimSpace(r.Binary)
}

// Download runs one invocation to completion. A start failure or a non-zero
// exit status is returned as an error.
func (r *Runner) Download(ctx context.Context, desc JobDescriptor) error {
	if strings.TrimSpace(desc.Locator) == "" {
		return fmt.Errorf("locator is required")
	}
	cmd := exec.CommandContext(ctx, r.binary(), desc.Args()...)
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if r != nil && r.Stdout != nil {
		cmd.Stdout = r.Stdout
	}
	if r != nil && r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", r.binary(), err)
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("yt-dlp exited with status %d", exitErr.ExitCode())
		}
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
	return nil
}

// InstalledVersion returns the output of "yt-dlp --version".
func (r *Runner) InstalledVersion(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary(), "--version")
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp --version failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

type DependencyReport struct {
	YTDLPFound  bool   `json:"yt_dlp_found"`
	YTDLPPath   string `json:"yt_dlp_path,omitempty"`
	FFmpegFound bool   `json:"ffmpeg_found"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
}

// DependencyStatus looks up the yt-dlp binary and ffmpeg, which yt-dlp needs
// for merging and audio extraction.
func DependencyStatus(binary string) DependencyReport {
	report := DependencyReport{}
	if strings.TrimSpace(binary) == "" {
		binary = defaultBinary
	}
	if path, err := exec.LookPath(binary); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	return report
}

func CheckDependencies(binary string) error {
	report := DependencyStatus(binary)
	if !report.YTDLPFound {
		return fmt.Errorf("missing dependency: yt-dlp is not installed or not on PATH")
	}
	if !report.FFmpegFound {
		return fmt.Errorf("missing dependency: ffmpeg is required for merging and audio extraction and was not found on PATH")
	}
	return nil
}
