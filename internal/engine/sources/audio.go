package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

// runner executes an external command and returns its combined output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w, output: %s", filepath.Base(name), err, tail(out, 512))
	}
	return out, nil
}

// tail returns at most n trailing bytes of b as a trimmed string.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(bytes.TrimSpace(b))
}

// YtDlp downloads the best audio-only stream with the yt-dlp binary.
type YtDlp struct {
	Path string
	run  runner
}

// NewYtDlp returns a downloader for the binary at path ("yt-dlp" if empty).
func NewYtDlp(path string) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	return &YtDlp{Path: path, run: execRunner}
}

// Download saves the audio of id into dir and returns the file path.
func (y *YtDlp) Download(ctx context.Context, id videoref.Ref, dir string) (string, error) {
	args := []string{
		"--format", "bestaudio/best",
		"--no-playlist",
		"--no-progress",
		"--quiet",
		"--output", filepath.Join(dir, "%(id)s.%(ext)s"),
		"--print", "after_move:filepath",
		id.WatchURL(),
	}
	out, err := y.run(ctx, y.Path, args...)
	if err != nil {
		return "", err
	}

	if p := lastLine(out); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	// Older yt-dlp builds ignore --print with --quiet; fall back to the output template.
	matches, _ := filepath.Glob(filepath.Join(dir, id.String()+".*"))
	if len(matches) == 0 {
		return "", errors.New("yt-dlp finished but produced no audio file")
	}
	slog.Debug("yt-dlp: located download by pattern", slog.String("path", matches[0]))
	return matches[0], nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// FFmpeg transcodes audio to mono 16 kHz 64 kbit/s MP3.
type FFmpeg struct {
	Path string
	run  runner
}

// NewFFmpeg returns a transcoder for the binary at path ("ffmpeg" if empty).
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path, run: execRunner}
}

func (f *FFmpeg) Transcode(ctx context.Context, in, out string) error {
	_, err := f.run(ctx, f.Path,
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-acodec", "libmp3lame",
		"-b:a", "64k",
		out,
	)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		return fmt.Errorf("ffmpeg produced no output at %s", out)
	}
	return nil
}
