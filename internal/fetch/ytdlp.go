package fetch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/video-stream/transcriber/internal/errors"
)

// Media is a fetched audio artifact.
type Media struct {
	ID       string
	Title    string
	Path     string  // local mp3 file
	Duration float64 // seconds, as reported by the source
}

// Fetcher retrieves the audio track of a media URL into a local directory.
type Fetcher interface {
	Fetch(ctx context.Context, url, dir string) (*Media, error)
}

// YtDlp fetches audio with yt-dlp.
type YtDlp struct {
	binary string
	runner CmdRunner
}

// NewYtDlp creates a fetcher using the given yt-dlp binary.
func NewYtDlp(binary string) *YtDlp {
	return NewYtDlpWithRunner(binary, NewCmdRunner())
}

// NewYtDlpWithRunner creates a fetcher with a custom CmdRunner (for testing).
func NewYtDlpWithRunner(binary string, runner CmdRunner) *YtDlp {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlp{binary: binary, runner: runner}
}

type ytdlpInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// Fetch extracts the best audio of url to <dir>/<id>.mp3 and returns its metadata.
func (y *YtDlp) Fetch(ctx context.Context, url, dir string) (*Media, error) {
	if strings.TrimSpace(url) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "media URL is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create download directory")
	}

	args := []string{
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--no-playlist",
		"--no-progress",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		"--dump-json",
		"--no-simulate",
		url,
	}

	out, err := y.runner.Run(ctx, y.binary, args...)
	if err != nil {
		// Info JSON is printed before the download starts, so a failed run
		// may still name the files it left behind.
		if info, perr := parseInfo(out); perr == nil {
			removePartial(dir, info.ID)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeFetch, "yt-dlp failed")
	}

	info, err := parseInfo(out)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeFetch, "unexpected yt-dlp output")
	}

	media := &Media{
		ID:       info.ID,
		Title:    info.Title,
		Path:     filepath.Join(dir, info.ID+".mp3"),
		Duration: info.Duration,
	}
	if _, err := os.Stat(media.Path); err != nil {
		removePartial(dir, info.ID)
		return nil, apperrors.Wrap(err, apperrors.CodeFetch, "audio file missing after download")
	}
	return media, nil
}

// removePartial deletes every <dir>/<id>.* file.
func removePartial(dir, id string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	prefix := id + "."
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[fetch] remove partial download %s: %v", path, err)
		}
	}
}

// parseInfo reads the first JSON object line printed by --dump-json.
func parseInfo(out []byte) (*ytdlpInfo, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var info ytdlpInfo
		if err := json.Unmarshal(line, &info); err != nil {
			return nil, fmt.Errorf("decode info json: %w", err)
		}
		if info.ID == "" {
			return nil, fmt.Errorf("info json has no id")
		}
		return &info, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("no info json in output")
}
