package fetch

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var audioExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".webm": true, ".opus": true,
	".ogg": true, ".wav": true, ".part": true, ".ytdl": true,
}

// SweepStale removes audio artifacts in dir older than maxAge. Jobs delete
// their own artifact; this clears leftovers from runs killed mid-job.
// A missing dir is not an error.
func SweepStale(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("[fetch] sweep %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}
