package recognizer

import (
	"regexp"
	"strconv"
	"strings"
)

// Cue is one timed WebVTT entry.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

var timestampRe = regexp.MustCompile(`((?:\d{2,}:)?\d{2}:\d{2}[.,]\d{3})\s*-->\s*((?:\d{2,}:)?\d{2}:\d{2}[.,]\d{3})`)

// ParseVTT parses WebVTT content into cues
func ParseVTT(content string) []Cue {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	var cues []Cue
	var current *Cue

	for _, line := range lines {
		line = strings.TrimSpace(line)

		// Header and blank lines end the current cue
		if strings.HasPrefix(line, "WEBVTT") || line == "" {
			if current != nil && current.Text != "" {
				cues = append(cues, *current)
			}
			current = nil
			continue
		}

		if matches := timestampRe.FindStringSubmatch(line); len(matches) == 3 {
			if current != nil && current.Text != "" {
				cues = append(cues, *current)
			}
			current = &Cue{
				Start: parseTimestamp(matches[1]),
				End:   parseTimestamp(matches[2]),
			}
			continue
		}

		// Cue identifiers before the timing line
		if current == nil {
			continue
		}

		if current.Text != "" {
			current.Text += "\n"
		}
		current.Text += line
	}

	if current != nil && current.Text != "" {
		cues = append(cues, *current)
	}

	return cues
}

// parseTimestamp reads HH:MM:SS.mmm or MM:SS.mmm into seconds.
func parseTimestamp(ts string) float64 {
	ts = strings.Replace(ts, ",", ".", 1)
	parts := strings.Split(ts, ":")
	var h, m int
	var s float64
	switch len(parts) {
	case 3:
		h, _ = strconv.Atoi(parts[0])
		m, _ = strconv.Atoi(parts[1])
		s, _ = strconv.ParseFloat(parts[2], 64)
	case 2:
		m, _ = strconv.Atoi(parts[0])
		s, _ = strconv.ParseFloat(parts[1], 64)
	}
	return float64(h*3600+m*60) + s
}
