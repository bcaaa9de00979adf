// Package transcript turns timed recognizer fragments into readable paragraphs.
package transcript

import (
	"strings"
	"unicode/utf8"
)

// paragraphMinChars is the buffered length a paragraph must exceed before a
// sentence-ending fragment closes it.
const paragraphMinChars = 300

const paragraphSeparator = "\n\n"

// Fragment is one timed span of recognizer output, in recognition order.
type Fragment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Formatted is the paragraph view of a transcript.
type Formatted struct {
	Paragraphs []string `json:"paragraphs"`
	FullText   string   `json:"full_text"`
}

// Format groups fragments into paragraphs. A paragraph closes after a fragment
// ending in '.', '!' or '?' once the buffer exceeds paragraphMinChars; the
// remainder becomes the last paragraph. When no paragraph is produced,
// FullText is the recognizer's fallback text, which may be empty.
func Format(fragments []Fragment, fallback string) Formatted {
	var paragraphs []string
	var buf strings.Builder

	for _, f := range fragments {
		text := strings.TrimSpace(f.Text)
		buf.WriteString(text)
		buf.WriteByte(' ')

		if endsSentence(text) && utf8.RuneCountInString(buf.String()) > paragraphMinChars {
			paragraphs = append(paragraphs, strings.TrimSpace(buf.String()))
			buf.Reset()
		}
	}

	if rest := strings.TrimSpace(buf.String()); rest != "" {
		paragraphs = append(paragraphs, rest)
	}

	if len(paragraphs) == 0 {
		return Formatted{Paragraphs: []string{}, FullText: fallback}
	}
	return Formatted{
		Paragraphs: paragraphs,
		FullText:   strings.Join(paragraphs, paragraphSeparator),
	}
}

// WordCount counts whitespace-delimited tokens in the full text.
func (f Formatted) WordCount() int {
	return len(strings.Fields(f.FullText))
}

func endsSentence(text string) bool {
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?")
}
