package recognizer

import (
	"context"
	"regexp"
	"strings"

	"github.com/video-stream/transcriber/internal/transcript"
)

// Kind selects the recognition engine implementation.
type Kind string

const (
	Standard Kind = "standard" // openai-whisper server, verbose JSON segments
	Fast     Kind = "fast"     // faster-whisper server, WebVTT cues
)

// ParseKind maps request values, including the legacy engine names, to a Kind.
// An empty value selects Standard.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "whisper":
		return Standard, true
	case "fast", "faster-whisper":
		return Fast, true
	}
	return "", false
}

var modelSizes = map[string]bool{
	"tiny": true, "tiny.en": true,
	"base": true, "base.en": true,
	"small": true, "small.en": true,
	"medium": true, "medium.en": true,
	"large": true, "large-v2": true, "large-v3": true,
}

// ValidModelSize reports whether size names a known model tier.
func ValidModelSize(size string) bool {
	return modelSizes[size]
}

// Output is recognizer output normalized to fragments.
type Output struct {
	Fragments []transcript.Fragment
	Text      string // raw full text when the engine supplies one
}

var lineBreaks = regexp.MustCompile(`\s*[\r\n]+\s*`)

// fragmentText folds line breaks in engine text into single spaces, so a
// fragment never carries the paragraph separator.
func fragmentText(s string) string {
	return lineBreaks.ReplaceAllString(s, " ")
}

// Engine is a loaded recognition model.
type Engine interface {
	// Recognize transcribes a local audio file.
	Recognize(ctx context.Context, audioPath string) (*Output, error)
	// Name returns the engine name
	Name() string
}

// LoadSpec carries everything needed to instantiate an engine.
type LoadSpec struct {
	Kind      Kind
	ModelSize string
	Device    string // device name passed to the engine
	Precision string // "float32", "float16" or "int8"
}

// Loader instantiates engines. Loading is expensive; callers go through Cache.
type Loader interface {
	Load(ctx context.Context, spec LoadSpec) (Engine, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, spec LoadSpec) (Engine, error)

func (f LoaderFunc) Load(ctx context.Context, spec LoadSpec) (Engine, error) {
	return f(ctx, spec)
}
