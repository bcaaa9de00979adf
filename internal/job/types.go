package job

import (
	"strings"

	apperrors "github.com/video-stream/transcriber/internal/errors"
	"github.com/video-stream/transcriber/internal/recognizer"
)

// Stage names a pipeline step as it appears on the progress stream.
type Stage string

const (
	StageDownload   Stage = "download"
	StageTranscribe Stage = "transcribe"
	StageComplete   Stage = "complete"
)

// Status is the state of a stage.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Terminal error messages shown to the caller.
const (
	MsgDownloadFailed     = "Audio download failed."
	MsgTranscriptionError = "Transcription error: "
	MsgInternalError      = "Internal error: "
)

// DefaultModelSize is used when a request names no model.
const DefaultModelSize = "tiny"

// Event is one line of the progress stream. An error event carries only Error.
type Event struct {
	Step   Stage   `json:"step,omitempty"`
	Status Status  `json:"status,omitempty"`
	Engine string  `json:"engine,omitempty"`
	Model  string  `json:"model,omitempty"`
	Data   *Result `json:"data,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Terminal reports whether no event follows this one.
func (e Event) Terminal() bool {
	return e.Error != "" || e.Step == StageComplete
}

func errorEvent(msg string) Event {
	return Event{Error: msg}
}

// Request is an accepted transcription request.
type Request struct {
	URL       string
	Engine    recognizer.Kind
	ModelSize string
}

// NewRequest validates raw request fields. Empty engine and model fall back to
// the standard engine and defaultModel.
func NewRequest(url, engine, modelSize, defaultModel string) (Request, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Request{}, apperrors.New(apperrors.CodeInvalidArg, "No URL provided.")
	}

	kind, ok := recognizer.ParseKind(engine)
	if !ok {
		return Request{}, apperrors.New(apperrors.CodeInvalidArg, "Unknown engine: "+engine)
	}

	modelSize = strings.TrimSpace(modelSize)
	if modelSize == "" {
		modelSize = defaultModel
	}
	if modelSize == "" {
		modelSize = DefaultModelSize
	}
	if !recognizer.ValidModelSize(modelSize) {
		return Request{}, apperrors.New(apperrors.CodeInvalidArg, "Unknown model size: "+modelSize)
	}

	return Request{URL: url, Engine: kind, ModelSize: modelSize}, nil
}

// Stats summarizes a finished job.
type Stats struct {
	Duration  float64 `json:"duration"` // seconds, two decimals
	WordCount int     `json:"word_count"`
}

// Result is the payload of the complete event.
type Result struct {
	Title         string   `json:"title"`
	Transcription string   `json:"transcription"`
	Stats         Stats    `json:"stats"`
	Paragraphs    []string `json:"-"`
}
