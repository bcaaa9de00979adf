package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log"
	"net/http"

	"github.com/video-stream/transcriber/internal/job"
)

// JobRunner starts transcription jobs. *job.Pipeline implements it.
type JobRunner interface {
	Run(ctx context.Context, req job.Request) iter.Seq[job.Event]
}

type TranscribeHandler struct {
	runner       JobRunner
	defaultModel string
}

func NewTranscribeHandler(runner JobRunner, defaultModel string) *TranscribeHandler {
	return &TranscribeHandler{runner: runner, defaultModel: defaultModel}
}

type transcribeRequest struct {
	URL       string `json:"url"`
	Engine    string `json:"engine"`
	ModelSize string `json:"model_size"`
	ModelAlt  string `json:"modelSize"`
}

// Transcribe validates the request, then streams job progress as NDJSON,
// flushing after every event.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var body transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	modelSize := body.ModelSize
	if modelSize == "" {
		modelSize = body.ModelAlt
	}
	req, err := job.NewRequest(body.URL, body.Engine, modelSize, h.defaultModel)
	if err != nil {
		appError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	clientGone := false

	// Jobs are not cancellable: a disconnected client does not stop the run.
	ctx := context.WithoutCancel(r.Context())
	for ev := range h.runner.Run(ctx, req) {
		if clientGone {
			continue
		}
		if err := enc.Encode(ev); err != nil {
			log.Printf("[api] transcribe stream write: %v", err)
			clientGone = true
			continue
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			log.Printf("[api] transcribe stream flush: %v", err)
			clientGone = true
		}
	}
}
