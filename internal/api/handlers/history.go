package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/video-stream/transcriber/internal/db/models"
)

// HistoryStore reads stored transcriptions. *db.Database implements it.
type HistoryStore interface {
	ListTranscriptions(ctx context.Context) ([]models.TranscriptionSummary, error)
	GetTranscription(ctx context.Context, id int64) (*models.Transcription, error)
}

type HistoryHandler struct {
	store HistoryStore
}

func NewHistoryHandler(store HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// List returns all transcriptions, newest first
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListTranscriptions(r.Context())
	if err != nil {
		appError(w, err)
		return
	}
	if list == nil {
		list = []models.TranscriptionSummary{}
	}
	jsonResponse(w, list, http.StatusOK)
}

// Get returns a single transcription by ID
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid transcription ID", http.StatusBadRequest)
		return
	}

	t, err := h.store.GetTranscription(r.Context(), id)
	if err != nil {
		appError(w, err)
		return
	}
	jsonResponse(w, t, http.StatusOK)
}
