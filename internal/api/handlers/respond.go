package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	apperrors "github.com/video-stream/transcriber/internal/errors"
)

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// appError writes err with the status matching its AppError code.
// Internal errors are logged and reported generically.
func appError(w http.ResponseWriter, err error) {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidArg:
		jsonError(w, apperrors.MessageOf(err), http.StatusBadRequest)
	case apperrors.CodeNotFound:
		jsonError(w, apperrors.MessageOf(err), http.StatusNotFound)
	default:
		log.Printf("[api] %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

// Welcome answers the root path.
func Welcome(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{
		"message": "Welcome to YouTube Transcriber API. Visit /static/index.html for the UI.",
	}, http.StatusOK)
}
