package models

import "time"

// Transcription is a stored transcription result.
type Transcription struct {
	ID            int64     `json:"id"`
	VideoURL      string    `json:"video_url"`
	VideoTitle    string    `json:"video_title"`
	Transcription string    `json:"transcription"`
	Duration      *float64  `json:"duration"`   // null for rows written before stats were recorded
	WordCount     *int      `json:"word_count"` // null for rows written before stats were recorded
	CreatedAt     time.Time `json:"created_at"`
}

// TranscriptionSummary is the history list entry.
type TranscriptionSummary struct {
	ID         int64     `json:"id"`
	VideoTitle string    `json:"video_title"`
	CreatedAt  time.Time `json:"created_at"`
	VideoURL   string    `json:"video_url"`
}
