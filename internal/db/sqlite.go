package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/video-stream/transcriber/internal/errors"
	"github.com/video-stream/transcriber/internal/db/models"
)

type Database struct {
	db *sql.DB
}

func NewSQLite(path string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	d := &Database{db: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_url TEXT,
		video_title TEXT,
		transcription TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	// Columns added after the first release. Older databases get them here.
	for _, stmt := range []string{
		"ALTER TABLE transcriptions ADD COLUMN duration REAL",
		"ALTER TABLE transcriptions ADD COLUMN word_count INTEGER",
	} {
		if _, err := d.db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migrate: %w", err)
		}
	}

	if _, err := d.db.Exec("CREATE INDEX IF NOT EXISTS idx_transcriptions_created_at ON transcriptions(created_at)"); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// InsertTranscription stores a finished transcription and returns its id.
func (d *Database) InsertTranscription(ctx context.Context, t *models.Transcription) (int64, error) {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO transcriptions (video_url, video_title, transcription, duration, word_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.VideoURL, t.VideoTitle, t.Transcription, t.Duration, t.WordCount, createdAt.UTC(),
	)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodePersistence, "failed to save transcription")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodePersistence, "failed to read transcription id")
	}
	t.ID = id
	t.CreatedAt = createdAt
	return id, nil
}

// ListTranscriptions returns all transcriptions, newest first.
func (d *Database) ListTranscriptions(ctx context.Context) ([]models.TranscriptionSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, video_title, created_at, video_url
		FROM transcriptions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list transcriptions")
	}
	defer rows.Close()

	var list []models.TranscriptionSummary
	for rows.Next() {
		var s models.TranscriptionSummary
		var title, url sql.NullString
		if err := rows.Scan(&s.ID, &title, &s.CreatedAt, &url); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to read transcription")
		}
		s.VideoTitle = title.String
		s.VideoURL = url.String
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list transcriptions")
	}
	if list == nil {
		list = []models.TranscriptionSummary{}
	}
	return list, nil
}

// GetTranscription returns one transcription. A missing id yields a NOT_FOUND error.
func (d *Database) GetTranscription(ctx context.Context, id int64) (*models.Transcription, error) {
	t := &models.Transcription{}
	var url, title, text sql.NullString
	var duration sql.NullFloat64
	var wordCount sql.NullInt64

	err := d.db.QueryRowContext(ctx, `
		SELECT id, video_url, video_title, transcription, duration, word_count, created_at
		FROM transcriptions WHERE id = ?`, id,
	).Scan(&t.ID, &url, &title, &text, &duration, &wordCount, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.CodeNotFound, "Transcription not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to read transcription")
	}

	t.VideoURL = url.String
	t.VideoTitle = title.String
	t.Transcription = text.String
	if duration.Valid {
		t.Duration = &duration.Float64
	}
	if wordCount.Valid {
		wc := int(wordCount.Int64)
		t.WordCount = &wc
	}
	return t, nil
}

func (d *Database) Close() error {
	log.Printf("[db] closing database")
	return d.db.Close()
}
