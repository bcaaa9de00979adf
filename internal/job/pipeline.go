package job

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"math"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/video-stream/transcriber/internal/db/models"
	apperrors "github.com/video-stream/transcriber/internal/errors"
	"github.com/video-stream/transcriber/internal/fetch"
	"github.com/video-stream/transcriber/internal/recognizer"
	"github.com/video-stream/transcriber/internal/transcript"
)

// EngineSource hands out loaded recognition engines. *recognizer.Cache implements it.
type EngineSource interface {
	Get(ctx context.Context, kind recognizer.Kind, size string) (recognizer.Engine, error)
}

// Store persists finished transcriptions. *db.Database implements it.
type Store interface {
	InsertTranscription(ctx context.Context, t *models.Transcription) (int64, error)
}

// Pipeline runs transcription jobs: fetch, recognize, persist, complete.
type Pipeline struct {
	fetcher     fetch.Fetcher
	engines     EngineSource
	store       Store
	downloadDir string
	now         func() time.Time
}

// NewPipeline creates a pipeline writing audio artifacts under downloadDir.
func NewPipeline(fetcher fetch.Fetcher, engines EngineSource, store Store, downloadDir string) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		engines:     engines,
		store:       store,
		downloadDir: downloadDir,
		now:         time.Now,
	}
}

// Run returns the progress stream of one job. Stages execute while the
// sequence is iterated, each event is yielded before the next stage starts,
// and the last event is either the complete event or an error event.
//
// The sequence can be iterated once; later iterations yield nothing. If the
// consumer stops early the job still runs to the end without yielding.
func (p *Pipeline) Run(ctx context.Context, req Request) iter.Seq[Event] {
	var used atomic.Bool
	accepted := p.now()
	return func(yield func(Event) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}
		r := &run{
			p:       p,
			id:      uuid.NewString(),
			req:     req,
			started: accepted,
			yield:   yield,
		}
		r.execute(ctx)
	}
}

type run struct {
	p        *Pipeline
	id       string
	req      Request
	started  time.Time
	yield    func(Event) bool
	detached bool
}

func (r *run) emit(ev Event) {
	if r.detached {
		return
	}
	if !r.yield(ev) {
		r.detached = true
		log.Printf("[job] %s: consumer stopped reading, continuing without stream", r.id)
	}
}

func (r *run) execute(ctx context.Context) {
	log.Printf("[job] %s: start url=%s engine=%s model=%s", r.id, r.req.URL, r.req.Engine, r.req.ModelSize)

	// Fetch
	r.emit(Event{Step: StageDownload, Status: StatusActive})
	media, err := r.fetch(ctx)
	if media != nil {
		defer r.cleanup(media.Path)
	}
	if err != nil {
		log.Printf("[job] %s: fetch failed: %v", r.id, err)
		r.emit(errorEvent(fetchFailureMessage(err)))
		return
	}
	log.Printf("[job] %s: fetched %s %q (%.0fs of media)", r.id, media.ID, media.Title, media.Duration)
	r.emit(Event{Step: StageDownload, Status: StatusCompleted})

	// Recognize
	r.emit(Event{
		Step:   StageTranscribe,
		Status: StatusActive,
		Engine: string(r.req.Engine),
		Model:  r.req.ModelSize,
	})
	formatted, err := r.recognize(ctx, media.Path)
	if err != nil {
		log.Printf("[job] %s: %v", r.id, apperrors.Wrap(err, apperrors.CodeRecognition, "recognition failed"))
		r.emit(errorEvent(MsgTranscriptionError + err.Error()))
		return
	}

	result := &Result{
		Title:         media.Title,
		Transcription: formatted.FullText,
		Paragraphs:    formatted.Paragraphs,
		Stats: Stats{
			Duration:  roundSeconds(r.p.now().Sub(r.started)),
			WordCount: formatted.WordCount(),
		},
	}

	// Persist
	r.persist(ctx, result)

	// Complete
	r.emit(Event{Step: StageComplete, Status: StatusCompleted, Data: result})
	log.Printf("[job] %s: completed in %.2fs (%d words)", r.id, result.Stats.Duration, result.Stats.WordCount)
}

// fetch downloads the audio. A returned media is non-nil whenever an artifact
// path is known, even if the artifact turned out to be missing.
func (r *run) fetch(ctx context.Context) (*fetch.Media, error) {
	media, err := r.p.fetcher.Fetch(ctx, r.req.URL, r.p.downloadDir)
	if err != nil {
		return media, err
	}
	if media == nil {
		return nil, apperrors.New(apperrors.CodeFetch, "fetcher returned no media")
	}
	if _, err := os.Stat(media.Path); err != nil {
		return media, apperrors.Wrap(err, apperrors.CodeFetch, "audio artifact missing")
	}
	return media, nil
}

// fetchFailureMessage maps a fetch error to its terminal message. Failures of
// the service itself are not reported as download failures.
func fetchFailureMessage(err error) string {
	if apperrors.Is(err, apperrors.CodeInternal) || apperrors.Is(err, apperrors.CodeInvalidArg) {
		return MsgInternalError + apperrors.MessageOf(err)
	}
	return MsgDownloadFailed
}

func (r *run) recognize(ctx context.Context, audioPath string) (transcript.Formatted, error) {
	engine, err := r.p.engines.Get(ctx, r.req.Engine, r.req.ModelSize)
	if err != nil {
		return transcript.Formatted{}, err
	}

	start := time.Now()
	out, err := engine.Recognize(ctx, audioPath)
	if err != nil {
		return transcript.Formatted{}, err
	}
	if out == nil {
		return transcript.Formatted{}, errors.New("recognizer returned no output")
	}
	log.Printf("[job] %s: %s produced %d fragments in %s", r.id, engine.Name(), len(out.Fragments), time.Since(start).Round(time.Millisecond))

	return transcript.Format(out.Fragments, out.Text), nil
}

// persist writes the record. Failures are logged and do not affect the stream.
func (r *run) persist(ctx context.Context, result *Result) {
	duration := result.Stats.Duration
	wordCount := result.Stats.WordCount
	rec := &models.Transcription{
		VideoURL:      r.req.URL,
		VideoTitle:    result.Title,
		Transcription: result.Transcription,
		Duration:      &duration,
		WordCount:     &wordCount,
		CreatedAt:     r.p.now(),
	}
	id, err := r.p.store.InsertTranscription(ctx, rec)
	if err != nil {
		log.Printf("[job] %s: %v", r.id, fmt.Errorf("persist transcription: %w", err))
		return
	}
	log.Printf("[job] %s: saved transcription %d", r.id, id)
}

func (r *run) cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[job] %s: cleanup %s: %v", r.id, path, err)
	}
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
