// Package ingest orchestrates one chapter submission end to end: input
// routing, stitching, tiling, serial OCR, coordinate reconciliation,
// dialogue grouping, term extraction, and the single durable write.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hangana/toonvocab/archive"
	"github.com/hangana/toonvocab/idgen"
	"github.com/hangana/toonvocab/imaging"
	"github.com/hangana/toonvocab/ingest/internal/store"
	"github.com/hangana/toonvocab/layout"
	"github.com/hangana/toonvocab/ocr"
	"github.com/hangana/toonvocab/vocab"
)

// State is the orchestrator's position in the pipeline, logged on every
// transition and recorded with failures.
type State string

const (
	StateIdle       State = "idle"
	StateOcrRunning State = "ocr_running"
	StateGrouping   State = "grouping"
	StateExtracting State = "extracting"
	StatePersisting State = "persisting"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// OCRProvider recognizes text in one image buffer.
type OCRProvider interface {
	Recognize(ctx context.Context, image []byte) (*ocr.Response, error)
}

// TermExtractor turns dialogue text into vocabulary and grammar items.
type TermExtractor interface {
	Extract(ctx context.Context, dialogue string) (*vocab.Result, error)
}

// Config tunes one Service. Zero values fall back to package defaults.
type Config struct {
	Archive        archive.Limits
	Tiling         imaging.TileOptions
	DedupEpsilonPx int           // default layout.DefaultEpsilonPx
	GroupGapPx     int           // default layout.DefaultGapPx
	TileDelay      time.Duration // pause between serial OCR calls, default 500ms
	Logger         *slog.Logger
}

func (c *Config) defaults() {
	if c.DedupEpsilonPx <= 0 {
		c.DedupEpsilonPx = layout.DefaultEpsilonPx
	}
	if c.GroupGapPx <= 0 {
		c.GroupGapPx = layout.DefaultGapPx
	}
	if c.TileDelay <= 0 {
		c.TileDelay = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service runs chapter submissions. One Process call owns all of its
// buffers; nothing is shared across invocations.
type Service struct {
	ocr       OCRProvider
	extractor TermExtractor
	store     *store.Store
	cfg       Config
	jobID     idgen.Generator
}

// NewService wires an orchestrator from its three dependencies. The
// database must already carry the schema (see ApplySchema).
func NewService(ocrProvider OCRProvider, extractor TermExtractor, db *sql.DB, cfg Config) *Service {
	cfg.defaults()
	return &Service{
		ocr:       ocrProvider,
		extractor: extractor,
		store:     store.NewStore(db),
		cfg:       cfg,
		jobID:     idgen.Prefixed("job_", idgen.Default),
	}
}

// Schema is the pipeline's SQL schema.
const Schema = store.Schema

// ApplySchema creates the pipeline's tables on db.
func ApplySchema(db *sql.DB) error {
	return store.ApplySchema(db)
}

// Submission is one chapter upload: the raw buffer plus its target chapter.
type Submission struct {
	SeriesSlug    string
	ChapterNumber int
	ChapterTitle  string
	ChapterLink   string
	Data          []byte
}

// Output is the pipeline's result for one submission.
type Output struct {
	JobID                 string `json:"jobId"`
	ChapterID             string `json:"chapterId"`
	NewWordsInserted      int    `json:"newWordsInserted"`
	TotalWordsInChapter   int    `json:"totalWordsInChapter"`
	NewGrammarInserted    int    `json:"newGrammarInserted"`
	TotalGrammarInChapter int    `json:"totalGrammarInChapter"`
	DialogueLinesCount    int    `json:"dialogueLinesCount"`
	WordsExtracted        int    `json:"wordsExtracted"`
}

// Process runs one submission through the whole pipeline. Stages run
// strictly in sequence; the first failure aborts the job with a
// stage-prefixed error. There is no retry anywhere; resubmitting the
// chapter is the caller's move. rec may be nil.
func (s *Service) Process(ctx context.Context, sub Submission, rec *ArtifactRecorder) (*Output, error) {
	start := time.Now()
	jobID := s.jobID()
	logger := s.cfg.Logger.With("job_id", jobID, "series", sub.SeriesSlug, "chapter", sub.ChapterNumber)
	job := rec.Job(jobID)

	state := StateIdle
	run := store.RunRecord{JobID: jobID, SeriesSlug: sub.SeriesSlug, ChapterNumber: sub.ChapterNumber}
	out, err := s.run(ctx, sub, job, logger, &state, &run)
	run.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		logger.Error("pipeline failed", "state", state, "error", err)
		run.Status, run.ErrorMessage = string(StateFailed), err.Error()
		s.logRun(run)
		return nil, err
	}
	out.JobID = jobID

	logger.Info("pipeline completed",
		"dialogue_lines", out.DialogueLinesCount,
		"words_extracted", out.WordsExtracted,
		"new_words", out.NewWordsInserted,
		"duration_ms", run.DurationMS)
	run.Status = string(StateCompleted)
	s.logRun(run)
	job.SaveJSON("result.json", out)
	return out, nil
}

func (s *Service) run(ctx context.Context, sub Submission, job *JobArtifacts, logger *slog.Logger, state *State, run *store.RunRecord) (*Output, error) {
	if strings.TrimSpace(sub.SeriesSlug) == "" || sub.ChapterNumber < 0 || len(sub.Data) == 0 {
		return nil, fmt.Errorf("%w: series slug, chapter number and file are required", ErrBadSubmission)
	}

	buffers, err := s.routeInput(sub.Data)
	if err != nil {
		return nil, err
	}
	logger.Debug("input routed", "images", len(buffers))

	stitched, err := imaging.Stitch(buffers)
	if err != nil {
		return nil, fmt.Errorf("stitch: %w", err)
	}
	job.Save("original.png", stitched)

	_, imageHeight, err := imaging.Dimensions(stitched)
	if err != nil {
		return nil, fmt.Errorf("stitched image: %w", err)
	}

	tiles, err := imaging.Split(stitched, s.cfg.Tiling)
	if err != nil {
		return nil, fmt.Errorf("tiling: %w", err)
	}
	logger.Debug("image tiled", "tiles", len(tiles), "height", imageHeight)

	*state = StateOcrRunning
	sets, err := s.recognizeTiles(ctx, tiles, imageHeight, job, logger)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	*state = StateGrouping
	frags := layout.Dedup(sets, s.cfg.DedupEpsilonPx)
	job.SaveJSON("fragments_deduped.json", frags)
	if len(frags) == 0 {
		return nil, fmt.Errorf("OCR failed: %w", ErrNoTextDetected)
	}

	dialogueLines := layout.GroupLines(frags, s.cfg.GroupGapPx)
	dialogue := layout.CombinedText(dialogueLines)
	job.Save("dialogue.txt", []byte(dialogue))
	run.DialogueLines = len(dialogueLines)
	logger.Debug("dialogue grouped", "lines", run.DialogueLines, "fragments", len(frags))

	*state = StateExtracting
	result, err := s.extractor.Extract(ctx, dialogue)
	if err != nil {
		return nil, fmt.Errorf("Word extraction failed: %w", err)
	}
	run.WordsExtracted = len(result.Vocabulary)
	run.GrammarExtracted = len(result.Grammar)
	logger.Debug("terms extracted", "vocabulary", run.WordsExtracted, "grammar", run.GrammarExtracted)

	*state = StatePersisting
	chapterID, words, grammar, err := s.store.StoreBatch(ctx, store.ChapterRef{
		SeriesSlug:    sub.SeriesSlug,
		ChapterNumber: sub.ChapterNumber,
		Title:         sub.ChapterTitle,
		Link:          sub.ChapterLink,
	}, result)
	if err != nil {
		return nil, fmt.Errorf("Database storage failed: %w", err)
	}

	*state = StateCompleted
	return &Output{
		ChapterID:             chapterID,
		NewWordsInserted:      words.NewInserted,
		TotalWordsInChapter:   words.Total,
		NewGrammarInserted:    grammar.NewInserted,
		TotalGrammarInChapter: grammar.Total,
		DialogueLinesCount:    run.DialogueLines,
		WordsExtracted:        run.WordsExtracted,
	}, nil
}

// routeInput turns the uploaded buffer into ordered image buffers by
// sniffing its magic bytes. Caller-supplied names and content types are
// never trusted.
func (s *Service) routeInput(data []byte) ([][]byte, error) {
	switch {
	case archive.IsZip(data):
		images, err := archive.ExtractZip(data, s.cfg.Archive)
		if err != nil {
			return nil, err
		}
		return imageBuffers(images), nil
	case archive.IsPDF(data):
		images, err := archive.ImagesFromPDF(data, s.cfg.Archive)
		if err != nil {
			return nil, err
		}
		return imageBuffers(images), nil
	case archive.IsImage(data):
		return [][]byte{data}, nil
	default:
		return nil, ErrUnsupportedInput
	}
}

func imageBuffers(images []archive.Image) [][]byte {
	buffers := make([][]byte, len(images))
	for i, img := range images {
		buffers[i] = img.Data
	}
	return buffers
}

// recognizeTiles OCRs each tile serially, pausing between calls to respect
// the provider's rate limit. One tile's failure aborts the job, since a missing
// tile would silently corrupt the dialogue.
func (s *Service) recognizeTiles(ctx context.Context, tiles []imaging.Tile, imageHeight int, job *JobArtifacts, logger *slog.Logger) ([]layout.TileSet, error) {
	sets := make([]layout.TileSet, 0, len(tiles))
	for i, tile := range tiles {
		if i > 0 {
			select {
			case <-time.After(s.cfg.TileDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		job.Save(tileName(i, ".jpg"), tile.Data)
		job.SaveJSON(tileName(i, ".meta.json"), map[string]int{
			"startY": tile.StartY, "width": tile.Width, "height": tile.Height,
		})

		resp, err := s.ocr.Recognize(ctx, tile.Data)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
		job.SaveJSON(tileName(i, ".ocr_raw.json"), resp)

		if outcome := resp.Outcome(); !outcome.OK {
			return nil, fmt.Errorf("tile %d: %w: %s", i, ErrOCRRejected, outcome.Reason)
		}

		frags := ocr.Flatten(resp)
		job.SaveJSON(tileName(i, ".fragments.json"), frags)

		adjusted := layout.Reconcile(frags, tile.StartY, imageHeight)
		job.SaveJSON(tileName(i, ".adjusted.json"), adjusted)
		logger.Debug("tile recognized", "tile", i, "fragments", len(adjusted))

		sets = append(sets, layout.TileSet{
			StartY:    tile.StartY,
			Height:    tile.Height,
			Fragments: adjusted,
		})
	}
	return sets, nil
}

// logRun appends the processing_log row; failures only warn.
func (s *Service) logRun(run store.RunRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.RecordRun(ctx, run); err != nil {
		s.cfg.Logger.Warn("record run", "job_id", run.JobID, "error", err)
	}
}
