package store

import (
	"context"
	"time"
)

// RecordRun appends one processing_log row. Best-effort observability;
// callers typically log and ignore the error.
func (s *Store) RecordRun(ctx context.Context, r RunRecord) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO processing_log (id, job_id, series_slug, chapter_number, status,
		error_message, dialogue_lines, words_extracted, grammar_extracted, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.logID(), r.JobID, r.SeriesSlug, r.ChapterNumber, r.Status,
		r.ErrorMessage, r.DialogueLines, r.WordsExtracted, r.GrammarExtracted,
		r.DurationMS, time.Now().UnixMilli())
	return err
}
