package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrChapterNotFound is returned by lookups on a missing chapter.
var ErrChapterNotFound = errors.New("store: chapter not found")

// GetChapter retrieves a chapter by series slug and number.
func (s *Store) GetChapter(ctx context.Context, seriesSlug string, number int) (*Chapter, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, series_slug, chapter_number, title, link, created_at, updated_at
		FROM chapters WHERE series_slug = ? AND chapter_number = ?`,
		seriesSlug, number)
	var c Chapter
	err := row.Scan(&c.ID, &c.SeriesSlug, &c.ChapterNumber, &c.Title, &c.Link,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChapterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChapters returns all chapters for a series, newest first.
func (s *Store) ListChapters(ctx context.Context, seriesSlug string) ([]*Chapter, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, series_slug, chapter_number, title, link, created_at, updated_at
		FROM chapters WHERE series_slug = ? ORDER BY chapter_number DESC`, seriesSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		var c Chapter
		if err := rows.Scan(&c.ID, &c.SeriesSlug, &c.ChapterNumber, &c.Title, &c.Link,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chapters = append(chapters, &c)
	}
	return chapters, rows.Err()
}

// getOrCreateChapterTx resolves the chapter row inside the batch transaction,
// creating it with the ref's metadata when absent.
func (s *Store) getOrCreateChapterTx(ctx context.Context, tx *sql.Tx, ref ChapterRef) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM chapters WHERE series_slug = ? AND chapter_number = ?`,
		ref.SeriesSlug, ref.ChapterNumber).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = s.chapterID()
	now := time.Now().UnixMilli()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO chapters (id, series_slug, chapter_number, title, link, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ref.SeriesSlug, ref.ChapterNumber, ref.Title, ref.Link, now, now)
	if err != nil {
		return "", err
	}
	return id, nil
}
