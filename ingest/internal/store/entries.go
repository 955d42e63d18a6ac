package store

import "context"

// ChapterWords lists a chapter's vocabulary, highest importance first.
func (s *Store) ChapterWords(ctx context.Context, seriesSlug string, number int) ([]*Entry, error) {
	return s.chapterEntries(ctx, seriesSlug, number,
		`SELECT w.id, w.term, w.sense_key, w.definition, cw.importance_score, cw.chapter_example, w.global_example
		FROM chapter_words cw
		JOIN words w ON w.id = cw.word_id
		JOIN chapters c ON c.id = cw.chapter_id
		WHERE c.series_slug = ? AND c.chapter_number = ?
		ORDER BY cw.importance_score DESC, w.term`)
}

// ChapterGrammar lists a chapter's grammar points, highest importance first.
func (s *Store) ChapterGrammar(ctx context.Context, seriesSlug string, number int) ([]*Entry, error) {
	return s.chapterEntries(ctx, seriesSlug, number,
		`SELECT g.id, g.term, g.sense_key, g.definition, cg.importance_score, cg.chapter_example, g.global_example
		FROM chapter_grammar cg
		JOIN grammar_points g ON g.id = cg.grammar_id
		JOIN chapters c ON c.id = cg.chapter_id
		WHERE c.series_slug = ? AND c.chapter_number = ?
		ORDER BY cg.importance_score DESC, g.term`)
}

func (s *Store) chapterEntries(ctx context.Context, seriesSlug string, number int, query string) ([]*Entry, error) {
	rows, err := s.DB.QueryContext(ctx, query, seriesSlug, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Term, &e.SenseKey, &e.Definition,
			&e.ImportanceScore, &e.ChapterExample, &e.GlobalExample); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
