package store

import "database/sql"

// Schema is the complete toonvocab schema. Words and grammar points are
// global inventories keyed by (term, sense_key); chapters reference them
// through link tables carrying the chapter-specific example.
const Schema = `
CREATE TABLE IF NOT EXISTS chapters (
    id             TEXT PRIMARY KEY,
    series_slug    TEXT NOT NULL,
    chapter_number INTEGER NOT NULL,
    title          TEXT NOT NULL DEFAULT '',
    link           TEXT NOT NULL DEFAULT '',
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL,
    UNIQUE(series_slug, chapter_number)
);

CREATE TABLE IF NOT EXISTS words (
    id               TEXT PRIMARY KEY,
    term             TEXT NOT NULL,
    sense_key        TEXT NOT NULL,
    definition       TEXT NOT NULL,
    importance_score INTEGER NOT NULL DEFAULT 0,
    global_example   TEXT NOT NULL DEFAULT '',
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL,
    UNIQUE(term, sense_key)
);

CREATE TABLE IF NOT EXISTS chapter_words (
    chapter_id       TEXT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
    word_id          TEXT NOT NULL REFERENCES words(id) ON DELETE CASCADE,
    chapter_example  TEXT NOT NULL DEFAULT '',
    importance_score INTEGER NOT NULL DEFAULT 0,
    linked_at        INTEGER NOT NULL,
    PRIMARY KEY(chapter_id, word_id)
);
CREATE INDEX IF NOT EXISTS idx_chapter_words_word ON chapter_words(word_id);

CREATE TABLE IF NOT EXISTS grammar_points (
    id               TEXT PRIMARY KEY,
    term             TEXT NOT NULL,
    sense_key        TEXT NOT NULL,
    definition       TEXT NOT NULL,
    importance_score INTEGER NOT NULL DEFAULT 0,
    global_example   TEXT NOT NULL DEFAULT '',
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL,
    UNIQUE(term, sense_key)
);

CREATE TABLE IF NOT EXISTS chapter_grammar (
    chapter_id       TEXT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
    grammar_id       TEXT NOT NULL REFERENCES grammar_points(id) ON DELETE CASCADE,
    chapter_example  TEXT NOT NULL DEFAULT '',
    importance_score INTEGER NOT NULL DEFAULT 0,
    linked_at        INTEGER NOT NULL,
    PRIMARY KEY(chapter_id, grammar_id)
);
CREATE INDEX IF NOT EXISTS idx_chapter_grammar_point ON chapter_grammar(grammar_id);

-- Pipeline run log (observability, never read by the pipeline)
CREATE TABLE IF NOT EXISTS processing_log (
    id              TEXT PRIMARY KEY,
    job_id          TEXT NOT NULL,
    series_slug     TEXT NOT NULL,
    chapter_number  INTEGER NOT NULL,
    status          TEXT NOT NULL,
    error_message   TEXT NOT NULL DEFAULT '',
    dialogue_lines  INTEGER NOT NULL DEFAULT 0,
    words_extracted INTEGER NOT NULL DEFAULT 0,
    grammar_extracted INTEGER NOT NULL DEFAULT 0,
    duration_ms     INTEGER NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processing_log_chapter ON processing_log(series_slug, chapter_number, created_at DESC);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
