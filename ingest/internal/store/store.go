// Package store is the persistence adapter: chapters, the global word and
// grammar inventories, the per-chapter link tables, and the processing log.
package store

import (
	"database/sql"

	"github.com/hangana/toonvocab/idgen"
)

// Store wraps an already-opened database.
type Store struct {
	DB *sql.DB

	chapterID idgen.Generator
	wordID    idgen.Generator
	grammarID idgen.Generator
	logID     idgen.Generator
}

// NewStore creates a Store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:        db,
		chapterID: idgen.Prefixed("ch_", idgen.Default),
		wordID:    idgen.Prefixed("wrd_", idgen.Default),
		grammarID: idgen.Prefixed("grm_", idgen.Default),
		logID:     idgen.Prefixed("plog_", idgen.Default),
	}
}
