package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hangana/toonvocab/idgen"
	"github.com/hangana/toonvocab/vocab"
)

// inventory names the table pair a batch writes to. Table names are fixed
// constants, never caller input.
type inventory struct {
	table     string // global rows
	linkTable string // per-chapter links
	linkCol   string // FK column in the link table
	newID     idgen.Generator
}

// StoreBatch persists one chapter's extraction output in a single
// transaction: the chapter row is resolved or created, each item is matched
// to its global (term, sense_key) row or inserted, then linked to the
// chapter. Re-linking an already-linked item refreshes its chapter example
// but does not count as new, so a second identical call reports
// NewInserted = 0 with Total unchanged.
func (s *Store) StoreBatch(ctx context.Context, ref ChapterRef, res *vocab.Result) (chapterID string, words, grammar BatchResult, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", BatchResult{}, BatchResult{}, err
	}
	defer tx.Rollback()

	chapterID, err = s.getOrCreateChapterTx(ctx, tx, ref)
	if err != nil {
		return "", BatchResult{}, BatchResult{}, fmt.Errorf("resolve chapter: %w", err)
	}

	words, err = s.storeItemsTx(ctx, tx, chapterID, res.Vocabulary, inventory{
		table: "words", linkTable: "chapter_words", linkCol: "word_id", newID: s.wordID,
	})
	if err != nil {
		return "", BatchResult{}, BatchResult{}, fmt.Errorf("store vocabulary: %w", err)
	}

	grammar, err = s.storeItemsTx(ctx, tx, chapterID, res.Grammar, inventory{
		table: "grammar_points", linkTable: "chapter_grammar", linkCol: "grammar_id", newID: s.grammarID,
	})
	if err != nil {
		return "", BatchResult{}, BatchResult{}, fmt.Errorf("store grammar: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", BatchResult{}, BatchResult{}, err
	}
	return chapterID, words, grammar, nil
}

func (s *Store) storeItemsTx(ctx context.Context, tx *sql.Tx, chapterID string, items []vocab.Item, inv inventory) (BatchResult, error) {
	now := time.Now().UnixMilli()
	var res BatchResult

	for _, item := range items {
		rowID, err := s.resolveItemTx(ctx, tx, item, inv, now)
		if err != nil {
			return BatchResult{}, err
		}

		var linked bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM `+inv.linkTable+` WHERE chapter_id = ? AND `+inv.linkCol+` = ?)`,
			chapterID, rowID).Scan(&linked)
		if err != nil {
			return BatchResult{}, err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO `+inv.linkTable+` (chapter_id, `+inv.linkCol+`, chapter_example, importance_score, linked_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(chapter_id, `+inv.linkCol+`) DO UPDATE SET
				chapter_example = excluded.chapter_example,
				importance_score = excluded.importance_score`,
			chapterID, rowID, item.ChapterExample, item.ImportanceScore, now)
		if err != nil {
			return BatchResult{}, err
		}
		if !linked {
			res.NewInserted++
		}
	}

	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+inv.linkTable+` WHERE chapter_id = ?`, chapterID).Scan(&res.Total)
	if err != nil {
		return BatchResult{}, err
	}
	return res, nil
}

// resolveItemTx finds the global row matching (term, sense_key) or inserts
// a new one. Existing rows keep their definition; a repeat sighting only
// refreshes the global example when it was previously empty.
func (s *Store) resolveItemTx(ctx context.Context, tx *sql.Tx, item vocab.Item, inv inventory, now int64) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM `+inv.table+` WHERE term = ? AND sense_key = ?`,
		item.Term, item.SenseKey).Scan(&id)
	if err == nil {
		if item.GlobalExample != "" {
			_, uerr := tx.ExecContext(ctx,
				`UPDATE `+inv.table+` SET global_example = ?, updated_at = ?
				WHERE id = ? AND global_example = ''`,
				item.GlobalExample, now, id)
			if uerr != nil {
				return "", uerr
			}
		}
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = inv.newID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO `+inv.table+` (id, term, sense_key, definition, importance_score, global_example, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, item.Term, item.SenseKey, item.Definition, item.ImportanceScore,
		item.GlobalExample, now, now)
	if err != nil {
		return "", err
	}
	return id, nil
}
