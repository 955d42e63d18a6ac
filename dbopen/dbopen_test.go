package dbopen

import (
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenMemoryAppliesPragmas(t *testing.T) {
	// WHAT: In-memory open succeeds and foreign_keys is enabled.
	// WHY: The word/chapter link tables rely on FK cascade semantics.
	db := OpenMemory(t)

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys: got %d, want 1", fk)
	}
}

func TestWithSchema(t *testing.T) {
	// WHAT: Inline schema runs at open time.
	// WHY: Store tests open with the full schema in one call.
	db := OpenMemory(t, WithSchema(`CREATE TABLE probe (id TEXT PRIMARY KEY)`))

	if _, err := db.Exec(`INSERT INTO probe (id) VALUES ('x')`); err != nil {
		t.Fatalf("insert into schema table: %v", err)
	}
}
