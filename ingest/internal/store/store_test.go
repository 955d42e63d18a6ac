package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hangana/toonvocab/dbopen"
	"github.com/hangana/toonvocab/vocab"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return NewStore(db)
}

func sampleResult() *vocab.Result {
	return &vocab.Result{
		Vocabulary: []vocab.Item{
			{Term: "학교", Definition: "school", ImportanceScore: 80, SenseKey: "institution",
				ChapterExample: "학교에 간다", GlobalExample: "학교가 멀다"},
			{Term: "눈", Definition: "eye", ImportanceScore: 60, SenseKey: "body"},
			{Term: "눈", Definition: "snow", ImportanceScore: 55, SenseKey: "weather"},
		},
		Grammar: []vocab.Item{
			{Term: "-(으)러", Definition: "in order to", ImportanceScore: 70, SenseKey: "purpose",
				ChapterExample: "학교에 공부하러 간다"},
		},
	}
}

func TestApplySchema(t *testing.T) {
	// WHAT: Verify schema creates all tables without error.
	s := openTestStore(t)
	for _, table := range []string{"chapters", "words", "chapter_words",
		"grammar_points", "chapter_grammar", "processing_log"} {
		var name string
		err := s.DB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestStoreBatchCreatesChapterAndRows(t *testing.T) {
	// WHAT: A first batch creates the chapter, the global rows, and the links.
	// WHY: This is the pipeline's only durable write.
	s := openTestStore(t)
	ctx := context.Background()

	ref := ChapterRef{SeriesSlug: "tower", ChapterNumber: 3, Title: "3화", Link: "https://example.com/3"}
	chapterID, words, grammar, err := s.StoreBatch(ctx, ref, sampleResult())
	if err != nil {
		t.Fatalf("store batch: %v", err)
	}
	if chapterID == "" {
		t.Fatal("empty chapter id")
	}
	if words.NewInserted != 3 || words.Total != 3 {
		t.Errorf("words: %+v", words)
	}
	if grammar.NewInserted != 1 || grammar.Total != 1 {
		t.Errorf("grammar: %+v", grammar)
	}

	ch, err := s.GetChapter(ctx, "tower", 3)
	if err != nil {
		t.Fatalf("get chapter: %v", err)
	}
	if ch.ID != chapterID || ch.Title != "3화" {
		t.Errorf("chapter: %+v", ch)
	}
}

func TestStoreBatchIdempotent(t *testing.T) {
	// WHAT: Re-running the exact same batch reports zero new items and
	// leaves the totals unchanged.
	// WHY: Reprocessing a chapter (admin resubmission) must not duplicate rows.
	s := openTestStore(t)
	ctx := context.Background()
	ref := ChapterRef{SeriesSlug: "tower", ChapterNumber: 3}

	if _, _, _, err := s.StoreBatch(ctx, ref, sampleResult()); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	_, words, grammar, err := s.StoreBatch(ctx, ref, sampleResult())
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if words.NewInserted != 0 || words.Total != 3 {
		t.Errorf("words after rerun: %+v", words)
	}
	if grammar.NewInserted != 0 || grammar.Total != 1 {
		t.Errorf("grammar after rerun: %+v", grammar)
	}

	var globalWords int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM words`).Scan(&globalWords); err != nil {
		t.Fatal(err)
	}
	if globalWords != 3 {
		t.Errorf("global word rows: got %d, want 3", globalWords)
	}
}

func TestStoreBatchSenseKeyDisambiguates(t *testing.T) {
	// WHAT: Identical terms with different sense keys are distinct rows;
	// the same (term, senseKey) seen in another chapter reuses the row.
	s := openTestStore(t)
	ctx := context.Background()

	if _, _, _, err := s.StoreBatch(ctx, ChapterRef{SeriesSlug: "tower", ChapterNumber: 3}, sampleResult()); err != nil {
		t.Fatal(err)
	}
	// Chapter 4 sees 눈 (snow) again plus a new word.
	res := &vocab.Result{Vocabulary: []vocab.Item{
		{Term: "눈", Definition: "snow", ImportanceScore: 40, SenseKey: "weather"},
		{Term: "겨울", Definition: "winter", ImportanceScore: 50, SenseKey: "season"},
	}}
	_, words, _, err := s.StoreBatch(ctx, ChapterRef{SeriesSlug: "tower", ChapterNumber: 4}, res)
	if err != nil {
		t.Fatal(err)
	}
	if words.NewInserted != 2 || words.Total != 2 {
		t.Errorf("chapter 4 words: %+v", words)
	}

	var globalWords int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM words`).Scan(&globalWords); err != nil {
		t.Fatal(err)
	}
	// 학교, 눈(body), 눈(weather), 겨울; the repeat 눈(weather) reused its row.
	if globalWords != 4 {
		t.Errorf("global word rows: got %d, want 4", globalWords)
	}
}

func TestStoreBatchUpdatesChapterExample(t *testing.T) {
	// WHAT: Re-linking refreshes the chapter-specific example in place.
	s := openTestStore(t)
	ctx := context.Background()
	ref := ChapterRef{SeriesSlug: "tower", ChapterNumber: 3}

	first := &vocab.Result{Vocabulary: []vocab.Item{
		{Term: "학교", Definition: "school", ImportanceScore: 80, SenseKey: "institution", ChapterExample: "old"},
	}}
	second := &vocab.Result{Vocabulary: []vocab.Item{
		{Term: "학교", Definition: "school", ImportanceScore: 80, SenseKey: "institution", ChapterExample: "new"},
	}}
	if _, _, _, err := s.StoreBatch(ctx, ref, first); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := s.StoreBatch(ctx, ref, second); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ChapterWords(ctx, "tower", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ChapterExample != "new" {
		t.Errorf("entries: %+v", entries)
	}
}

func TestChapterEntriesOrderedByImportance(t *testing.T) {
	// WHAT: Read queries return entries highest-importance first with the
	// chapter example joined in.
	s := openTestStore(t)
	ctx := context.Background()

	if _, _, _, err := s.StoreBatch(ctx, ChapterRef{SeriesSlug: "tower", ChapterNumber: 3}, sampleResult()); err != nil {
		t.Fatal(err)
	}
	entries, err := s.ChapterWords(ctx, "tower", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("count: %d", len(entries))
	}
	if entries[0].Term != "학교" || entries[0].ChapterExample != "학교에 간다" {
		t.Errorf("top entry: %+v", entries[0])
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ImportanceScore > entries[i-1].ImportanceScore {
			t.Errorf("not ordered at %d", i)
		}
	}

	grammar, err := s.ChapterGrammar(ctx, "tower", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(grammar) != 1 || grammar[0].Term != "-(으)러" {
		t.Errorf("grammar: %+v", grammar)
	}
}

func TestGetChapterNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetChapter(context.Background(), "nope", 1)
	if !errors.Is(err, ErrChapterNotFound) {
		t.Fatalf("got %v, want ErrChapterNotFound", err)
	}
}

func TestRecordRun(t *testing.T) {
	// WHAT: A processing_log row lands with the run's counters.
	s := openTestStore(t)
	err := s.RecordRun(context.Background(), RunRecord{
		JobID: "job_1", SeriesSlug: "tower", ChapterNumber: 3,
		Status: "completed", DialogueLines: 12, WordsExtracted: 9,
		GrammarExtracted: 2, DurationMS: 4200,
	})
	if err != nil {
		t.Fatalf("record run: %v", err)
	}

	var status string
	var lines int
	row := s.DB.QueryRow(`SELECT status, dialogue_lines FROM processing_log WHERE job_id = ?`, "job_1")
	if err := row.Scan(&status, &lines); err != nil && !errors.Is(err, sql.ErrNoRows) {
		t.Fatal(err)
	}
	if status != "completed" || lines != 12 {
		t.Errorf("row: %s %d", status, lines)
	}
}
