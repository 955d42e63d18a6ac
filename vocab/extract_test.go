package vocab

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// fakeGen returns a canned payload without touching the network.
type fakeGen struct {
	text string
	err  error

	called bool
}

func (f *fakeGen) Generate(_ context.Context, _ string, _ json.RawMessage) (string, error) {
	f.called = true
	return f.text, f.err
}

func TestExtractEmptyDialogueFailsFast(t *testing.T) {
	// WHAT: Blank dialogue returns ErrEmptyDialogue before any provider call.
	// WHY: A chapter with no recognized text should never burn a model request.
	gen := &fakeGen{}
	e := NewExtractor(gen, nil)

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := e.Extract(context.Background(), in)
		if !errors.Is(err, ErrEmptyDialogue) {
			t.Errorf("input %q: got %v, want ErrEmptyDialogue", in, err)
		}
	}
	if gen.called {
		t.Fatal("provider was called for empty dialogue")
	}
}

func TestExtractParsesBothArrays(t *testing.T) {
	// WHAT: A well-formed two-array response decodes into Result.
	gen := &fakeGen{text: `{
		"vocabulary": [
			{"term":"학교","definition":"school","importanceScore":80,"senseKey":"institution","chapterExample":"학교에 간다","globalExample":"학교가 멀다"}
		],
		"grammar": [
			{"term":"-(으)러","definition":"in order to","importanceScore":70,"senseKey":"purpose"}
		]
	}`}
	e := NewExtractor(gen, nil)

	res, err := e.Extract(context.Background(), "학교에 간다")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Vocabulary) != 1 || len(res.Grammar) != 1 {
		t.Fatalf("counts: vocab=%d grammar=%d", len(res.Vocabulary), len(res.Grammar))
	}
	v := res.Vocabulary[0]
	if v.Term != "학교" || v.ImportanceScore != 80 || v.SenseKey != "institution" {
		t.Errorf("vocab item: %+v", v)
	}
	// Examples are optional; the grammar item omitted them.
	if g := res.Grammar[0]; g.ChapterExample != "" || g.Term != "-(으)러" {
		t.Errorf("grammar item: %+v", g)
	}
}

func TestExtractMissingArrayIsInvalid(t *testing.T) {
	// WHAT: A response lacking either top-level array fails with
	// ErrInvalidModelResponse, even when the rest parses.
	// WHY: Missing array and empty array mean different things; only the
	// latter is a legitimate "nothing to learn" result.
	cases := []string{
		`{"vocabulary": []}`,
		`{"grammar": []}`,
		`{"words": [], "patterns": []}`,
		`[1, 2, 3]`,
		`not json at all`,
	}
	e := NewExtractor(&fakeGen{}, nil)
	for _, body := range cases {
		e.gen = &fakeGen{text: body}
		_, err := e.Extract(context.Background(), "안녕")
		if !errors.Is(err, ErrInvalidModelResponse) {
			t.Errorf("body %q: got %v, want ErrInvalidModelResponse", body, err)
		}
	}
}

func TestExtractEmptyArraysAreValid(t *testing.T) {
	// WHAT: Both arrays present but empty is a valid, empty Result.
	e := NewExtractor(&fakeGen{text: `{"vocabulary": [], "grammar": []}`}, nil)
	res, err := e.Extract(context.Background(), "음")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Vocabulary) != 0 || len(res.Grammar) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestExtractDropsIncompleteItems(t *testing.T) {
	// WHAT: Items missing term/definition/senseKey or with an out-of-range
	// score are dropped individually; the rest of the batch survives.
	gen := &fakeGen{text: `{
		"vocabulary": [
			{"term":"","definition":"d","importanceScore":50,"senseKey":"k"},
			{"term":"좋다","definition":"","importanceScore":50,"senseKey":"k"},
			{"term":"좋다","definition":"good","importanceScore":50,"senseKey":""},
			{"term":"좋다","definition":"good","importanceScore":150,"senseKey":"quality"},
			{"term":"좋다","definition":"good","importanceScore":90,"senseKey":"quality"}
		],
		"grammar": []
	}`}
	e := NewExtractor(gen, nil)

	res, err := e.Extract(context.Background(), "좋다")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Vocabulary) != 1 {
		t.Fatalf("kept %d items, want 1: %+v", len(res.Vocabulary), res.Vocabulary)
	}
	if res.Vocabulary[0].ImportanceScore != 90 {
		t.Errorf("wrong survivor: %+v", res.Vocabulary[0])
	}
}

func TestExtractToleratesFloatScoresAndFences(t *testing.T) {
	// WHAT: A fenced payload with float scores still decodes.
	// WHY: Models occasionally wrap JSON in markdown and emit 85.0 for 85
	// despite the schema; both are recoverable.
	gen := &fakeGen{text: "```json\n" + `{
		"vocabulary": [{"term":"밥","definition":"rice; meal","importanceScore":85.0,"senseKey":"food"}],
		"grammar": []
	}` + "\n```"}
	e := NewExtractor(gen, nil)

	res, err := e.Extract(context.Background(), "밥 먹자")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Vocabulary) != 1 || res.Vocabulary[0].ImportanceScore != 85 {
		t.Fatalf("result: %+v", res)
	}
}

func TestExtractPropagatesProviderError(t *testing.T) {
	wantErr := errors.New("boom")
	e := NewExtractor(&fakeGen{err: wantErr}, nil)
	_, err := e.Extract(context.Background(), "안녕")
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want provider error", err)
	}
}
