package vocab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrEmptyDialogue is returned for blank input, before any provider call.
	ErrEmptyDialogue = errors.New("vocab: empty dialogue")
	// ErrInvalidModelResponse is returned when the payload is not the
	// expected two-array JSON object.
	ErrInvalidModelResponse = errors.New("vocab: invalid model response")
)

// responseSchema pins the provider's output to the two-array shape. Both
// arrays must be present even when empty.
const responseSchema = `{
	"type": "object",
	"properties": {
		"vocabulary": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"term": {"type": "string"},
					"definition": {"type": "string"},
					"importanceScore": {"type": "integer"},
					"senseKey": {"type": "string"},
					"chapterExample": {"type": "string"},
					"globalExample": {"type": "string"}
				},
				"required": ["term", "definition", "importanceScore", "senseKey"]
			}
		},
		"grammar": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"term": {"type": "string"},
					"definition": {"type": "string"},
					"importanceScore": {"type": "integer"},
					"senseKey": {"type": "string"},
					"chapterExample": {"type": "string"},
					"globalExample": {"type": "string"}
				},
				"required": ["term", "definition", "importanceScore", "senseKey"]
			}
		}
	},
	"required": ["vocabulary", "grammar"]
}`

const promptHeader = `You are a Korean language tutor building flashcards from webtoon dialogue.
From the dialogue below, extract the vocabulary words and grammar patterns a
learner should study, ranked by pedagogical importance for this chapter
(importanceScore 0-100). Give each entry a short senseKey distinguishing it
from other meanings of the same surface form, an example sentence taken from
the chapter (chapterExample), and an independent example (globalExample).
Definitions are in English.

Dialogue:
`

// Generator abstracts the model client for testing.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema json.RawMessage) (string, error)
}

// Extractor turns combined dialogue text into validated Items.
type Extractor struct {
	gen    Generator
	logger *slog.Logger
}

// NewExtractor creates an Extractor over the given model client.
func NewExtractor(gen Generator, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{gen: gen, logger: logger}
}

// Extract submits the newline-joined dialogue and validates the result.
// Items missing a required field are dropped individually rather than
// failing the batch: generative output is occasionally incomplete per-item
// but usually sound in aggregate.
func (e *Extractor) Extract(ctx context.Context, dialogue string) (*Result, error) {
	if strings.TrimSpace(dialogue) == "" {
		return nil, ErrEmptyDialogue
	}

	text, err := e.gen.Generate(ctx, promptHeader+dialogue, json.RawMessage(responseSchema))
	if err != nil {
		return nil, err
	}

	return parseResult(text, e.logger)
}

// wireItem tolerates the model emitting scores as floats.
type wireItem struct {
	Term            string  `json:"term"`
	Definition      string  `json:"definition"`
	ImportanceScore float64 `json:"importanceScore"`
	SenseKey        string  `json:"senseKey"`
	ChapterExample  string  `json:"chapterExample"`
	GlobalExample   string  `json:"globalExample"`
}

func parseResult(text string, logger *slog.Logger) (*Result, error) {
	text = stripFences(text)

	// Presence of both arrays is checked before decoding them: a response
	// lacking either is malformed, not merely empty.
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v", ErrInvalidModelResponse, err)
	}
	rawVocab, okV := top["vocabulary"]
	rawGrammar, okG := top["grammar"]
	if !okV || !okG {
		return nil, fmt.Errorf("%w: missing vocabulary or grammar array", ErrInvalidModelResponse)
	}

	vocab, err := decodeItems(rawVocab, "vocabulary", logger)
	if err != nil {
		return nil, err
	}
	grammar, err := decodeItems(rawGrammar, "grammar", logger)
	if err != nil {
		return nil, err
	}

	return &Result{Vocabulary: vocab, Grammar: grammar}, nil
}

func decodeItems(raw json.RawMessage, kind string, logger *slog.Logger) ([]Item, error) {
	var wire []wireItem
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %s is not an array: %v", ErrInvalidModelResponse, kind, err)
	}

	items := make([]Item, 0, len(wire))
	dropped := 0
	for _, w := range wire {
		if !validItem(w) {
			dropped++
			continue
		}
		items = append(items, Item{
			Term:            strings.TrimSpace(w.Term),
			Definition:      strings.TrimSpace(w.Definition),
			ImportanceScore: int(w.ImportanceScore),
			SenseKey:        strings.TrimSpace(w.SenseKey),
			ChapterExample:  strings.TrimSpace(w.ChapterExample),
			GlobalExample:   strings.TrimSpace(w.GlobalExample),
		})
	}
	if dropped > 0 {
		logger.Warn("dropped incomplete items", "kind", kind, "dropped", dropped, "kept", len(items))
	}
	return items, nil
}

func validItem(w wireItem) bool {
	if strings.TrimSpace(w.Term) == "" ||
		strings.TrimSpace(w.Definition) == "" ||
		strings.TrimSpace(w.SenseKey) == "" {
		return false
	}
	return w.ImportanceScore >= 0 && w.ImportanceScore <= 100
}

// stripFences removes a markdown code fence wrapper if the model added one
// despite the JSON MIME type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
