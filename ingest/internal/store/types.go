package store

// Chapter is one processed webtoon chapter.
type Chapter struct {
	ID            string `json:"id"`
	SeriesSlug    string `json:"seriesSlug"`
	ChapterNumber int    `json:"chapterNumber"`
	Title         string `json:"title,omitempty"`
	Link          string `json:"link,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
}

// ChapterRef identifies a chapter by its natural key, with optional metadata
// applied on first creation.
type ChapterRef struct {
	SeriesSlug    string
	ChapterNumber int
	Title         string
	Link          string
}

// Entry is one global word or grammar row joined with its chapter link.
type Entry struct {
	ID              string `json:"id"`
	Term            string `json:"term"`
	SenseKey        string `json:"senseKey"`
	Definition      string `json:"definition"`
	ImportanceScore int    `json:"importanceScore"`
	ChapterExample  string `json:"chapterExample,omitempty"`
	GlobalExample   string `json:"globalExample,omitempty"`
}

// BatchResult reports one StoreBatch sub-result (vocabulary or grammar).
// NewInserted counts items newly linked to the chapter by this call;
// Total is the chapter's link count after the call. NewInserted ≤ Total.
type BatchResult struct {
	NewInserted int `json:"newInserted"`
	Total       int `json:"total"`
}

// RunRecord is one processing_log row.
type RunRecord struct {
	JobID            string
	SeriesSlug       string
	ChapterNumber    int
	Status           string
	ErrorMessage     string
	DialogueLines    int
	WordsExtracted   int
	GrammarExtracted int
	DurationMS       int64
}
