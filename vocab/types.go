package vocab

// Item is one extracted vocabulary or grammar entry.
type Item struct {
	Term            string `json:"term"`
	Definition      string `json:"definition"`
	ImportanceScore int    `json:"importanceScore"`
	SenseKey        string `json:"senseKey"`
	ChapterExample  string `json:"chapterExample"`
	GlobalExample   string `json:"globalExample"`
}

// Result is the validated two-array output of one extraction call.
type Result struct {
	Vocabulary []Item `json:"vocabulary"`
	Grammar    []Item `json:"grammar"`
}
