package ocr

import (
	"encoding/json"
	"strings"
)

// exit code 1 is the provider's only success value; every other value folds
// authentication errors, quota errors, and parse failures into one signal.
const exitCodeSuccess = 1

// Response mirrors the provider's wire shape for one recognition call.
// An application-level failure arrives inside an HTTP 200, so the exit code
// is data, not an error; inspect Outcome().
type Response struct {
	OCRExitCode           int            `json:"OCRExitCode"`
	IsErroredOnProcessing bool           `json:"IsErroredOnProcessing"`
	ErrorMessage          ErrorMessage   `json:"ErrorMessage"`
	ErrorDetails          string         `json:"ErrorDetails"`
	ParsedResults         []ParsedResult `json:"ParsedResults"`
}

// ParsedResult is one parsed page (always exactly one for image input).
type ParsedResult struct {
	TextOverlay       TextOverlay `json:"TextOverlay"`
	ParsedText        string      `json:"ParsedText"`
	FileParseExitCode int         `json:"FileParseExitCode"`
	ErrorMessage      string      `json:"ErrorMessage"`
}

// TextOverlay carries per-word geometry when overlay output is requested.
type TextOverlay struct {
	Lines      []Line `json:"Lines"`
	HasOverlay bool   `json:"HasOverlay"`
}

// Line is one recognized text line.
type Line struct {
	Words     []Word  `json:"Words"`
	MaxHeight float64 `json:"MaxHeight"`
	MinTop    float64 `json:"MinTop"`
}

// Word is one recognized token with its bounding box in the coordinate
// space of the submitted buffer.
type Word struct {
	WordText string  `json:"WordText"`
	Left     float64 `json:"Left"`
	Top      float64 `json:"Top"`
	Height   float64 `json:"Height"`
	Width    float64 `json:"Width"`
}

// ErrorMessage absorbs the provider's inconsistent typing: sometimes a
// string, sometimes an array of strings.
type ErrorMessage []string

func (e *ErrorMessage) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*e = ErrorMessage{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*e = ErrorMessage(many)
	return nil
}

func (e ErrorMessage) String() string {
	return strings.Join([]string(e), "; ")
}

// Outcome is the tagged result of a recognition call: either usable parsed
// results or the provider's stated reason for refusing.
type Outcome struct {
	OK     bool
	Reason string
}

// Outcome classifies the response by exit code.
func (r *Response) Outcome() Outcome {
	if r.OCRExitCode == exitCodeSuccess {
		return Outcome{OK: true}
	}
	reason := r.ErrorMessage.String()
	if reason == "" {
		reason = r.ErrorDetails
	}
	if reason == "" {
		reason = "unspecified provider failure"
	}
	return Outcome{OK: false, Reason: reason}
}

// Box is an axis-aligned bounding box in pixels.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Fragment is one recognized word with its box, in the coordinate space of
// whatever buffer was submitted (tile-local until reconciled).
type Fragment struct {
	Text string `json:"text"`
	Box  Box    `json:"bbox"`
}
