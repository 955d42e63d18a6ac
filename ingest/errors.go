package ingest

import (
	"errors"

	"github.com/hangana/toonvocab/archive"
	"github.com/hangana/toonvocab/imaging"
	"github.com/hangana/toonvocab/ocr"
	"github.com/hangana/toonvocab/vocab"
)

var (
	// ErrBadSubmission is returned when the submission metadata is unusable.
	ErrBadSubmission = errors.New("ingest: bad submission")
	// ErrUnsupportedInput is returned when the uploaded buffer is neither a
	// zip archive, a PDF, nor a recognized image.
	ErrUnsupportedInput = errors.New("ingest: unsupported input format")
	// ErrOCRRejected is returned when the OCR provider reports an
	// application-level failure inside a successful HTTP response.
	ErrOCRRejected = errors.New("ingest: ocr provider rejected request")
	// ErrNoTextDetected is returned when OCR succeeds but finds no text.
	ErrNoTextDetected = errors.New("ingest: no text detected")
)

// Kind partitions pipeline failures for callers that map them to HTTP
// statuses or user-facing messages.
type Kind int

const (
	// KindInternal is the fallback for unclassified failures.
	KindInternal Kind = iota
	// KindValidation covers caller mistakes: bad limits, bad formats,
	// bad metadata.
	KindValidation
	// KindProvider covers upstream OCR or model failures.
	KindProvider
	// KindEmpty covers legitimate "nothing found" outcomes: no text, no
	// dialogue, no items. Not a bug.
	KindEmpty
)

var validationErrs = []error{
	ErrBadSubmission,
	ErrUnsupportedInput,
	archive.ErrArchiveTooLarge,
	archive.ErrTooManyEntries,
	archive.ErrEntryTooLarge,
	archive.ErrNoValidImages,
	archive.ErrNotZip,
	archive.ErrInvalidPDF,
	imaging.ErrInvalidImage,
	imaging.ErrEmptyInput,
	imaging.ErrInvalidDimensions,
	ocr.ErrUnsupportedFormat,
}

var providerErrs = []error{
	ErrOCRRejected,
	ocr.ErrBadStatus,
	vocab.ErrNoCandidates,
	vocab.ErrInvalidModelResponse,
}

var emptyErrs = []error{
	ErrNoTextDetected,
	vocab.ErrEmptyDialogue,
}

// KindOf classifies err by walking its wrap chain.
func KindOf(err error) Kind {
	for _, e := range validationErrs {
		if errors.Is(err, e) {
			return KindValidation
		}
	}
	for _, e := range emptyErrs {
		if errors.Is(err, e) {
			return KindEmpty
		}
	}
	for _, e := range providerErrs {
		if errors.Is(err, e) {
			return KindProvider
		}
	}
	return KindInternal
}
