package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hangana/toonvocab/ingest/internal/store"
)

// maxUploadBytes bounds the multipart body; the archive limits re-check the
// decoded payload.
const maxUploadBytes = 120 << 20

// API exposes the submission and read endpoints over chi.
type API struct {
	svc      *Service
	store    *store.Store
	recorder *ArtifactRecorder // nil disables artifact capture
}

// NewAPI creates the HTTP layer over a Service. rec may be nil.
func NewAPI(svc *Service, rec *ArtifactRecorder) *API {
	return &API{svc: svc, store: svc.store, recorder: rec}
}

// Mount registers all routes on r.
func (a *API) Mount(r chi.Router) {
	r.Post("/api/chapters", a.handleSubmit)
	r.Get("/api/chapters/{series}", a.handleListChapters)
	r.Get("/api/chapters/{series}/{number}/words", a.handleChapterWords)
	r.Get("/api/chapters/{series}/{number}/grammar", a.handleChapterGrammar)
}

// handleSubmit accepts a multipart chapter upload (file + series_slug +
// chapter_number, optional chapter_title / chapter_link) and runs the full
// pipeline synchronously.
func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("multipart form: %w", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file field: %w", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	number, err := strconv.Atoi(r.FormValue("chapter_number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("chapter_number must be an integer"))
		return
	}

	out, err := a.svc.Process(r.Context(), Submission{
		SeriesSlug:    r.FormValue("series_slug"),
		ChapterNumber: number,
		ChapterTitle:  r.FormValue("chapter_title"),
		ChapterLink:   r.FormValue("chapter_link"),
		Data:          data,
	}, a.recorder)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleListChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := a.store.ListChapters(r.Context(), chi.URLParam(r, "series"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if chapters == nil {
		chapters = []*store.Chapter{}
	}
	writeJSON(w, http.StatusOK, chapters)
}

func (a *API) handleChapterWords(w http.ResponseWriter, r *http.Request) {
	a.listEntries(w, r, a.store.ChapterWords)
}

func (a *API) handleChapterGrammar(w http.ResponseWriter, r *http.Request) {
	a.listEntries(w, r, a.store.ChapterGrammar)
}

func (a *API) listEntries(w http.ResponseWriter, r *http.Request,
	query func(ctx context.Context, series string, number int) ([]*store.Entry, error)) {
	series := chi.URLParam(r, "series")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("chapter number must be an integer"))
		return
	}

	if _, err := a.store.GetChapter(r.Context(), series, number); err != nil {
		if errors.Is(err, store.ErrChapterNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	entries, err := query(r.Context(), series, number)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []*store.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// statusFor maps pipeline error kinds onto HTTP statuses: caller mistakes
// are 400, "nothing found" is 422, upstream failures are 502.
func statusFor(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindEmpty:
		return http.StatusUnprocessableEntity
	case KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
