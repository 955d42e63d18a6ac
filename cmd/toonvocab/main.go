// Command toonvocab serves the chapter ingestion pipeline: zip/PDF/image
// uploads in, OCR'd and extracted Korean vocabulary out, persisted per
// chapter in SQLite.
package main

import (
	"context"
	"crypto/subtle"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/hangana/toonvocab/dbopen"
	"github.com/hangana/toonvocab/imaging"
	"github.com/hangana/toonvocab/ingest"
	"github.com/hangana/toonvocab/ocr"
	"github.com/hangana/toonvocab/vocab"
)

func main() {
	configPath := flag.String("config", env("CONFIG", ""), "path to YAML config")
	flag.Parse()

	// Logging.
	var lvl slog.Level
	switch env("LOG_LEVEL", "info") {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll(), dbopen.WithSchema(ingest.Schema))
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ocrClient := ocr.New(ocr.Config{
		Endpoint: cfg.OCR.Endpoint,
		APIKey:   cfg.OCR.APIKey,
		Language: cfg.OCR.Language,
		Engine:   cfg.OCR.Engine,
		Logger:   logger,
	})
	extractor := vocab.NewExtractor(vocab.NewClient(vocab.ClientConfig{
		BaseURL: cfg.Model.BaseURL,
		Model:   cfg.Model.Model,
		APIKey:  cfg.Model.APIKey,
		Logger:  logger,
	}), logger)

	svc := ingest.NewService(ocrClient, extractor, db, ingest.Config{
		Tiling: imaging.TileOptions{
			MaxBytes:    cfg.Pipeline.TileMaxBytes,
			OverlapPx:   cfg.Pipeline.TileOverlapPx,
			JPEGQuality: cfg.Pipeline.JPEGQuality,
		},
		DedupEpsilonPx: cfg.Pipeline.DedupEpsilonPx,
		GroupGapPx:     cfg.Pipeline.GroupGapPx,
		TileDelay:      time.Duration(cfg.Pipeline.TileDelayMS) * time.Millisecond,
		Logger:         logger,
	})

	var recorder *ingest.ArtifactRecorder
	if cfg.ArtifactsDir != "" {
		recorder = ingest.NewArtifactRecorder(cfg.ArtifactsDir, logger)
		slog.Info("debug artifacts enabled", "dir", cfg.ArtifactsDir)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Ping(); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(basicAuth(cfg.Auth))
		ingest.NewAPI(svc, recorder).Mount(r)
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Pipeline runs are long: many serial OCR calls plus one model call.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "listen", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// basicAuth guards the API with HTTP Basic auth against a bcrypt hash.
func basicAuth(auth AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(auth.Username)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(auth.PasswordHash), []byte(pass)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="toonvocab"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
