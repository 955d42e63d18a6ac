package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	// WHAT: YAML values load; environment variables win over the file.
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
listen: ":9090"
db_path: "test.db"
ocr:
  api_key: "file-ocr-key"
model:
  api_key: "file-model-key"
auth:
  username: "boss"
  password_hash: "$2a$10$fakefakefakefakefakefake"
pipeline:
  tile_overlap_px: 150
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OCR_API_KEY", "env-ocr-key")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" || cfg.DBPath != "test.db" {
		t.Errorf("file values: %+v", cfg)
	}
	if cfg.OCR.APIKey != "env-ocr-key" {
		t.Errorf("env override lost: %q", cfg.OCR.APIKey)
	}
	if cfg.Auth.Username != "boss" || cfg.Pipeline.TileOverlapPx != 150 {
		t.Errorf("nested values: %+v", cfg)
	}
}

func TestLoadConfigValidates(t *testing.T) {
	// WHAT: Missing credentials fail at startup, not at first request.
	_, err := LoadConfig("")
	if err == nil {
		t.Fatal("expected validation error with no keys configured")
	}
}

func TestBasicAuthMiddleware(t *testing.T) {
	// WHAT: Correct credentials pass; wrong password, wrong user, and
	// missing header are all 401.
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	mw := basicAuth(AuthConfig{Username: "admin", PasswordHash: string(hash)})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name       string
		user, pass string
		noAuth     bool
		want       int
	}{
		{name: "valid", user: "admin", pass: "s3cret", want: http.StatusNoContent},
		{name: "wrong password", user: "admin", pass: "nope", want: http.StatusUnauthorized},
		{name: "wrong user", user: "root", pass: "s3cret", want: http.StatusUnauthorized},
		{name: "no header", noAuth: true, want: http.StatusUnauthorized},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/chapters/x", nil)
			if !c.noAuth {
				req.SetBasicAuth(c.user, c.pass)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != c.want {
				t.Errorf("status: got %d, want %d", rec.Code, c.want)
			}
		})
	}
}
