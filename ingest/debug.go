package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ArtifactRecorder snapshots pipeline intermediates to a filesystem sink for
// offline inspection. It is write-only: nothing in the pipeline ever reads
// an artifact back. A nil *ArtifactRecorder is valid and records nothing,
// so callers thread it through unconditionally.
type ArtifactRecorder struct {
	root   string
	logger *slog.Logger
}

// NewArtifactRecorder creates a recorder rooted at dir. Each job gets its
// own subdirectory.
func NewArtifactRecorder(dir string, logger *slog.Logger) *ArtifactRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactRecorder{root: dir, logger: logger}
}

// Job namespaces subsequent writes under the given job ID.
func (r *ArtifactRecorder) Job(jobID string) *JobArtifacts {
	if r == nil {
		return nil
	}
	return &JobArtifacts{dir: filepath.Join(r.root, jobID), logger: r.logger.With("job_id", jobID)}
}

// JobArtifacts writes one job's artifacts. Failures are logged, never
// propagated; diagnostics must not influence pipeline control flow.
type JobArtifacts struct {
	dir    string
	logger *slog.Logger
}

// Save writes one artifact atomically (tmp then rename) so a concurrent
// reader never sees a partial file.
func (j *JobArtifacts) Save(name string, data []byte) {
	if j == nil {
		return
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		j.logger.Warn("artifact dir", "error", err)
		return
	}
	target := filepath.Join(j.dir, name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		j.logger.Warn("artifact write", "name", name, "error", err)
		return
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		j.logger.Warn("artifact rename", "name", name, "error", err)
	}
}

// SaveJSON marshals v (indented) and saves it under name.
func (j *JobArtifacts) SaveJSON(name string, v any) {
	if j == nil {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		j.logger.Warn("artifact marshal", "name", name, "error", err)
		return
	}
	j.Save(name, data)
}

func tileName(i int, suffix string) string {
	return fmt.Sprintf("tile_%03d%s", i, suffix)
}
