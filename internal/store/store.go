// Package store implements the on-disk artifact layout for jobs,
// stems, re-mux outputs, remix outputs, and export bundles.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
)

// Store roots every artifact path under a results directory and an
// uploads directory. No operation escapes either root: callers supply
// job IDs and artifact names, never absolute paths.
type Store struct {
	resultsDir string
	uploadsDir string
}

// New creates directories (if missing) and returns a Store rooted at them.
func New(resultsDir, uploadsDir string) (*Store, error) {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(resultsDir, "exports"), 0o755); err != nil {
		return nil, fmt.Errorf("create exports dir: %w", err)
	}
	return &Store{resultsDir: resultsDir, uploadsDir: uploadsDir}, nil
}

// ResultsDir returns the store's results root.
func (s *Store) ResultsDir() string { return s.resultsDir }

// UploadsDir returns the store's uploads root.
func (s *Store) UploadsDir() string { return s.uploadsDir }

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename replaces filesystem-unsafe characters with `_`,
// trims whitespace, and truncates to 100 code points. Empty results
// fall back to "untitled".
func SanitizeFilename(name string) string {
	safe := unsafeFilenameChars.ReplaceAllString(name, "_")
	safe = strings.TrimSpace(safe)
	runes := []rune(safe)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	safe = string(runes)
	if safe == "" {
		return "untitled"
	}
	return safe
}

// JobDir returns the directory holding all artifacts for job id. The
// directory is created lazily by the caller via EnsureJobDir.
func (s *Store) JobDir(jobID string) string {
	return filepath.Join(s.resultsDir, jobID)
}

// EnsureJobDir creates the job's directory if it does not exist.
func (s *Store) EnsureJobDir(jobID string) (string, error) {
	dir := s.JobDir(jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create job dir: %w", err)
	}
	return dir, nil
}

// ResultPath derives the path for a named artifact within a job's
// directory. name must be a bare filename, never a path.
func (s *Store) ResultPath(jobID, name string) string {
	return filepath.Join(s.JobDir(jobID), filepath.Base(name))
}

// UploadPath derives the path an uploaded file for jobID is stored at.
func (s *Store) UploadPath(jobID, ext string) string {
	return filepath.Join(s.uploadsDir, jobID, "input"+ext)
}

// EnsureUploadDir creates the per-job uploads directory.
func (s *Store) EnsureUploadDir(jobID string) (string, error) {
	dir := filepath.Join(s.uploadsDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	return dir, nil
}

// TrackPath returns the path for one of the four stem files.
func (s *Store) TrackPath(jobID, track string) string {
	return s.ResultPath(jobID, track+".wav")
}

// MixPath returns the path a keyed remix artifact is stored under.
func (s *Store) MixPath(jobID, key string, ext string) string {
	return s.ResultPath(jobID, fmt.Sprintf("mix_%s%s", key, ext))
}

// OriginalPath returns the path the source media (with vocals) is
// copied to under the job directory.
func (s *Store) OriginalPath(jobID, ext string) string {
	return s.ResultPath(jobID, "original"+ext)
}

// DefaultMixPath returns the path the pipeline's default instrumental
// output is written to.
func (s *Store) DefaultMixPath(jobID string) string {
	return s.ResultPath(jobID, "output.mp4")
}

// ExportDir returns the directory an export bundle with exportID lives
// under, creating it if necessary.
func (s *Store) ExportDir(exportID string) (string, error) {
	dir := filepath.Join(s.resultsDir, "exports", exportID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	return dir, nil
}

// ExportPath returns the path a named export zip is stored at, under
// exports/<exportID>/.
func (s *Store) ExportPath(exportID, name string) string {
	return filepath.Join(s.resultsDir, "exports", exportID, filepath.Base(name))
}

// FindExportFile returns the single zip file within an export
// directory, or an error if the directory doesn't exist or has none.
func (s *Store) FindExportFile(exportID string) (string, error) {
	dir := filepath.Join(s.resultsDir, "exports", exportID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", apierrors.ExportNotFound(exportID)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".zip") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", apierrors.ExportNotFound(exportID)
}

// Exists reports whether path exists and is a regular file.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Size returns the size in bytes of path, or an error if it doesn't exist.
func (s *Store) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// DeleteJob recursively removes a job's results directory and its
// uploads directory. Safe to call on a job with no artifacts yet.
func (s *Store) DeleteJob(jobID string) error {
	if err := os.RemoveAll(s.JobDir(jobID)); err != nil {
		return fmt.Errorf("delete job dir: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(s.uploadsDir, jobID)); err != nil {
		return fmt.Errorf("delete upload dir: %w", err)
	}
	return nil
}

// DeleteExport recursively removes an export's directory.
func (s *Store) DeleteExport(exportID string) error {
	dir := filepath.Join(s.resultsDir, "exports", exportID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete export dir: %w", err)
	}
	return nil
}
