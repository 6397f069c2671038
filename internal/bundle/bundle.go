// Package bundle packs completed jobs into zip archives and unpacks
// them back into Registry jobs, detecting title collisions and
// exposing an overwrite/rename conflict-resolution protocol.
package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
	"github.com/zfogg/sidechain/backend/internal/logger"
	"github.com/zfogg/sidechain/backend/internal/models"
	"github.com/zfogg/sidechain/backend/internal/registry"
	"github.com/zfogg/sidechain/backend/internal/storage"
	"github.com/zfogg/sidechain/backend/internal/store"
)

const bundleVersion = "1.0"

// Exporter packs one or many completed jobs into a zip bundle. Mirror
// is optional: when set, every export is additionally copied to a
// remote bucket after the local zip lands; a mirror failure is logged
// but never fails the export, since the local path is authoritative.
type Exporter struct {
	Store  *store.Store
	Mirror storage.BundleMirror
}

// NewExporter returns an Exporter rooted at st, with no remote mirror.
func NewExporter(st *store.Store) *Exporter { return &Exporter{Store: st} }

func (e *Exporter) mirror(exportID, zipPath string) {
	if e.Mirror == nil {
		return
	}
	if _, err := e.Mirror.MirrorBundle(context.Background(), exportID, zipPath); err != nil {
		logger.Log.Warn("failed to mirror export bundle to remote storage",
			zap.String("export_id", exportID), zap.Error(err))
	}
}

func metadataFor(job *models.Job) models.BundleMetadata {
	sampleRate := job.SampleRate
	if sampleRate == 0 {
		sampleRate = 44100
	}
	return models.BundleMetadata{
		Version:          bundleVersion,
		SourceTitle:      job.SourceTitle,
		SourceType:       job.Source,
		SourceURL:        job.SourceURL,
		OriginalDuration: job.OriginalDuration,
		CreatedAt:        job.CreatedAt.UTC().Format(time.RFC3339),
		SampleRate:       sampleRate,
	}
}

func writeSingleJobEntries(zw *zip.Writer, job *models.Job) error {
	tracks := map[string]string{
		"drums.wav":  job.Tracks.Drums,
		"bass.wav":   job.Tracks.Bass,
		"other.wav":  job.Tracks.Other,
		"vocals.wav": job.Tracks.Vocals,
	}
	for name, path := range tracks {
		if path == "" {
			continue
		}
		if err := writeFileEntry(zw, name, path); err != nil {
			return err
		}
	}
	if job.OriginalPath != "" {
		if _, err := os.Stat(job.OriginalPath); err == nil {
			if err := writeFileEntry(zw, "video.mp4", job.OriginalPath); err != nil {
				return err
			}
		}
	}

	metaBytes, err := json.MarshalIndent(metadataFor(job), "", "  ")
	if err != nil {
		return err
	}
	w, err := zw.Create("metadata.json")
	if err != nil {
		return err
	}
	_, err = w.Write(metaBytes)
	return err
}

func writeFileEntry(zw *zip.Writer, name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ExportSingle packs one job into exports/<export-id>/<safe-title>.zip
// and returns the export ID and path.
func (e *Exporter) ExportSingle(job *models.Job) (exportID, path string, err error) {
	if !job.Tracks.HasAll() {
		return "", "", apierrors.NoTracks()
	}

	exportID = uuid.New().String()
	dir, err := e.Store.ExportDir(exportID)
	if err != nil {
		return "", "", err
	}

	safeTitle := store.SanitizeFilename(orDefault(job.SourceTitle, "untitled"))
	zipPath := filepath.Join(dir, safeTitle+".zip")

	f, err := os.Create(zipPath)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	if err := writeSingleJobEntries(zw, job); err != nil {
		zw.Close()
		os.RemoveAll(dir)
		return "", "", apierrors.ExportFailed(err.Error())
	}
	if err := zw.Close(); err != nil {
		os.RemoveAll(dir)
		return "", "", apierrors.ExportFailed(err.Error())
	}

	e.mirror(exportID, zipPath)
	return exportID, zipPath, nil
}

// ExportMulti packs many jobs into one zip, one nested zip entry per
// job, named export_<yyyymmdd>.zip.
func (e *Exporter) ExportMulti(jobs []*models.Job) (exportID, path string, err error) {
	if len(jobs) == 0 {
		return "", "", apierrors.ExportFailed("no jobs to export")
	}

	exportID = uuid.New().String()
	dir, err := e.Store.ExportDir(exportID)
	if err != nil {
		return "", "", err
	}

	zipPath := filepath.Join(dir, fmt.Sprintf("export_%s.zip", time.Now().UTC().Format("20060102")))
	f, err := os.Create(zipPath)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	outer := zip.NewWriter(f)
	for _, job := range jobs {
		if !job.Tracks.HasAll() {
			continue
		}
		var inner bytes.Buffer
		innerZW := zip.NewWriter(&inner)
		if err := writeSingleJobEntries(innerZW, job); err != nil {
			outer.Close()
			os.RemoveAll(dir)
			return "", "", apierrors.ExportFailed(err.Error())
		}
		if err := innerZW.Close(); err != nil {
			outer.Close()
			os.RemoveAll(dir)
			return "", "", apierrors.ExportFailed(err.Error())
		}

		safeTitle := store.SanitizeFilename(orDefault(job.SourceTitle, "song_"+job.ID[:8]))
		w, err := outer.Create(safeTitle + ".zip")
		if err != nil {
			outer.Close()
			os.RemoveAll(dir)
			return "", "", apierrors.ExportFailed(err.Error())
		}
		if _, err := w.Write(inner.Bytes()); err != nil {
			outer.Close()
			os.RemoveAll(dir)
			return "", "", apierrors.ExportFailed(err.Error())
		}
	}
	if err := outer.Close(); err != nil {
		os.RemoveAll(dir)
		return "", "", apierrors.ExportFailed(err.Error())
	}

	e.mirror(exportID, zipPath)
	return exportID, zipPath, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ImportResult summarizes one ImportZip call.
type ImportResult struct {
	Imported  []*models.Job
	Conflicts []Conflict
	Errors    []string
}

// Conflict describes a title collision awaiting resolution.
type Conflict struct {
	ConflictID    string
	SourceTitle   string
	ExistingJobID string
}

type pendingImport struct {
	filesData     map[string][]byte
	metadata      models.BundleMetadata
	existingJobID string
}

// Importer unpacks bundle zips into Registry jobs, staging title
// collisions behind a conflict ID until resolved.
type Importer struct {
	Store    *store.Store
	Registry *registry.Registry

	mu      sync.Mutex
	pending map[string]pendingImport
}

// NewImporter returns an Importer writing job directories under st and
// registering completed jobs in reg.
func NewImporter(st *store.Store, reg *registry.Registry) *Importer {
	return &Importer{Store: st, Registry: reg, pending: make(map[string]pendingImport)}
}

// ImportZip reads zipPath, detecting single-job vs. multi-job (nested
// zip) form, importing each song directly unless its title collides
// with an existing job, in which case it is staged as a Conflict.
func (im *Importer) ImportZip(zipPath string) ImportResult {
	result := ImportResult{}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("invalid zip file: %v", err))
		return result
	}
	defer zr.Close()

	hasMetadata := false
	var innerZips []*zip.File
	for _, f := range zr.File {
		if f.Name == "metadata.json" {
			hasMetadata = true
		}
		if filepath.Ext(f.Name) == ".zip" {
			innerZips = append(innerZips, f)
		}
	}

	if len(innerZips) > 0 {
		for _, inner := range innerZips {
			rc, err := inner.Open()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("open %s: %v", inner.Name, err))
				continue
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("read %s: %v", inner.Name, err))
				continue
			}
			innerResult := im.importSingleFromBytes(data)
			result.Imported = append(result.Imported, innerResult.Imported...)
			result.Conflicts = append(result.Conflicts, innerResult.Conflicts...)
			result.Errors = append(result.Errors, innerResult.Errors...)
		}
		return result
	}

	if !hasMetadata {
		result.Errors = append(result.Errors, "invalid bundle: missing metadata.json")
		return result
	}

	return im.importSingleFromZipReader(&zr.Reader)
}

func (im *Importer) importSingleFromBytes(data []byte) ImportResult {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("invalid nested zip: %v", err)}}
	}
	return im.importSingleFromZipReader(zr)
}

func (im *Importer) importSingleFromZipReader(zr *zip.Reader) ImportResult {
	result := ImportResult{}

	filesData := make(map[string][]byte)
	var metaBytes []byte
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("open %s: %v", f.Name, err))
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("read %s: %v", f.Name, err))
			continue
		}
		if f.Name == "metadata.json" {
			metaBytes = data
		}
		filesData[f.Name] = data
	}

	if metaBytes == nil {
		result.Errors = append(result.Errors, "invalid bundle: missing metadata.json")
		return result
	}

	var meta models.BundleMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		result.Errors = append(result.Errors, "metadata.json is malformed")
		return result
	}
	if meta.SourceTitle == "" {
		meta.SourceTitle = "Untitled"
	}

	if existing := im.Registry.FindByTitle(meta.SourceTitle); existing != nil {
		conflictID := uuid.New().String()
		im.mu.Lock()
		im.pending[conflictID] = pendingImport{filesData: filesData, metadata: meta, existingJobID: existing.ID}
		im.mu.Unlock()
		result.Conflicts = append(result.Conflicts, Conflict{
			ConflictID:    conflictID,
			SourceTitle:   meta.SourceTitle,
			ExistingJobID: existing.ID,
		})
		return result
	}

	job, err := im.createJobFromFiles(filesData, meta, "")
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Imported = append(result.Imported, job)
	return result
}

func (im *Importer) createJobFromFiles(filesData map[string][]byte, meta models.BundleMetadata, newTitle string) (*models.Job, error) {
	jobID := uuid.New().String()
	if _, err := im.Store.EnsureJobDir(jobID); err != nil {
		return nil, err
	}

	var tracks models.TrackPaths
	for _, track := range models.TrackNames() {
		filename := track + ".wav"
		data, ok := filesData[filename]
		if !ok {
			continue
		}
		dst := im.Store.TrackPath(jobID, track)
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			im.Store.DeleteJob(jobID)
			return nil, err
		}
		switch track {
		case "drums":
			tracks.Drums = dst
		case "bass":
			tracks.Bass = dst
		case "other":
			tracks.Other = dst
		case "vocals":
			tracks.Vocals = dst
		}
	}

	var originalPath string
	if data, ok := filesData["video.mp4"]; ok {
		originalPath = im.Store.OriginalPath(jobID, ".mp4")
		if err := os.WriteFile(originalPath, data, 0o644); err != nil {
			im.Store.DeleteJob(jobID)
			return nil, err
		}
	}

	title := meta.SourceTitle
	if newTitle != "" {
		title = newTitle
	}

	now := time.Now()
	sourceType := meta.SourceType
	if sourceType == "" {
		sourceType = models.SourceUpload
	}

	job := &models.Job{
		ID:               jobID,
		Source:           sourceType,
		SourceURL:        meta.SourceURL,
		SourceTitle:      title,
		Status:           models.StatusCompleted,
		Progress:         100,
		CurrentStage:     "imported",
		CreatedAt:        now,
		UpdatedAt:        now,
		CompletedAt:      &now,
		ClientIP:         "imported",
		OriginalDuration: meta.OriginalDuration,
		SampleRate:       meta.SampleRate,
		Tracks:           tracks,
		OriginalPath:     originalPath,
		OriginalExt:      ".mp4",
		Imported:         true,
	}

	im.Registry.AddImported(job)
	return job, nil
}

// ResolveConflict applies action ("overwrite" or "rename") to a
// pending conflict. "overwrite" deletes the existing job and imports
// under the original title; "rename" requires newTitle to not itself
// collide.
func (im *Importer) ResolveConflict(conflictID, action, newTitle string) (*models.Job, error) {
	im.mu.Lock()
	pending, ok := im.pending[conflictID]
	im.mu.Unlock()
	if !ok {
		return nil, apierrors.BadBundle("conflict not found")
	}

	switch action {
	case "overwrite":
		im.Store.DeleteJob(pending.existingJobID)
		im.Registry.Delete(pending.existingJobID)
		job, err := im.createJobFromFiles(pending.filesData, pending.metadata, "")
		if err != nil {
			return nil, err
		}
		im.mu.Lock()
		delete(im.pending, conflictID)
		im.mu.Unlock()
		return job, nil

	case "rename":
		if newTitle == "" {
			return nil, apierrors.MissingTitle()
		}
		if existing := im.Registry.FindByTitle(newTitle); existing != nil {
			return nil, apierrors.BadBundle(fmt.Sprintf("title %q already exists", newTitle))
		}
		job, err := im.createJobFromFiles(pending.filesData, pending.metadata, newTitle)
		if err != nil {
			return nil, err
		}
		im.mu.Lock()
		delete(im.pending, conflictID)
		im.mu.Unlock()
		return job, nil

	default:
		return nil, apierrors.InvalidAction(action)
	}
}

// CancelConflict discards a pending conflict without importing it.
func (im *Importer) CancelConflict(conflictID string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	delete(im.pending, conflictID)
}
