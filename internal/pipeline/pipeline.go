// Package pipeline runs the per-job worker pool and drives each job
// through Acquire → Extract → Separate → Re-mux → Complete.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zfogg/sidechain/backend/internal/acquire"
	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
	"github.com/zfogg/sidechain/backend/internal/logger"
	"github.com/zfogg/sidechain/backend/internal/mediatool"
	"github.com/zfogg/sidechain/backend/internal/middleware"
	"github.com/zfogg/sidechain/backend/internal/models"
	"github.com/zfogg/sidechain/backend/internal/registry"
	"github.com/zfogg/sidechain/backend/internal/remix"
	"github.com/zfogg/sidechain/backend/internal/separator"
	"github.com/zfogg/sidechain/backend/internal/store"
)

// stage progress allocations: (base, span)
type stageRange struct{ base, span int }

var (
	stageAcquireURL = stageRange{0, 20}
	stageExtract    = stageRange{20, 10}
	// stageSeparateURL and stageSeparateUpload both pick up at 30, where
	// stageExtract leaves off, so progress never regresses regardless of
	// which acquisition path a job took.
	stageSeparateURL    = stageRange{30, 40}
	stageSeparateUpload = stageRange{30, 40}
	stageRemux          = stageRange{70, 25}
)

func (s stageRange) at(innerPercent int) int {
	return s.base + int(float64(innerPercent)/100*float64(s.span))
}

// Submission describes one job admitted for processing.
type Submission struct {
	JobID      string
	Source     models.SourceType
	SourceURL  string
	UploadPath string // for SourceUpload: the already-materialized file
	ClientIP   string
}

// Pipeline owns the bounded worker pool that executes jobs end to end.
type Pipeline struct {
	Registry   *registry.Registry
	Store      *store.Store
	Toolchain  *mediatool.Toolchain
	Separator  separator.Separator
	URLAcquirer    acquire.Acquirer
	UploadAcquirer acquire.Acquirer

	TempDir string

	queue chan Submission
	done  chan struct{}
}

// New builds a Pipeline with a worker pool sized to maxConcurrentJobs.
func New(reg *registry.Registry, st *store.Store, tc *mediatool.Toolchain, sep separator.Separator,
	urlAcq, uploadAcq acquire.Acquirer, tempDir string, maxConcurrentJobs int) *Pipeline {
	p := &Pipeline{
		Registry:       reg,
		Store:          st,
		Toolchain:      tc,
		Separator:      sep,
		URLAcquirer:    urlAcq,
		UploadAcquirer: uploadAcq,
		TempDir:        tempDir,
		queue:          make(chan Submission, 64),
		done:           make(chan struct{}),
	}
	for i := 0; i < maxConcurrentJobs; i++ {
		go p.worker(i)
	}
	return p
}

// Stop signals all workers to exit once the queue drains.
func (p *Pipeline) Stop() { close(p.done) }

// Submit enqueues an admitted job for processing. The caller must have
// already called Registry.CanAccept()/IncrementActive() and created
// the job in PENDING status.
func (p *Pipeline) Submit(s Submission) {
	p.queue <- s
}

func classifySeparationError(err error) string {
	return string(apierrors.AsAPIError(err).Code)
}

func (p *Pipeline) fail(jobID string, message string) {
	p.Registry.Fail(jobID, message)
	logger.ErrorWithFields("job failed", fmt.Errorf("%s: %s", jobID, message))
}

func (p *Pipeline) worker(id int) {
	for {
		select {
		case sub := <-p.queue:
			p.run(sub)
		case <-p.done:
			return
		}
	}
}

func (p *Pipeline) run(sub Submission) {
	defer p.Registry.DecrementActive()

	start := time.Now()
	defer func() {
		middleware.RecordJobProcessing(string(sub.Source), time.Since(start))
	}()

	jobTemp := filepath.Join(p.TempDir, sub.JobID)
	defer os.RemoveAll(jobTemp)
	if err := os.MkdirAll(jobTemp, 0o755); err != nil {
		p.fail(sub.JobID, fmt.Sprintf("temp dir: %v", err))
		return
	}

	ctx := context.Background()

	sourcePath, meta, stageSpan, err := p.acquire(ctx, sub, jobTemp)
	if err != nil {
		p.fail(sub.JobID, err.Error())
		return
	}

	p.Registry.Update(sub.JobID, func(j *models.Job) {
		if meta.Title != "" {
			j.SourceTitle = meta.Title
		}
		if meta.Duration > 0 {
			j.OriginalDuration = meta.Duration
		}
	})

	separating := models.StatusSeparating
	p.Registry.UpdateProgress(sub.JobID, stageExtract.at(0), "extracting audio", &separating)

	extractedWAV := filepath.Join(jobTemp, "extracted.wav")
	if err := p.Toolchain.ExtractAudio(ctx, sourcePath, extractedWAV); err != nil {
		p.fail(sub.JobID, err.Error())
		return
	}
	p.Registry.UpdateProgress(sub.JobID, stageExtract.at(100), "extracting audio", nil)

	stemsDir := filepath.Join(jobTemp, "stems")
	onSeparateProgress := func(percent int, stage string) {
		p.Registry.UpdateProgress(sub.JobID, stageSpan.at(percent), stage, nil)
	}
	result, err := p.Separator.Separate(ctx, extractedWAV, stemsDir, onSeparateProgress)
	if err != nil {
		middleware.RecordSeparation("failed")
		middleware.RecordSeparationError(classifySeparationError(err))
		p.fail(sub.JobID, err.Error())
		return
	}
	middleware.RecordSeparation("completed")

	probe, _ := p.Toolchain.Probe(ctx, sourcePath)
	ext := filepath.Ext(sourcePath)

	if _, err := p.Store.EnsureJobDir(sub.JobID); err != nil {
		p.fail(sub.JobID, err.Error())
		return
	}
	if err := copyFile(sourcePath, p.Store.OriginalPath(sub.JobID, ext)); err != nil {
		p.fail(sub.JobID, err.Error())
		return
	}
	tracks := models.TrackPaths{}
	for name, src := range map[string]string{
		"drums": result.Drums, "bass": result.Bass, "other": result.Other, "vocals": result.Vocals,
	} {
		dst := p.Store.TrackPath(sub.JobID, name)
		if err := copyFile(src, dst); err != nil {
			p.fail(sub.JobID, err.Error())
			return
		}
		switch name {
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

	sampleRate := result.SampleRate
	if sampleRate == 0 {
		sampleRate = probe.SampleRate
	}
	p.Registry.Update(sub.JobID, func(j *models.Job) {
		j.Tracks = tracks
		j.SampleRate = sampleRate
		j.OriginalPath = p.Store.OriginalPath(sub.JobID, ext)
		j.OriginalExt = ext
	})

	merging := models.StatusMerging
	p.Registry.UpdateProgress(sub.JobID, stageRemux.at(0), "mixing default instrumental", &merging)

	outPath := p.Store.DefaultMixPath(sub.JobID)
	if err := p.remuxDefaultInstrumental(ctx, sub.JobID, tracks, p.Store.OriginalPath(sub.JobID, ext), outPath, probe.HasVideo); err != nil {
		p.fail(sub.JobID, err.Error())
		return
	}
	p.Registry.UpdateProgress(sub.JobID, stageRemux.at(100), "mixing default instrumental", nil)

	p.Registry.Complete(sub.JobID, outPath)
	logger.InfoWithFields("job completed", logger.WithJobID(sub.JobID))
}

func (p *Pipeline) acquire(ctx context.Context, sub Submission, jobTemp string) (string, acquire.Metadata, stageRange, error) {
	downloading := models.StatusDownloading
	p.Registry.UpdateProgress(sub.JobID, stageAcquireURL.at(0), "starting acquisition", &downloading)

	switch sub.Source {
	case models.SourceURL:
		onProgress := func(percent int, stage string) {
			p.Registry.UpdateProgress(sub.JobID, stageAcquireURL.at(percent), stage, nil)
		}
		path, meta, err := p.URLAcquirer.Acquire(ctx, sub.SourceURL, jobTemp, onProgress)
		if err != nil {
			return "", acquire.Metadata{}, stageRange{}, err
		}
		p.Registry.UpdateProgress(sub.JobID, stageAcquireURL.at(100), "acquisition complete", nil)
		return path, meta, stageSeparateURL, nil
	case models.SourceUpload:
		onProgress := func(percent int, stage string) {
			p.Registry.UpdateProgress(sub.JobID, percent/5, stage, nil) // upload path allocates 0-20 before extract
		}
		path, meta, err := p.UploadAcquirer.Acquire(ctx, sub.UploadPath, jobTemp, onProgress)
		if err != nil {
			return "", acquire.Metadata{}, stageRange{}, err
		}
		return path, meta, stageSeparateUpload, nil
	default:
		return "", acquire.Metadata{}, stageRange{}, apierrors.InvalidSourceType(string(sub.Source))
	}
}

// remuxDefaultInstrumental produces the pipeline's default output by
// summing drums+bass+other (vocals silent) through the same mixing
// code path the Remix Engine uses for on-demand mixes, keeping exactly
// one mixing implementation in the service.
func (p *Pipeline) remuxDefaultInstrumental(ctx context.Context, jobID string, tracks models.TrackPaths, originalPath, outPath string, hasVideo bool) error {
	mixWAV := outPath + ".tmp.wav"
	defer os.Remove(mixWAV)
	if err := remix.MixDefaultInstrumental(tracks, mixWAV); err != nil {
		return err
	}
	return p.Toolchain.Remux(ctx, originalPath, mixWAV, outPath, hasVideo, mediatool.CodecAAC)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
