package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zfogg/sidechain/backend/internal/acquire"
	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
	"github.com/zfogg/sidechain/backend/internal/models"
	"github.com/zfogg/sidechain/backend/internal/pipeline"
	"github.com/zfogg/sidechain/backend/internal/store"
	"github.com/zfogg/sidechain/backend/internal/streaming"
)

// createURLJobRequest is the body of POST /jobs.
type createURLJobRequest struct {
	SourceType string `json:"source_type" binding:"required"`
	SourceURL  string `json:"source_url" binding:"required"`
}

// jobResponse is the wire representation of a models.Job, with a
// computed result block once the job has a downloadable artifact.
type jobResponse struct {
	*models.Job
	Result *jobResult `json:"result,omitempty"`
}

type jobResult struct {
	DownloadURL string `json:"download_url"`
	StreamURL   string `json:"stream_url"`
	Container   string `json:"container"`
}

func toJobResponse(job *models.Job) jobResponse {
	resp := jobResponse{Job: job}
	if job.Status == models.StatusCompleted && job.DefaultMixPath != "" {
		resp.Result = &jobResult{
			DownloadURL: fmt.Sprintf("/jobs/%s/download", job.ID),
			StreamURL:   fmt.Sprintf("/jobs/%s/stream", job.ID),
			Container:   string(models.ContainerVideo),
		}
	}
	return resp
}

// CreateURLJob handles POST /jobs: submits a URL for acquisition,
// separation, and default-instrumental re-mux.
func (h *Handlers) CreateURLJob(c *gin.Context) {
	var req createURLJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, apierrors.MissingURL())
		return
	}
	if req.SourceURL == "" {
		writeAPIError(c, apierrors.MissingURL())
		return
	}
	if req.SourceType != "" && req.SourceType != string(models.SourceURL) {
		writeAPIError(c, apierrors.InvalidSourceType(req.SourceType))
		return
	}

	if !acquire.IsAllowedURL(req.SourceURL) {
		writeAPIError(c, apierrors.InvalidURL(req.SourceURL))
		return
	}

	k := h.Kernel()

	reg := k.Registry()
	if !reg.CanAccept() {
		writeAPIError(c, apierrors.ServiceBusy())
		return
	}

	job := &models.Job{
		ID:         newJobID(),
		Source:     models.SourceURL,
		SourceURL:  req.SourceURL,
		Status:     models.StatusPending,
		ClientIP:   c.ClientIP(),
	}
	stampTimestamps(job)
	reg.Create(job)
	reg.IncrementActive()

	k.Pipeline().Submit(pipeline.Submission{
		JobID:    job.ID,
		Source:   models.SourceURL,
		SourceURL: req.SourceURL,
		ClientIP: job.ClientIP,
	})

	c.JSON(http.StatusCreated, toJobResponse(job))
}

// CreateUploadJob handles POST /jobs/upload: submits a directly
// uploaded media file.
func (h *Handlers) CreateUploadJob(c *gin.Context) {
	k := h.Kernel()
	cfg := k.Config()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeAPIError(c, apierrors.MissingFile())
		return
	}
	if !isAllowedUploadFile(fileHeader.Filename) {
		writeAPIError(c, apierrors.InvalidFileType(filepath.Ext(fileHeader.Filename)))
		return
	}
	maxBytes := int64(cfg.MaxFileSizeMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		writeAPIError(c, apierrors.FileTooLarge(cfg.MaxFileSizeMB))
		return
	}

	reg := k.Registry()
	if !reg.CanAccept() {
		writeAPIError(c, apierrors.ServiceBusy())
		return
	}

	jobID := newJobID()
	uploadDir, err := k.Store().EnsureUploadDir(jobID)
	if err != nil {
		writeAPIError(c, apierrors.Internal(err.Error()))
		return
	}
	savedPath, err := saveMultipartFile(uploadDir, fileHeader)
	if err != nil {
		writeAPIError(c, apierrors.Internal(err.Error()))
		return
	}

	job := &models.Job{
		ID:       jobID,
		Source:   models.SourceUpload,
		SourceURL: savedPath,
		Status:   models.StatusPending,
		ClientIP: c.ClientIP(),
	}
	stampTimestamps(job)
	reg.Create(job)
	reg.IncrementActive()

	k.Pipeline().Submit(pipeline.Submission{
		JobID:      job.ID,
		Source:     models.SourceUpload,
		UploadPath: savedPath,
		ClientIP:   job.ClientIP,
	})

	c.JSON(http.StatusCreated, toJobResponse(job))
}

// ListJobs handles GET /jobs: returns completed jobs and the jobs
// still in flight, newest first.
func (h *Handlers) ListJobs(c *gin.Context) {
	completed, active := h.Kernel().Registry().ListAll()
	c.JSON(http.StatusOK, gin.H{
		"jobs":       toJobResponses(completed),
		"processing": toJobResponses(active),
	})
}

func toJobResponses(jobs []*models.Job) []jobResponse {
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return out
}

// GetJob handles GET /jobs/{id}.
func (h *Handlers) GetJob(c *gin.Context) {
	job := h.Kernel().Registry().Get(c.Param("id"))
	if job == nil {
		writeAPIError(c, apierrors.JobNotFound(c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

// DeleteJob handles DELETE /jobs/{id}: removes the job's registry
// entry and every artifact the Store holds for it.
func (h *Handlers) DeleteJob(c *gin.Context) {
	id := c.Param("id")
	k := h.Kernel()
	if job := k.Registry().Get(id); job == nil {
		writeAPIError(c, apierrors.JobNotFound(id))
		return
	}
	if !k.Registry().Delete(id) {
		writeAPIError(c, apierrors.JobNotFound(id))
		return
	}
	if err := k.Store().DeleteJob(id); err != nil {
		writeAPIError(c, apierrors.Internal(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadJob handles GET /jobs/{id}/download: the final mix as an
// attachment.
func (h *Handlers) DownloadJob(c *gin.Context) {
	job, ok := h.requireCompletedJob(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", attachmentDisposition(job.SourceTitle, filepath.Ext(job.DefaultMixPath)))
	streaming.ServeFile(c, job.DefaultMixPath, models.ContainerVideo.ContentType())
}

// StreamJob handles GET/HEAD /jobs/{id}/stream: the final mix with
// full byte-range support.
func (h *Handlers) StreamJob(c *gin.Context) {
	job, ok := h.requireCompletedJob(c)
	if !ok {
		return
	}
	streaming.ServeFile(c, job.DefaultMixPath, models.ContainerVideo.ContentType())
}

func (h *Handlers) requireCompletedJob(c *gin.Context) (*models.Job, bool) {
	id := c.Param("id")
	job := h.Kernel().Registry().Get(id)
	if job == nil {
		writeAPIError(c, apierrors.JobNotFound(id))
		return nil, false
	}
	if job.Status != models.StatusCompleted {
		writeAPIError(c, apierrors.JobNotCompleted(id))
		return nil, false
	}
	if job.DefaultMixPath == "" || !h.Kernel().Store().Exists(job.DefaultMixPath) {
		writeAPIError(c, apierrors.NoResult())
		return nil, false
	}
	return job, true
}

// ListTracks handles GET /jobs/{id}/tracks.
func (h *Handlers) ListTracks(c *gin.Context) {
	id := c.Param("id")
	job := h.Kernel().Registry().Get(id)
	if job == nil {
		writeAPIError(c, apierrors.JobNotFound(id))
		return
	}
	if !job.Tracks.HasAll() {
		writeAPIError(c, apierrors.NoTracks())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tracks":      models.TrackNames(),
		"sample_rate": job.SampleRate,
		"duration":    job.OriginalDuration,
	})
}

var trackNameSet = func() map[string]bool {
	names := models.TrackNames()
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}()

// StreamTrack handles GET/HEAD /jobs/{id}/tracks/{name}.
func (h *Handlers) StreamTrack(c *gin.Context) {
	id := c.Param("id")
	name := c.Param("name")

	if !trackNameSet[name] {
		writeAPIError(c, apierrors.InvalidTrack(name))
		return
	}

	job := h.Kernel().Registry().Get(id)
	if job == nil {
		writeAPIError(c, apierrors.JobNotFound(id))
		return
	}

	path := trackPathFor(job, name)
	if path == "" || !h.Kernel().Store().Exists(path) {
		writeAPIError(c, apierrors.TrackNotFound(name))
		return
	}
	streaming.ServeFile(c, path, streaming.ContentType(".wav"))
}

func trackPathFor(job *models.Job, name string) string {
	switch name {
	case "drums":
		return job.Tracks.Drums
	case "bass":
		return job.Tracks.Bass
	case "other":
		return job.Tracks.Other
	case "vocals":
		return job.Tracks.Vocals
	default:
		return ""
	}
}

func stampTimestamps(job *models.Job) {
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
}

// attachmentDisposition builds an RFC 5987 Content-Disposition header
// using the job's source title sanitized by store.SanitizeFilename,
// which falls back to "untitled" when nothing usable remains.
func attachmentDisposition(title, ext string) string {
	name := store.SanitizeFilename(title)
	if ext == "" {
		ext = ".mp4"
	}
	encoded := url.PathEscape(name + ext)
	return fmt.Sprintf(`attachment; filename*=UTF-8''%s`, encoded)
}
