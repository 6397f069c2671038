package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
	"github.com/zfogg/sidechain/backend/internal/models"
	"github.com/zfogg/sidechain/backend/internal/streaming"
)

type exportRequest struct {
	JobIDs []string `json:"job_ids" binding:"required"`
}

// ExportJobs handles POST /jobs/export: bundles one or more completed
// jobs into a downloadable zip.
func (h *Handlers) ExportJobs(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.JobIDs) == 0 {
		writeAPIError(c, apierrors.BadBundle("job_ids is required"))
		return
	}

	reg := h.Kernel().Registry()
	jobs := make([]*models.Job, 0, len(req.JobIDs))
	for _, id := range req.JobIDs {
		job := reg.Get(id)
		if job == nil {
			writeAPIError(c, apierrors.JobNotFound(id))
			return
		}
		jobs = append(jobs, job)
	}

	exporter := h.Kernel().Exporter()
	var exportID string
	var err error
	if len(jobs) == 1 {
		exportID, _, err = exporter.ExportSingle(jobs[0])
	} else {
		exportID, _, err = exporter.ExportMulti(jobs)
	}
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"download_url": "/jobs/export/download/" + exportID,
	})
}

// DownloadExportBundle handles GET /jobs/export/download/{export_id}.
func (h *Handlers) DownloadExportBundle(c *gin.Context) {
	exportID := c.Param("export_id")
	path, err := h.Kernel().Store().FindExportFile(exportID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exportID+`.zip"`)
	streaming.ServeFile(c, path, "application/zip")
}

// ImportBundle handles POST /jobs/import: unpacks an uploaded bundle
// zip, importing every song whose title doesn't already exist and
// staging the rest as conflicts for the caller to resolve.
func (h *Handlers) ImportBundle(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeAPIError(c, apierrors.MissingFile())
		return
	}

	tempDir, uerr := h.Kernel().Store().EnsureUploadDir("import-" + newJobID())
	if uerr != nil {
		writeAPIError(c, apierrors.Internal(uerr.Error()))
		return
	}
	zipPath, serr := saveMultipartFile(tempDir, fileHeader)
	if serr != nil {
		writeAPIError(c, apierrors.Internal(serr.Error()))
		return
	}

	result := h.Kernel().Importer().ImportZip(zipPath)

	c.JSON(http.StatusOK, gin.H{
		"imported":  result.Imported,
		"conflicts": result.Conflicts,
		"errors":    result.Errors,
	})
}

type resolveConflictRequest struct {
	Action   string `json:"action" binding:"required"`
	NewTitle string `json:"new_title"`
}

// ResolveImportConflict handles POST /jobs/import/resolve/{conflict_id}.
func (h *Handlers) ResolveImportConflict(c *gin.Context) {
	conflictID := c.Param("conflict_id")

	var req resolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, apierrors.InvalidAction(""))
		return
	}

	job, err := h.Kernel().Importer().ResolveConflict(conflictID, req.Action, req.NewTitle)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}
