package handlers

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
	"github.com/zfogg/sidechain/backend/internal/models"
	"github.com/zfogg/sidechain/backend/internal/remix"
	"github.com/zfogg/sidechain/backend/internal/streaming"
)

// defaultMixSettings fills in unset MixSettings fields the same way
// the pipeline's default instrumental does, so a bare `{}` body still
// mixes something sensible.
func defaultMixSettings() models.MixSettings {
	return models.MixSettings{
		DrumsGain: 1, BassGain: 1, OtherGain: 1, VocalsGain: 0,
		Pitch: 0, Container: models.ContainerVideo,
	}
}

// CreateMix handles POST /jobs/{id}/mix: enqueues (or returns the
// cached/in-flight state of) an on-demand remix.
func (h *Handlers) CreateMix(c *gin.Context) {
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

	settings := defaultMixSettings()
	if err := c.ShouldBindJSON(&settings); err != nil {
		writeAPIError(c, apierrors.InvalidFormat(err.Error()))
		return
	}

	artifact, err := h.Kernel().RemixEngine().Get(context.Background(), job, settings)
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"mix_id":   artifact.Key,
		"status":   artifact.Status,
		"progress": artifact.Progress,
		"cached":   artifact.Cached,
	})
}

// GetMix handles GET /jobs/{id}/mix/{mix_id}.
func (h *Handlers) GetMix(c *gin.Context) {
	artifact, ok := h.lookupMix(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mix_id":        artifact.Key,
		"status":        artifact.Status,
		"progress":      artifact.Progress,
		"error_message": artifact.ErrorMsg,
	})
}

// DownloadMix handles GET /jobs/{id}/mix/{mix_id}/download.
func (h *Handlers) DownloadMix(c *gin.Context) {
	artifact, ok := h.lookupMix(c)
	if !ok {
		return
	}
	if artifact.Status != remix.StatusCompleted || !h.Kernel().Store().Exists(artifact.Path) {
		writeAPIError(c, apierrors.MixNotFound(c.Param("mix_id")))
		return
	}
	streaming.ServeFile(c, artifact.Path, streaming.ContentType(filepath.Ext(artifact.Path)))
}

// lookupMix resolves a job + mix_id pair to its current remix
// Artifact by recomputing the key's bookkeeping through Get, which is
// safe to call repeatedly: on a known key it returns the cached or
// in-flight state without re-launching work.
func (h *Handlers) lookupMix(c *gin.Context) (*remix.Artifact, bool) {
	id := c.Param("id")
	mixID := c.Param("mix_id")

	job := h.Kernel().Registry().Get(id)
	if job == nil {
		writeAPIError(c, apierrors.JobNotFound(id))
		return nil, false
	}

	engine := h.Kernel().RemixEngine()
	settings, ok := engine.Lookup(job.ID, mixID)
	if !ok {
		writeAPIError(c, apierrors.MixNotFound(mixID))
		return nil, false
	}

	artifact, err := engine.Get(context.Background(), job, settings)
	if err != nil {
		writeErr(c, err)
		return nil, false
	}
	return artifact, true
}
