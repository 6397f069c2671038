// Package registry holds the in-memory job state: a single mutex
// guarding a map from job ID to *models.Job, plus the active-job
// admission counter the pipeline brackets each run with.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/zfogg/sidechain/backend/internal/models"
)

// Registry is the single source of truth for job state while the
// process is running. It is never persisted to disk; a restart loses
// all job state by design (see Non-goals).
type Registry struct {
	mu              sync.Mutex
	jobs            map[string]*models.Job
	activeCount     int
	maxConcurrent   int
}

// New returns an empty Registry admitting up to maxConcurrentJobs
// simultaneous non-terminal jobs.
func New(maxConcurrentJobs int) *Registry {
	return &Registry{
		jobs:          make(map[string]*models.Job),
		maxConcurrent: maxConcurrentJobs,
	}
}

// Create stores job, keyed by its ID.
func (r *Registry) Create(job *models.Job) *models.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return job
}

// Get returns a defensive copy of the job with the given id, or nil.
func (r *Registry) Get(id string) *models.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil
	}
	return job.Clone()
}

// Delete removes the job with the given id, reporting whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return false
	}
	delete(r.jobs, id)
	return true
}

// UpdateFunc mutates a job in place under the registry's lock. It must
// not retain the pointer past the call.
type UpdateFunc func(job *models.Job)

// Update applies fn to the stored job (if present) and stamps
// UpdatedAt. Returns false if the job does not exist.
func (r *Registry) Update(id string, fn UpdateFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return false
	}
	fn(job)
	job.UpdatedAt = time.Now()
	return true
}

// UpdateProgress sets progress/stage/status on a non-terminal job.
// Updates to a terminal job are silently dropped.
func (r *Registry) UpdateProgress(id string, percent int, stage string, status *models.JobStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status.IsTerminal() {
		return
	}
	job.Progress = percent
	job.CurrentStage = stage
	if status != nil {
		job.Status = *status
	}
	job.UpdatedAt = time.Now()
}

// Complete marks a job COMPLETED at 100% with the given final path.
func (r *Registry) Complete(id string, finalPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return
	}
	now := time.Now()
	job.Status = models.StatusCompleted
	job.Progress = 100
	job.CurrentStage = "complete"
	job.DefaultMixPath = finalPath
	job.CompletedAt = &now
	job.UpdatedAt = now
}

// Fail marks a job FAILED with the given message.
func (r *Registry) Fail(id string, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return
	}
	job.Status = models.StatusFailed
	job.ErrorMessage = message
	job.UpdatedAt = time.Now()
}

// CanAccept reports whether another job may be admitted: the count of
// in-flight (incremented but not yet decremented) jobs is below the
// configured maximum.
func (r *Registry) CanAccept() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeCount < r.maxConcurrent
}

// IncrementActive brackets the start of pipeline execution.
func (r *Registry) IncrementActive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeCount++
}

// DecrementActive brackets the end of pipeline execution (success,
// failure, or cancellation alike). Never goes negative.
func (r *Registry) DecrementActive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeCount > 0 {
		r.activeCount--
	}
}

// ActiveCount returns the current in-flight count.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeCount
}

// ListAll partitions all jobs into completed and active (anything not
// COMPLETED or FAILED), each sorted by CreatedAt descending.
func (r *Registry) ListAll() (completed []*models.Job, active []*models.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range r.jobs {
		clone := job.Clone()
		switch clone.Status {
		case models.StatusCompleted:
			completed = append(completed, clone)
		case models.StatusFailed:
			// neither bucket: failed jobs are visible only via Get/id.
		default:
			active = append(active, clone)
		}
	}

	byCreatedDesc := func(jobs []*models.Job) func(i, j int) bool {
		return func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) }
	}
	sort.Slice(completed, byCreatedDesc(completed))
	sort.Slice(active, byCreatedDesc(active))
	return completed, active
}

// FindByTitle returns the first job whose SourceTitle matches title,
// used by the Importer to detect collisions.
func (r *Registry) FindByTitle(title string) *models.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		if job.SourceTitle == title {
			return job.Clone()
		}
	}
	return nil
}

// AddImported inserts a job reconstructed from an import bundle,
// bypassing the normal create/admission path.
func (r *Registry) AddImported(job *models.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}
