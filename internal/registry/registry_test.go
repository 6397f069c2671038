package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/zfogg/sidechain/backend/internal/models"
)

func newTestJob(id string) *models.Job {
	return &models.Job{
		ID:        id,
		Source:    models.SourceUpload,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestCreateAndGet(t *testing.T) {
	r := New(5)
	job := newTestJob("job-1")

	r.Create(job)
	got := r.Get("job-1")

	if got == nil {
		t.Fatal("expected job to be found")
	}
	if got.ID != "job-1" {
		t.Errorf("expected job-1, got %s", got.ID)
	}
}

func TestGetReturnsACloneNotTheOriginal(t *testing.T) {
	r := New(5)
	r.Create(newTestJob("job-1"))

	got := r.Get("job-1")
	got.Status = models.StatusFailed

	again := r.Get("job-1")
	if again.Status == models.StatusFailed {
		t.Error("mutating the returned job leaked into the registry's stored copy")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	r := New(5)
	if r.Get("missing") != nil {
		t.Error("expected nil for an unknown job id")
	}
}

func TestDelete(t *testing.T) {
	r := New(5)
	r.Create(newTestJob("job-1"))

	if !r.Delete("job-1") {
		t.Error("expected Delete to report true for an existing job")
	}
	if r.Delete("job-1") {
		t.Error("expected Delete to report false the second time")
	}
	if r.Get("job-1") != nil {
		t.Error("expected job to be gone after Delete")
	}
}

func TestUpdateAppliesFnAndStampsUpdatedAt(t *testing.T) {
	r := New(5)
	job := newTestJob("job-1")
	job.UpdatedAt = time.Now().Add(-time.Hour)
	before := job.UpdatedAt
	r.Create(job)

	ok := r.Update("job-1", func(j *models.Job) {
		j.SourceTitle = "My Track"
	})

	if !ok {
		t.Fatal("expected Update to report true")
	}
	got := r.Get("job-1")
	if got.SourceTitle != "My Track" {
		t.Errorf("expected title to be set, got %q", got.SourceTitle)
	}
	if !got.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to be bumped")
	}
}

func TestUpdateMissingJobReturnsFalse(t *testing.T) {
	r := New(5)
	if r.Update("missing", func(j *models.Job) {}) {
		t.Error("expected Update to report false for a missing job")
	}
}

func TestUpdateProgressDroppedOnTerminalJob(t *testing.T) {
	r := New(5)
	job := newTestJob("job-1")
	job.Status = models.StatusCompleted
	r.Create(job)

	r.UpdateProgress("job-1", 50, "separating", nil)

	got := r.Get("job-1")
	if got.Progress == 50 {
		t.Error("expected progress update on a terminal job to be dropped")
	}
}

func TestUpdateProgressSetsFields(t *testing.T) {
	r := New(5)
	r.Create(newTestJob("job-1"))
	separating := models.StatusSeparating

	r.UpdateProgress("job-1", 42, "separating", &separating)

	got := r.Get("job-1")
	if got.Progress != 42 || got.CurrentStage != "separating" || got.Status != models.StatusSeparating {
		t.Errorf("unexpected job state: %+v", got)
	}
}

func TestComplete(t *testing.T) {
	r := New(5)
	r.Create(newTestJob("job-1"))

	r.Complete("job-1", "/results/job-1/mix.mp4")

	got := r.Get("job-1")
	if got.Status != models.StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got.Status)
	}
	if got.Progress != 100 {
		t.Errorf("expected 100%%, got %d", got.Progress)
	}
	if got.DefaultMixPath != "/results/job-1/mix.mp4" {
		t.Errorf("expected default mix path to be set, got %q", got.DefaultMixPath)
	}
	if got.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
}

func TestFail(t *testing.T) {
	r := New(5)
	r.Create(newTestJob("job-1"))

	r.Fail("job-1", "ffmpeg exited with status 1")

	got := r.Get("job-1")
	if got.Status != models.StatusFailed {
		t.Errorf("expected FAILED, got %s", got.Status)
	}
	if got.ErrorMessage != "ffmpeg exited with status 1" {
		t.Errorf("expected error message to be set, got %q", got.ErrorMessage)
	}
}

func TestCanAcceptRespectsMaxConcurrent(t *testing.T) {
	r := New(2)

	if !r.CanAccept() {
		t.Fatal("expected to accept with 0 active jobs")
	}

	r.IncrementActive()
	r.IncrementActive()

	if r.CanAccept() {
		t.Error("expected to reject once active count reaches the max")
	}

	r.DecrementActive()
	if !r.CanAccept() {
		t.Error("expected to accept again after a decrement")
	}
}

func TestDecrementActiveNeverGoesNegative(t *testing.T) {
	r := New(2)

	r.DecrementActive()
	r.DecrementActive()

	if r.ActiveCount() != 0 {
		t.Errorf("expected active count to stay at 0, got %d", r.ActiveCount())
	}
}

func TestListAllPartitionsByStatus(t *testing.T) {
	r := New(5)
	completed := newTestJob("done")
	completed.Status = models.StatusCompleted
	failed := newTestJob("failed")
	failed.Status = models.StatusFailed
	active := newTestJob("active")
	active.Status = models.StatusSeparating

	r.Create(completed)
	r.Create(failed)
	r.Create(active)

	completedList, activeList := r.ListAll()

	if len(completedList) != 1 || completedList[0].ID != "done" {
		t.Errorf("expected exactly the completed job, got %+v", completedList)
	}
	if len(activeList) != 1 || activeList[0].ID != "active" {
		t.Errorf("expected exactly the active job, got %+v", activeList)
	}
}

func TestListAllSortsByCreatedAtDescending(t *testing.T) {
	r := New(5)
	older := newTestJob("older")
	older.Status = models.StatusSeparating
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := newTestJob("newer")
	newer.Status = models.StatusSeparating
	newer.CreatedAt = time.Now()

	r.Create(older)
	r.Create(newer)

	_, active := r.ListAll()

	if len(active) != 2 || active[0].ID != "newer" || active[1].ID != "older" {
		t.Errorf("expected newest-first order, got %+v", active)
	}
}

func TestFindByTitle(t *testing.T) {
	r := New(5)
	job := newTestJob("job-1")
	job.SourceTitle = "My Track"
	r.Create(job)

	found := r.FindByTitle("My Track")
	if found == nil || found.ID != "job-1" {
		t.Errorf("expected to find job-1 by title, got %+v", found)
	}
	if r.FindByTitle("No Such Track") != nil {
		t.Error("expected nil for an unmatched title")
	}
}

func TestAddImportedBypassesAdmission(t *testing.T) {
	r := New(0)
	job := newTestJob("imported-1")
	job.Imported = true

	r.AddImported(job)

	got := r.Get("imported-1")
	if got == nil || !got.Imported {
		t.Error("expected the imported job to be stored regardless of admission limits")
	}
}

func TestRegistryIsSafeForConcurrentUse(t *testing.T) {
	r := New(100)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := newTestJob("job").ID
			_ = id
			r.IncrementActive()
			r.DecrementActive()
		}(i)
	}
	wg.Wait()

	if r.ActiveCount() != 0 {
		t.Errorf("expected active count to settle at 0, got %d", r.ActiveCount())
	}
}
