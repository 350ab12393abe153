package pipeline

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/tabusync/internal/syncer"
)

func TestNewJob(t *testing.T) {
	job := NewJob("42", "7", "100", "file_col", "secret-token")
	if job.ID == "" {
		t.Fatal("expected generated job id")
	}
	if job.Status != StatusQueued || job.Phase != "queued" {
		t.Errorf("expected queued job, got %q/%q", job.Status, job.Phase)
	}
	if job.Token() != "secret-token" {
		t.Errorf("expected token to be kept, got %q", job.Token())
	}
	other := NewJob("42", "7", "100", "file_col", "secret-token")
	if other.ID == job.ID {
		t.Error("expected unique job ids")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusDownloading, "downloading"},
		{StatusParsing, "parsing"},
		{StatusSyncing, "syncing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJobStatus_Done(t *testing.T) {
	for _, s := range []JobStatus{StatusCompleted, StatusPartial, StatusFailed} {
		if !s.Done() {
			t.Errorf("expected %q to be terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusQueued, StatusDownloading, StatusParsing, StatusSyncing} {
		if s.Done() {
			t.Errorf("expected %q to be in flight", s)
		}
	}
}

func TestJob_Snapshot(t *testing.T) {
	job := NewJob("42", "7", "100", "file_col", "secret-token")
	job.SetFile("tabu.pdf")
	job.SetHeader("12", "6635")
	job.AddError("subunit 3: owners not found")
	job.SetReport(&syncer.Report{Subunits: syncer.Tally{Created: 2}})

	snap := job.Snapshot()
	if snap.Filename != "tabu.pdf" || snap.UnitNumber != "12" || snap.BlockNumber != "6635" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Errors) != 1 || snap.Errors[0] != "subunit 3: owners not found" {
		t.Errorf("unexpected errors: %v", snap.Errors)
	}
	if snap.Report == nil || snap.Report.Subunits.Created != 2 {
		t.Errorf("expected report in snapshot, got %+v", snap.Report)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "secret-token") {
		t.Error("token must not be serialized")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", Status: StatusCompleted, UpdatedAt: time.Now()}
	waiting := &Job{ID: "waiting", Status: StatusQueued, UpdatedAt: time.Now()}
	store.Put(expired)
	store.Put(waiting)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", Status: StatusFailed, UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
	if store.Get("waiting") == nil {
		t.Error("expected unfinished job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
