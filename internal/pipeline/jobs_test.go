package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/outliner/internal/extract"
	"github.com/dgallion1/outliner/internal/outline"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestNewJob(t *testing.T) {
	a := NewJob("a.pdf", []byte("x"))
	b := NewJob("a.pdf", []byte("x"))
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected unique non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, a.Status)
	}
	if string(a.FileData()) != "x" {
		t.Errorf("expected file data to be kept, got %q", a.FileData())
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("doc.pdf", nil)

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusExtracting, "extracting"},
		{StatusRanking, "ranking"},
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

func TestJob_DoneClosesOnTerminal(t *testing.T) {
	job := NewJob("doc.pdf", nil)
	job.SetStatus(StatusParsing, "parsing")
	select {
	case <-job.Done():
		t.Fatal("done closed before terminal status")
	default:
	}

	job.SetStatus(StatusFailed, "parsing")
	select {
	case <-job.Done():
	case <-time.After(time.Second):
		t.Fatal("expected done to close on failure")
	}

	// A second terminal transition must not panic on double close.
	job.SetStatus(StatusCompleted, "done")
}

func TestJobStatus_Predicates(t *testing.T) {
	for _, s := range []JobStatus{StatusCompleted, StatusCached} {
		if !s.Terminal() || !s.Succeeded() {
			t.Errorf("expected %q terminal and successful", s)
		}
	}
	if !StatusFailed.Terminal() || StatusFailed.Succeeded() {
		t.Error("expected failed to be terminal and unsuccessful")
	}
	for _, s := range []JobStatus{StatusQueued, StatusParsing, StatusExtracting, StatusRanking} {
		if s.Terminal() {
			t.Errorf("expected %q to be non-terminal", s)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("parsing: bad xref")
	job.AddError("ranking: timeout")

	snap := job.Snapshot()
	if len(snap.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Errors))
	}
	if snap.Errors[0] != "parsing: bad xref" {
		t.Errorf("expected first error %q, got %q", "parsing: bad xref", snap.Errors[0])
	}
}

func TestJob_ExtractionAndResult(t *testing.T) {
	job := NewJob("doc.pdf", nil)
	job.SetExtraction(7, 12, []extract.SizeCount{{Size: 12, Count: 5}, {Size: 18, Count: 2}})

	if _, ok := job.Result(); ok {
		t.Error("expected no result before SetResult")
	}
	job.SetResult(outline.Outline{
		Title:   "Intro",
		Outline: []outline.RankedHeading{{Level: outline.H1, Text: "Intro", Page: 1}},
	})

	snap := job.Snapshot()
	if snap.Candidates != 7 || snap.BodySize != 12 || len(snap.Sizes) != 2 {
		t.Errorf("unexpected extraction stats: %+v", snap)
	}
	if snap.Title != "Intro" || snap.Headings != 1 {
		t.Errorf("expected title and heading count in snapshot, got %q %d", snap.Title, snap.Headings)
	}
	got, ok := job.Result()
	if !ok || got.Title != "Intro" {
		t.Errorf("expected stored result, got %+v", got)
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Errors == nil || snap.Sizes == nil {
		t.Error("expected non-nil slices in snapshot")
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
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", Status: StatusCompleted, UpdatedAt: time.Now()}
	running := &Job{ID: "running", Status: StatusRanking, UpdatedAt: time.Now()}
	store.Put(expired)
	store.Put(running)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", Status: StatusCompleted, UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("running") == nil {
		t.Error("expected in-flight job to survive cleanup")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 jobs left, got %d", store.Len())
	}
}
