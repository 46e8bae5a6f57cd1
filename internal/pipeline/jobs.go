package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/outliner/internal/extract"
	"github.com/dgallion1/outliner/internal/outline"
)

// JobStatus represents the state of an outline job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusExtracting JobStatus = "extracting"
	StatusRanking    JobStatus = "ranking"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCached     JobStatus = "cached"
)

// Terminal reports whether no further transitions follow.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCached
}

// Succeeded reports whether the job produced an outline.
func (s JobStatus) Succeeded() bool {
	return s == StatusCompleted || s == StatusCached
}

// Job tracks the state of a single document.
type Job struct {
	mu sync.Mutex

	ID       string
	Status   JobStatus
	Phase    string
	Filename string

	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	candidates int
	bodySize   float64
	sizes      []extract.SizeCount
	errors     []string
	result     *outline.Outline

	fileData []byte
	done     chan struct{}
	doneOnce sync.Once
}

// NewJob creates a queued job for the given file contents.
func NewJob(filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
		done:      make(chan struct{}),
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs not touched within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically. Terminal statuses release
// anyone blocked on Done.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	j.mu.Unlock()

	if status.Terminal() {
		j.doneOnce.Do(func() {
			if j.done != nil {
				close(j.done)
			}
		})
	}
}

// Done is closed once the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done == nil {
		j.done = make(chan struct{})
	}
	return j.done
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the uploaded bytes.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// SetExtraction records candidate count and font size diagnostics.
func (j *Job) SetExtraction(candidates int, bodySize float64, sizes []extract.SizeCount) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.candidates = candidates
	j.bodySize = bodySize
	j.sizes = sizes
	j.UpdatedAt = time.Now()
}

// SetResult stores the finished outline.
func (j *Job) SetResult(o outline.Outline) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &o
	j.UpdatedAt = time.Now()
}

// Result returns the outline once one has been produced.
func (j *Job) Result() (outline.Outline, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.result == nil {
		return outline.Outline{}, false
	}
	return *j.result, true
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string              `json:"job_id"`
	Status      JobStatus           `json:"status"`
	Phase       string              `json:"phase"`
	Filename    string              `json:"filename"`
	ContentHash string              `json:"content_hash,omitempty"`
	Title       string              `json:"title,omitempty"`
	Headings    int                 `json:"headings"`
	Candidates  int                 `json:"candidates"`
	BodySize    float64             `json:"body_size"`
	Sizes       []extract.SizeCount `json:"sizes"`
	Errors      []string            `json:"errors"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		Candidates:  j.candidates,
		BodySize:    j.bodySize,
		Sizes:       append([]extract.SizeCount{}, j.sizes...),
		Errors:      append([]string{}, j.errors...),
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
	if j.result != nil {
		snap.Title = j.result.Title
		snap.Headings = len(j.result.Outline)
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
