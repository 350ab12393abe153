package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/tabusync/internal/syncer"
)

// JobStatus represents the state of a sync job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusDownloading JobStatus = "downloading"
	StatusParsing     JobStatus = "parsing"
	StatusSyncing     JobStatus = "syncing"
	StatusCompleted   JobStatus = "completed"
	StatusPartial     JobStatus = "partial"
	StatusFailed      JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// Job tracks one extract sent from a unit item.
type Job struct {
	mu sync.Mutex

	ID           string `json:"job_id"`
	AccountID    string `json:"account_id"`
	UserID       string `json:"user_id"`
	ItemID       string `json:"item_id"`
	FileColumnID string `json:"file_column_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Filename    string `json:"filename,omitempty"`
	UnitNumber  string `json:"unit_number,omitempty"`
	BlockNumber string `json:"block_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	token  string
	report *syncer.Report
	errors []string
}

// NewJob creates a queued job. token is the short-lived board token the job
// acts with; it never leaves the process.
func NewJob(accountID, userID, itemID, fileColumnID, token string) *Job {
	now := time.Now()
	return &Job{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		UserID:       userID,
		ItemID:       itemID,
		FileColumnID: fileColumnID,
		Status:       StatusQueued,
		Phase:        "queued",
		CreatedAt:    now,
		UpdatedAt:    now,
		token:        token,
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

// Cleanup removes finished jobs older than the TTL. Queued and running jobs
// stay until they finish.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetFile records the name of the downloaded extract.
func (j *Job) SetFile(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Filename = name
	j.UpdatedAt = time.Now()
}

// SetHeader records the unit and block numbers read from the extract.
func (j *Job) SetHeader(unit, block string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.UnitNumber = unit
	j.BlockNumber = block
	j.UpdatedAt = time.Now()
}

// SetReport stores the sync report.
func (j *Job) SetReport(r *syncer.Report) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.report = r
	j.UpdatedAt = time.Now()
}

// Token returns the board token the job runs with.
func (j *Job) Token() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.token
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID           string         `json:"job_id"`
	AccountID    string         `json:"account_id"`
	UserID       string         `json:"user_id"`
	ItemID       string         `json:"item_id"`
	FileColumnID string         `json:"file_column_id"`
	Status       JobStatus      `json:"status"`
	Phase        string         `json:"phase"`
	Filename     string         `json:"filename,omitempty"`
	UnitNumber   string         `json:"unit_number,omitempty"`
	BlockNumber  string         `json:"block_number,omitempty"`
	Report       *syncer.Report `json:"report,omitempty"`
	Errors       []string       `json:"errors"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	return JobSnapshot{
		ID:           j.ID,
		AccountID:    j.AccountID,
		UserID:       j.UserID,
		ItemID:       j.ItemID,
		FileColumnID: j.FileColumnID,
		Status:       j.Status,
		Phase:        j.Phase,
		Filename:     j.Filename,
		UnitNumber:   j.UnitNumber,
		BlockNumber:  j.BlockNumber,
		Report:       j.report,
		Errors:       errs,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}
