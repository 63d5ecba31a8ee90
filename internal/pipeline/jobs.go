package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusChunking  JobStatus = "chunking"
	StatusStoring   JobStatus = "storing"
	StatusNotifying JobStatus = "notifying"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID          string `json:"job_id"`
	NamespaceID string `json:"namespace_id"`
	DocumentID  string `json:"document_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	// Chunking parameters resolved at submit time.
	ChunkSize    int    `json:"chunk_size"`
	LanguageCode string `json:"language_code,omitempty"`
	BatchSize    int    `json:"batch_size"`

	Result JobResult `json:"result"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData    []byte
	tokenID     string
	tokenAccess string
	errors      []string
}

// JobResult holds the outcome of a completed ingestion.
type JobResult struct {
	ResultsID       string   `json:"results_id,omitempty"`
	BatchTemplate   string   `json:"batch_template,omitempty"`
	TotalChunks     int      `json:"total_chunks"`
	TotalBatches    int      `json:"total_batches"`
	TotalCharacters int      `json:"total_characters"`
	Errors          []string `json:"errors"`
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
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
	j.Result.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetResult records the totals and storage keys for a finished job.
func (j *Job) SetResult(resultsID, batchTemplate string, totalChunks, totalBatches, totalCharacters int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Result.ResultsID = resultsID
	j.Result.BatchTemplate = batchTemplate
	j.Result.TotalChunks = totalChunks
	j.Result.TotalBatches = totalBatches
	j.Result.TotalCharacters = totalCharacters
	j.UpdatedAt = time.Now()
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

// SetWaitpoint sets the workflow token used to report completion.
func (j *Job) SetWaitpoint(tokenID, accessToken string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tokenID = tokenID
	j.tokenAccess = accessToken
}

// Waitpoint returns the workflow completion token, if any.
func (j *Job) Waitpoint() (tokenID, accessToken string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.tokenID, j.tokenAccess
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	NamespaceID string    `json:"namespace_id"`
	DocumentID  string    `json:"document_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Result      JobResult `json:"result"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Result.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		NamespaceID: j.NamespaceID,
		DocumentID:  j.DocumentID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Result: JobResult{
			ResultsID:       j.Result.ResultsID,
			BatchTemplate:   j.Result.BatchTemplate,
			TotalChunks:     j.Result.TotalChunks,
			TotalBatches:    j.Result.TotalBatches,
			TotalCharacters: j.Result.TotalCharacters,
			Errors:          errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
