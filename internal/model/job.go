package model

import "time"

// JobStatus is the lifecycle state of an asynchronous processing job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is final
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// Job is a snapshot of an asynchronous document run. Snapshots are returned to
// pollers; the live job state is owned by the coordinator's worker.
type Job struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"` // 0-100, monotonically non-decreasing
	Step      string    `json:"step,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Result is the final payload once the job is terminal. Cancelled and
	// timed-out jobs retain the partial report accumulated so far.
	Result *Report `json:"result,omitempty"`
}
