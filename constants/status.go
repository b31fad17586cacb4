package constants

// JobStatus is the canonical status for rows in extraction_job.
type JobStatus string

// Stable values (store these exact strings in the DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusExtracted JobStatus = "EXTRACT_OK" // extraction finished, possibly incomplete
	JobStatusFailed    JobStatus = "FAILED"     // structural failure, terminal
)
