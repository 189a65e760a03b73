// Package api is the HTTP client for the remote processing backend: job
// creation, file transfer, completion, and the job-status surface.
package api

import (
	"context"
	"time"
)

// JobHandle is the result of creating a job. Locator and BulkCommand arrive
// out-of-band (response headers, not body) and exist for the large-dataset
// alternate path: a time-limited, write-capable storage locator plus an
// equivalent bulk-copy command line. Either may be empty.
type JobHandle struct {
	JobID       string
	Locator     string
	BulkCommand string
}

// UploadRequest carries one file to the transfer endpoint. Content holds the
// raw bytes; the transport encodes them into a text-safe payload.
type UploadRequest struct {
	JobID       string
	FileName    string
	FilePath    string
	ContentType string
	Content     []byte
}

// JobSummary is one entry from the job listing/status surface.
type JobSummary struct {
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	NumImages int       `json:"num_images"`
	CreatedAt time.Time `json:"createdAt"`
}

// Client is the remote backend as seen by the upload engine.
type Client interface {
	// CreateJob registers a new processing job and returns its handle.
	// params are opaque processing options passed through unmodified.
	CreateJob(ctx context.Context, params map[string]any, fileCount int, topLevelFolder string) (*JobHandle, error)

	// UploadFile transfers one file. A nil error means the server confirmed
	// the write; any non-2xx response surfaces as a *StatusError.
	UploadFile(ctx context.Context, req UploadRequest) error

	// CompleteUpload tells the backend all files are in and processing may
	// begin.
	CompleteUpload(ctx context.Context, jobID string) error

	// ListJobs returns the caller's jobs. Used by the job-status surface,
	// not by the upload orchestrator.
	ListJobs(ctx context.Context) ([]JobSummary, error)

	// JobStatus returns the state of one job.
	JobStatus(ctx context.Context, jobID string) (*JobSummary, error)

	// CancelJob requests cancellation of a job on the backend.
	CancelJob(ctx context.Context, jobID string) error

	// Ping probes server reachability.
	Ping(ctx context.Context) error
}
