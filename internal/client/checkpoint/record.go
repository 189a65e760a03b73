// Package checkpoint persists per-job upload state. The checkpoint is the
// source of truth for what remains to be sent: every mutation rewrites the
// whole record so a reader never observes the file list and the uploaded
// counter diverging.
package checkpoint

import (
	"math"
	"time"
)

// File statuses. A file is never durably recorded as in-progress: it is
// pending until its transfer is confirmed, which keeps the checkpoint
// idempotent across crashes.
const (
	StatusPending  = "pending"
	StatusComplete = "complete"
)

// FileRecord is one file to transfer. Path/RelativePath preserve the
// subfolder structure under the top-level folder when the selection carried
// path metadata.
type FileRecord struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	Path         string `json:"path"`
	RelativePath string `json:"relativePath"`
	Status       string `json:"status"`
}

// Checkpoint is the persisted record of one job, keyed by JobID.
type Checkpoint struct {
	JobID     string         `json:"jobId"`
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Files     []FileRecord   `json:"files"`
	FormData  map[string]any `json:"formData"`
	Uploaded  int            `json:"uploaded"`
	NumImages int            `json:"num_images"`
}

// CountComplete returns the number of files recorded complete.
func (c *Checkpoint) CountComplete() int {
	n := 0
	for _, f := range c.Files {
		if f.Status == StatusComplete {
			n++
		}
	}
	return n
}

// PendingFiles returns the records still awaiting transfer.
func (c *Checkpoint) PendingFiles() []FileRecord {
	var pending []FileRecord
	for _, f := range c.Files {
		if f.Status != StatusComplete {
			pending = append(pending, f)
		}
	}
	return pending
}

// Progress is a derived, non-persisted view of a checkpoint.
type Progress struct {
	Total      int
	Uploaded   int
	Active     int
	Percentage int
}

// Progress recomputes the view from the durable record. Completion order
// within a batch is unconstrained, so the percentage always derives from the
// durable count, never from submission order.
func (c *Checkpoint) Progress(active int) Progress {
	p := Progress{Total: len(c.Files), Uploaded: c.Uploaded, Active: active}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Uploaded) / float64(p.Total) * 100))
	}
	return p
}
