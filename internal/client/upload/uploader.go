package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/camtrapkit/uploader/internal/client/api"
	"github.com/camtrapkit/uploader/internal/common"
	"github.com/camtrapkit/uploader/internal/filex"
	"github.com/camtrapkit/uploader/internal/logging"
)

const (
	// DefaultMaxFileSize bounds worst-case memory use: the whole file is
	// held in memory for text-safe encoding, so oversized files are
	// refused up front instead of attempted.
	DefaultMaxFileSize = 100 << 20 // 100MB

	// maxRetries is the number of additional attempts after the first.
	maxRetries = 3

	backoffBase = 1 * time.Second
	backoffCap  = 10 * time.Second
)

// newBackoff builds the transfer retry policy: exponential from 1s, capped
// at 10s, at most maxRetries additional attempts. A package var so tests can
// substitute a policy without real sleeps.
var newBackoff = func() retry.Backoff {
	b := retry.NewExponential(backoffBase)
	b = retry.WithCappedDuration(backoffCap, b)
	b = retry.WithMaxRetries(maxRetries, b)
	return b
}

// Uploader transfers exactly one file per Upload call, with bounded retries
// and exponential backoff. It fails closed: after the retry budget is spent,
// the file's failure is final for this invocation and the file stays pending
// in the checkpoint.
type Uploader struct {
	api         api.Client
	log         logging.Logger
	maxFileSize int64
}

func NewUploader(client api.Client, log logging.Logger) *Uploader {
	return &Uploader{api: client, log: log, maxFileSize: DefaultMaxFileSize}
}

// WithMaxFileSize overrides the size threshold. Values <= 0 keep the default.
func (u *Uploader) WithMaxFileSize(limit int64) *Uploader {
	if limit > 0 {
		u.maxFileSize = limit
	}
	return u
}

// Upload sends h to the transfer endpoint for jobID. It returns exactly one
// outcome: nil on confirmed success, an error otherwise. Files over the size
// threshold are never attempted and consume no retry budget.
func (u *Uploader) Upload(ctx context.Context, jobID string, h filex.Handle) error {
	if h.Size > u.maxFileSize {
		u.log.Warn(ctx, "skipping oversized file", "file", h.Name, "size", h.Size, "limit", u.maxFileSize)
		return fmt.Errorf("%s (%d bytes): %w", h.Name, h.Size, common.ErrFileTooLarge)
	}

	content, err := readAll(h)
	if err != nil {
		return fmt.Errorf("reading %s: %w", h.Name, err)
	}

	req := api.UploadRequest{
		JobID:       jobID,
		FileName:    h.Name,
		FilePath:    h.RelativePath,
		ContentType: h.MIMEType,
		Content:     content,
	}
	if req.FilePath == "" {
		req.FilePath = h.Name
	}

	b := newBackoff()

	attempt := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++

		err := u.api.UploadFile(ctx, req)
		if err == nil {
			return nil
		}

		var se *api.StatusError
		if errors.As(err, &se) && !se.Transient() {
			// the server rejected the request itself; more attempts
			// cannot change the outcome
			return err
		}

		u.log.Warn(ctx, "transfer attempt failed", "file", h.Name, "attempt", attempt, "err", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", h.Name, err)
	}

	u.log.Debug(ctx, "file uploaded", "file", h.Name, "job", jobID, "attempts", attempt)
	return nil
}

func readAll(h filex.Handle) ([]byte, error) {
	rc, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
