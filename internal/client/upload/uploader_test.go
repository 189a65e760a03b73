package upload

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camtrapkit/uploader/internal/client/api"
	"github.com/camtrapkit/uploader/internal/common"
	"github.com/camtrapkit/uploader/internal/filex"
	"github.com/camtrapkit/uploader/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewTextLogger(io.Discard, slog.LevelError)
}

// fastBackoff swaps the retry policy for one without real sleeps.
func fastBackoff(t *testing.T) {
	t.Helper()
	orig := newBackoff
	newBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(maxRetries, retry.NewConstant(time.Millisecond))
	}
	t.Cleanup(func() { newBackoff = orig })
}

// fakeAPI implements api.Client for tests.
type fakeAPI struct {
	mu        sync.Mutex
	uploads   []string
	completed []string
	jobID     string

	createErr   error
	completeErr error
	uploadErr   func(req api.UploadRequest) error
}

func (f *fakeAPI) CreateJob(_ context.Context, _ map[string]any, _ int, _ string) (*api.JobHandle, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := f.jobID
	if id == "" {
		id = "job-test"
	}
	return &api.JobHandle{JobID: id, Locator: "https://store.example/up?sig=x", BulkCommand: "bulkcopy"}, nil
}

func (f *fakeAPI) UploadFile(_ context.Context, req api.UploadRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, req.FileName)
	if f.uploadErr != nil {
		return f.uploadErr(req)
	}
	return nil
}

func (f *fakeAPI) CompleteUpload(_ context.Context, jobID string) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, jobID)
	return nil
}

func (f *fakeAPI) ListJobs(context.Context) ([]api.JobSummary, error)          { return nil, nil }
func (f *fakeAPI) JobStatus(context.Context, string) (*api.JobSummary, error) { return nil, nil }
func (f *fakeAPI) CancelJob(context.Context, string) error                    { return nil }
func (f *fakeAPI) Ping(context.Context) error                                 { return nil }

func (f *fakeAPI) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func writeHandle(t *testing.T, name, content string) filex.Handle {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return filex.Handle{
		Name:         name,
		RelativePath: "survey/" + name,
		AbsPath:      path,
		Size:         int64(len(content)),
		MIMEType:     filex.TypeByName(name),
	}
}

func TestUploader_SuccessFirstTry(t *testing.T) {
	fastBackoff(t)
	f := &fakeAPI{}
	u := NewUploader(f, testLogger())

	err := u.Upload(context.Background(), "job-1", writeHandle(t, "a.jpg", "data"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.uploadCount())
}

func TestUploader_RetriesTransientThenSucceeds(t *testing.T) {
	fastBackoff(t)
	calls := 0
	f := &fakeAPI{}
	f.uploadErr = func(api.UploadRequest) error {
		calls++
		if calls < 3 {
			return &api.StatusError{Code: 503, Message: "busy"}
		}
		return nil
	}
	u := NewUploader(f, testLogger())

	err := u.Upload(context.Background(), "job-1", writeHandle(t, "a.jpg", "data"))
	require.NoError(t, err)
	assert.Equal(t, 3, f.uploadCount())
}

func TestUploader_ExhaustsRetryBudget(t *testing.T) {
	fastBackoff(t)
	f := &fakeAPI{}
	f.uploadErr = func(api.UploadRequest) error {
		return &api.StatusError{Code: 500}
	}
	u := NewUploader(f, testLogger())

	err := u.Upload(context.Background(), "job-1", writeHandle(t, "a.jpg", "data"))
	require.Error(t, err)
	assert.Equal(t, 1+maxRetries, f.uploadCount(), "one initial attempt plus the retry budget")
}

func TestUploader_ClientErrorStopsImmediately(t *testing.T) {
	fastBackoff(t)
	f := &fakeAPI{}
	f.uploadErr = func(api.UploadRequest) error {
		return &api.StatusError{Code: 400, Message: "rejected content"}
	}
	u := NewUploader(f, testLogger())

	err := u.Upload(context.Background(), "job-1", writeHandle(t, "a.jpg", "data"))
	require.Error(t, err)

	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, f.uploadCount(), "client errors must not be retried")
}

func TestUploader_OversizedFileNeverAttempted(t *testing.T) {
	fastBackoff(t)
	f := &fakeAPI{}
	u := NewUploader(f, testLogger())

	big := filex.Handle{Name: "huge.jpg", Size: 150 << 20}
	err := u.Upload(context.Background(), "job-1", big)

	require.ErrorIs(t, err, common.ErrFileTooLarge)
	assert.Equal(t, 0, f.uploadCount(), "oversized files consume no retry budget")
}

func TestUploader_BarePathFallsBackToName(t *testing.T) {
	fastBackoff(t)
	var got api.UploadRequest
	f := &fakeAPI{}
	f.uploadErr = func(req api.UploadRequest) error {
		got = req
		return nil
	}
	u := NewUploader(f, testLogger())

	h := writeHandle(t, "a.jpg", "data")
	h.RelativePath = ""
	require.NoError(t, u.Upload(context.Background(), "job-1", h))
	assert.Equal(t, "a.jpg", got.FilePath)
	assert.Equal(t, []byte("data"), got.Content)
}
