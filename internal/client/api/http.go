package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/camtrapkit/uploader/internal/common"
)

const defaultTimeout = 60 * time.Second

// HTTPClient talks JSON over HTTP to the backend. An access token, when
// configured, is forwarded as a bearer credential; identity itself is the
// backend's concern.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type createJobRequest struct {
	ProcessingParameters map[string]any `json:"processingParameters"`
	FileCount            int            `json:"fileCount"`
	TopLevelFolderName   string         `json:"topLevelFolderName"`
}

type createJobResponse struct {
	JobID string `json:"jobId"`
}

func (c *HTTPClient) CreateJob(ctx context.Context, params map[string]any, fileCount int, topLevelFolder string) (*JobHandle, error) {
	body := createJobRequest{
		ProcessingParameters: params,
		FileCount:            fileCount,
		TopLevelFolderName:   topLevelFolder,
	}

	resp, err := c.postJSON(ctx, "/api/create-job", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out createJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding create-job response: %w", err)
	}
	if out.JobID == "" {
		return nil, fmt.Errorf("create-job response carried no job id")
	}

	return &JobHandle{
		JobID:       out.JobID,
		Locator:     resp.Header.Get(common.UploadLocatorHeaderName),
		BulkCommand: resp.Header.Get(common.BulkCommandHeaderName),
	}, nil
}

type uploadFileRequest struct {
	JobID       string `json:"jobId"`
	FileName    string `json:"fileName"`
	FilePath    string `json:"filePath"`
	FileContent string `json:"fileContent"`
	ContentType string `json:"contentType"`
}

func (c *HTTPClient) UploadFile(ctx context.Context, req UploadRequest) error {
	body := uploadFileRequest{
		JobID:       req.JobID,
		FileName:    req.FileName,
		FilePath:    req.FilePath,
		FileContent: base64.StdEncoding.EncodeToString(req.Content),
		ContentType: req.ContentType,
	}

	resp, err := c.postJSON(ctx, "/api/upload-file", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (c *HTTPClient) CompleteUpload(ctx context.Context, jobID string) error {
	resp, err := c.postJSON(ctx, "/api/complete-upload", map[string]string{"jobId": jobID})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (c *HTTPClient) ListJobs(ctx context.Context) ([]JobSummary, error) {
	resp, err := c.get(ctx, "/api/jobs")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var jobs []JobSummary
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("decoding job list: %w", err)
	}
	return jobs, nil
}

func (c *HTTPClient) JobStatus(ctx context.Context, jobID string) (*JobSummary, error) {
	resp, err := c.get(ctx, "/api/jobs/"+jobID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var job JobSummary
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decoding job status: %w", err)
	}
	return &job, nil
}

func (c *HTTPClient) CancelJob(ctx context.Context, jobID string) error {
	resp, err := c.postJSON(ctx, "/api/cancel-job", map[string]string{"jobId": jobID})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, "/api/ping")
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return common.ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	return c.http.Do(req)
}

func (c *HTTPClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	return c.http.Do(req)
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set(common.AuthHeaderName, "Bearer "+c.token)
	}
}

// checkStatus converts a non-2xx response into a *StatusError. The server's
// structured error payload ({"error": "..."}) is optional; its absence must
// not break the caller, so the raw body text is the fallback.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	msg := strings.TrimSpace(string(raw))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	return &StatusError{Code: resp.StatusCode, Message: msg}
}
