package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camtrapkit/uploader/internal/common"
)

func TestCreateJob_ParsesBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/create-job", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(3), body["fileCount"])
		assert.Equal(t, "survey", body["topLevelFolderName"])
		assert.Equal(t, map[string]any{"model": "v5"}, body["processingParameters"])

		w.Header().Set(common.UploadLocatorHeaderName, "https://store.example/up?sig=abc")
		w.Header().Set(common.BulkCommandHeaderName, "bulkcopy ./dir https://store.example/up?sig=abc")
		_ = json.NewEncoder(w).Encode(map[string]string{"jobId": "job-7"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok-1", time.Second)
	h, err := c.CreateJob(context.Background(), map[string]any{"model": "v5"}, 3, "survey")
	require.NoError(t, err)

	assert.Equal(t, "job-7", h.JobID)
	assert.Equal(t, "https://store.example/up?sig=abc", h.Locator)
	assert.Contains(t, h.BulkCommand, "bulkcopy")
}

func TestCreateJob_MissingJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", time.Second)
	_, err := c.CreateJob(context.Background(), nil, 1, "")
	require.Error(t, err)
}

func TestUploadFile_EncodesContent(t *testing.T) {
	var got uploadFileRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/upload-file", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", time.Second)
	err := c.UploadFile(context.Background(), UploadRequest{
		JobID:       "job-1",
		FileName:    "a.jpg",
		FilePath:    "survey/a.jpg",
		ContentType: "image/jpeg",
		Content:     []byte{0xFF, 0xD8, 0xFF},
	})
	require.NoError(t, err)

	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, "survey/a.jpg", got.FilePath)
	assert.Equal(t, "image/jpeg", got.ContentType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF}), got.FileContent)
}

func TestUploadFile_StructuredErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid base64 content"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", time.Second)
	err := c.UploadFile(context.Background(), UploadRequest{JobID: "j", FileName: "a.jpg"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "invalid base64 content", se.Message)
	assert.False(t, se.Transient())
}

func TestUploadFile_RawBodyFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream blew up"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", time.Second)
	err := c.UploadFile(context.Background(), UploadRequest{JobID: "j", FileName: "a.jpg"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "upstream blew up", se.Message)
	assert.True(t, se.Transient())
}

func TestStatusError_TransientClassification(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{400, false},
		{401, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tc := range tests {
		se := &StatusError{Code: tc.code}
		assert.Equal(t, tc.want, se.Transient(), "code %d", tc.code)
	}
}

func TestListJobsAndStatusAndCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/jobs":
			_ = json.NewEncoder(w).Encode([]JobSummary{{JobID: "j1", Status: "running"}})
		case "/api/jobs/j1":
			_ = json.NewEncoder(w).Encode(JobSummary{JobID: "j1", Status: "running", NumImages: 12})
		case "/api/cancel-job":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewHTTPClient(srv.URL, "", time.Second)

	jobs, err := c.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].JobID)

	st, err := c.JobStatus(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, 12, st.NumImages)

	require.NoError(t, c.CancelJob(ctx, "j1"))
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	c := NewHTTPClient(srv.URL, "", time.Second)
	require.NoError(t, c.Ping(context.Background()))

	srv.Close()
	err := c.Ping(context.Background())
	require.ErrorIs(t, err, common.ErrUnavailable)
}
