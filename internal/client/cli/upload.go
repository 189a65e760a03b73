package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/camtrapkit/uploader/internal/client/classify"
	"github.com/camtrapkit/uploader/internal/client/upload"
	"github.com/camtrapkit/uploader/internal/common"
	"github.com/camtrapkit/uploader/internal/filex"
)

// Upload runs the full submission flow for one directory: enumerate,
// classify, create the job, transfer in waves, and submit for processing.
func (a *App) Upload(ctx context.Context, args []string) error {
	dir := args[0]
	params := parseParams(args[1:])

	handles, err := filex.CollectDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", dir, err)
	}

	sel := classify.Partition(handles)
	if len(sel.Eligible) == 0 {
		return fmt.Errorf("%s: %w", dir, common.ErrNoEligibleFiles)
	}
	printlnFn(fmt.Sprintf("%d image(s) selected, %d file(s) ignored, %.1f MB total",
		len(sel.Eligible), len(sel.Ignored), float64(sel.TotalSize)/(1<<20)))

	orch := a.newOrchestrator()

	handle, err := orch.CreateJob(ctx, params, handles)
	if err != nil {
		return fmt.Errorf("could not start the job: %w", err)
	}

	printlnFn("job created: " + handle.JobID)
	if handle.Locator != "" {
		printlnFn("for very large datasets you can copy directly to storage instead:")
		printlnFn("  locator: " + handle.Locator)
		if handle.BulkCommand != "" {
			printlnFn("  command: " + handle.BulkCommand)
		}
	}

	return a.runUpload(ctx, orch, handle.JobID, sel.Eligible)
}

// runUpload drives the wave scheduler and, when everything made it, submits
// the job. Raw transport errors never reach the user verbatim: outcomes are
// reported as how many files remain pending and whether resuming will help.
func (a *App) runUpload(ctx context.Context, orch *upload.Orchestrator, jobID string, files []filex.Handle) error {
	out, err := orch.StartOrResumeUpload(ctx, jobID, files)
	if err != nil {
		if errors.Is(err, common.ErrTooManyFailures) {
			return fmt.Errorf("upload aborted after %d failed transfers; check connectivity and credentials, then run 'resume' to pick up where you left off", out.Failed)
		}
		return fmt.Errorf("upload could not run: %w", err)
	}

	if out.Remaining > 0 {
		printlnFn(fmt.Sprintf("%d file(s) uploaded, %d still pending; run 'resume' to finish the job later",
			out.Uploaded, out.Remaining))
		return nil
	}

	if err := orch.SubmitForProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("all files are uploaded but submission failed; run 'resume' to retry: %w", err)
	}

	printlnFn("all files uploaded; job " + jobID + " submitted for processing")
	return nil
}

// parseParams turns trailing "key=value" arguments into the opaque
// processing-parameter map passed through to the backend.
func parseParams(args []string) map[string]any {
	if len(args) == 0 {
		return nil
	}
	params := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, found := strings.Cut(arg, "=")
		if !found || k == "" {
			continue
		}
		params[k] = v
	}
	return params
}
