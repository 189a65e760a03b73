package cli

import (
	"context"
	"fmt"
)

// Jobs lists the caller's jobs on the backend.
func (a *App) Jobs(ctx context.Context) error {
	jobs, err := a.api.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("listing jobs: %w", err)
	}
	if len(jobs) == 0 {
		printlnFn("no jobs found")
		return nil
	}

	for _, j := range jobs {
		printlnFn(fmt.Sprintf("%s  %-12s  %d image(s)  %s", j.JobID, j.Status, j.NumImages, j.Message))
	}
	return nil
}

// Status prints one job's backend state.
func (a *App) Status(ctx context.Context, jobID string) error {
	j, err := a.api.JobStatus(ctx, jobID)
	if err != nil {
		return fmt.Errorf("fetching status of %s: %w", jobID, err)
	}

	printlnFn(fmt.Sprintf("job %s: %s (%d image(s))", j.JobID, j.Status, j.NumImages))
	if j.Message != "" {
		printlnFn("  " + j.Message)
	}
	return nil
}

// Cancel requests cancellation of a job on the backend and drops any local
// checkpoint for it.
func (a *App) Cancel(ctx context.Context, jobID string) error {
	if err := a.api.CancelJob(ctx, jobID); err != nil {
		return fmt.Errorf("cancelling %s: %w", jobID, err)
	}

	if err := a.store.Delete(ctx, jobID); err != nil {
		a.log.Warn(ctx, "job cancelled but local checkpoint cleanup failed", "job", jobID, "err", err)
	}

	printlnFn("job " + jobID + " cancelled")
	return nil
}
