package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camtrapkit/uploader/internal/client/api"
	"github.com/camtrapkit/uploader/internal/client/checkpoint"
	"github.com/camtrapkit/uploader/internal/client/classify"
	"github.com/camtrapkit/uploader/internal/common"
	"github.com/camtrapkit/uploader/internal/filex"
	"github.com/camtrapkit/uploader/internal/logging"
)

// Outcome summarizes one StartOrResumeUpload run.
type Outcome struct {
	Result

	// Remaining is the number of files still pending after the run, per the
	// durable checkpoint. The job stays resumable while Remaining > 0.
	Remaining int
}

// Orchestrator is the top-level controller for one job: it decides pending
// work from the checkpoint store, drives the scheduler, aborts on excessive
// failure, and walks the job state machine. One Orchestrator serves one job;
// a fresh job needs a fresh instance.
type Orchestrator struct {
	api      api.Client
	store    *checkpoint.Store
	uploader *Uploader
	sched    *Scheduler
	machine  *Machine
	log      logging.Logger

	concurrency int
}

func NewOrchestrator(client api.Client, store *checkpoint.Store, log logging.Logger) *Orchestrator {
	u := NewUploader(client, log)
	return &Orchestrator{
		api:      client,
		store:    store,
		uploader: u,
		sched:    NewScheduler(u, store, log),
		machine:  NewMachine(),
		log:      log,
	}
}

// SetConcurrency overrides the automatic wave size. 0 restores auto.
func (o *Orchestrator) SetConcurrency(n int) { o.concurrency = n }

// SetMaxFileSize overrides the per-file size threshold.
func (o *Orchestrator) SetMaxFileSize(limit int64) { o.uploader.WithMaxFileSize(limit) }

// SetProgressFunc registers a callback invoked after every durable progress
// change.
func (o *Orchestrator) SetProgressFunc(fn func(checkpoint.Progress)) { o.sched.OnProgress = fn }

// State returns the job's lifecycle state.
func (o *Orchestrator) State() State { return o.machine.Current() }

// ErrorCause returns the recorded cause when the job is in the Error state.
func (o *Orchestrator) ErrorCause() string { return o.machine.Cause() }

// CreateJob classifies the selection, registers the job with the backend, and
// writes the initial checkpoint. The machine only moves past CreatingJob once
// the checkpoint is durably saved.
func (o *Orchestrator) CreateJob(ctx context.Context, params map[string]any, files []filex.Handle) (*api.JobHandle, error) {
	sel := classify.Partition(files)
	if len(sel.Eligible) == 0 {
		return nil, common.ErrNoEligibleFiles
	}

	if err := o.machine.Transition(StateCreatingJob); err != nil {
		return nil, err
	}

	handle, err := o.api.CreateJob(ctx, params, len(sel.Eligible), sel.TopLevelFolder)
	if err != nil {
		o.machine.Fail(fmt.Sprintf("job creation failed: %v", err))
		return nil, fmt.Errorf("creating job: %w", err)
	}

	cp := &checkpoint.Checkpoint{
		JobID:     handle.JobID,
		Status:    string(StateUploading),
		Timestamp: time.Now().UTC(),
		FormData:  params,
		NumImages: len(sel.Eligible),
	}
	for _, h := range sel.Eligible {
		cp.Files = append(cp.Files, fileRecord(h, sel.TopLevelFolder))
	}

	if err := o.store.Save(ctx, cp); err != nil {
		o.machine.Fail(fmt.Sprintf("checkpoint write failed: %v", err))
		return nil, fmt.Errorf("saving checkpoint for job %s: %w", handle.JobID, err)
	}

	if err := o.machine.Transition(StateUploading); err != nil {
		return nil, err
	}

	o.log.Info(ctx, "job created",
		"job", handle.JobID, "files", len(sel.Eligible), "ignored", len(sel.Ignored), "folder", sel.TopLevelFolder)

	return handle, nil
}

func fileRecord(h filex.Handle, topLevelFolder string) checkpoint.FileRecord {
	rec := checkpoint.FileRecord{
		Name:   h.Name,
		Size:   h.Size,
		Type:   h.MIMEType,
		Path:   h.RelativePath,
		Status: checkpoint.StatusPending,
	}
	if topLevelFolder != "" {
		rec.RelativePath = strings.TrimPrefix(h.RelativePath, topLevelFolder+"/")
	}
	return rec
}

// StartOrResumeUpload reconciles the checkpoint's pending files against the
// freshly supplied selection and transfers them in waves. Pending files absent
// from the selection are left pending; the expected file set never silently
// shrinks. The run keeps the job in Uploading unless the failure budget is
// exhausted, in which case the machine lands in Error and the error wraps
// common.ErrTooManyFailures.
func (o *Orchestrator) StartOrResumeUpload(ctx context.Context, jobID string, available []filex.Handle) (*Outcome, error) {
	cp, err := o.store.Load(ctx, jobID)
	if err != nil {
		return nil, err
	}

	// Resume lands directly in Uploading; the job already exists.
	if o.machine.Current() == StateIdle {
		if err := o.machine.Transition(StateUploading); err != nil {
			return nil, err
		}
	}
	if got := o.machine.Current(); got != StateUploading {
		return nil, &TransitionError{From: got, To: StateUploading}
	}

	pending, err := o.reconcile(ctx, cp, available)
	if err != nil {
		return nil, err
	}

	res, err := o.sched.Run(ctx, Batch{
		JobID:       jobID,
		Pending:     pending,
		Concurrency: o.concurrency,
		TotalFiles:  len(cp.Files),
	})
	if err != nil {
		return nil, err
	}

	if res.Aborted {
		cause := fmt.Sprintf("aborted after %d failed uploads", res.Failed)
		o.machine.Fail(cause)
		return &Outcome{Result: res}, fmt.Errorf("%s: %w", cause, common.ErrTooManyFailures)
	}

	// Remaining always comes from the durable record, never from this run's
	// in-memory accounting.
	after, err := o.store.Load(ctx, jobID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Result: res, Remaining: len(after.PendingFiles())}
	o.log.Info(ctx, "upload run finished",
		"job", jobID, "uploaded", res.Uploaded, "failed", res.Failed, "remaining", out.Remaining)

	return out, nil
}

// reconcile maps the checkpoint's pending records onto the supplied handles
// using the resolver precedence. When nothing matches a non-empty selection,
// the whole selection becomes the pending set: new records are appended and
// everything supplied is transferred. That fallback is deliberate and loud,
// not a silent recovery.
func (o *Orchestrator) reconcile(ctx context.Context, cp *checkpoint.Checkpoint, available []filex.Handle) ([]filex.Handle, error) {
	pendingRecords := cp.PendingFiles()

	var matched []filex.Handle
	taken := make(map[int]bool)
	for _, h := range available {
		identity := h.RelativePath
		if identity == "" {
			identity = h.Name
		}
		i := checkpoint.ResolveFile(pendingRecords, identity)
		if i < 0 || taken[i] {
			continue
		}
		taken[i] = true
		matched = append(matched, h)
	}

	if unmatched := len(pendingRecords) - len(matched); unmatched > 0 {
		o.log.Warn(ctx, "some pending files are absent from the selection and stay pending",
			"job", cp.JobID, "unmatched", unmatched)
	}

	if len(matched) > 0 || len(available) == 0 {
		return matched, nil
	}

	// Zero overlap with the checkpoint: fall back to the full selection.
	o.log.Warn(ctx, "selection shares no files with the checkpoint, uploading the entire new selection",
		"job", cp.JobID, "files", len(available))

	folder := ""
	if len(cp.Files) > 0 {
		folder = firstPathSegment(cp.Files[0].Path)
	}
	for _, h := range available {
		cp.Files = append(cp.Files, fileRecord(h, folder))
	}
	cp.NumImages = len(cp.Files)
	if err := o.store.Save(ctx, cp); err != nil {
		return nil, fmt.Errorf("saving checkpoint for job %s: %w", cp.JobID, err)
	}

	return available, nil
}

func firstPathSegment(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}

// SubmitForProcessing tells the backend the upload is complete and erases the
// checkpoint. It refuses to run while files are still pending.
func (o *Orchestrator) SubmitForProcessing(ctx context.Context, jobID string) error {
	cp, err := o.store.Load(ctx, jobID)
	if err != nil {
		return err
	}

	if n := len(cp.PendingFiles()); n > 0 {
		return fmt.Errorf("%d of %d: %w", n, len(cp.Files), common.ErrFilesStillPending)
	}

	if err := o.machine.Transition(StateCompleting); err != nil {
		return err
	}

	if err := o.api.CompleteUpload(ctx, jobID); err != nil {
		o.machine.Fail(fmt.Sprintf("completion call failed: %v", err))
		return fmt.Errorf("completing job %s: %w", jobID, err)
	}

	if err := o.machine.Transition(StateComplete); err != nil {
		return err
	}

	if err := o.store.Delete(ctx, jobID); err != nil {
		o.log.Warn(ctx, "job complete but checkpoint cleanup failed", "job", jobID, "err", err)
	}

	o.log.Info(ctx, "job submitted for processing", "job", jobID)
	return nil
}

// FindResumable returns the sole resume candidate: the most recent checkpoint
// with pending files, or nil when there is none. Surfacing it to the user
// instead of resuming silently is deliberate; the directory selection must be
// re-confirmed.
func (o *Orchestrator) FindResumable(ctx context.Context) (*checkpoint.Checkpoint, error) {
	list, err := o.store.ListIncomplete(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// Abandon erases the checkpoint for jobID at the user's explicit request.
func (o *Orchestrator) Abandon(ctx context.Context, jobID string) error {
	return o.store.Delete(ctx, jobID)
}
