package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/camtrapkit/uploader/internal/client/checkpoint"
	"github.com/camtrapkit/uploader/internal/client/classify"
	"github.com/camtrapkit/uploader/internal/client/upload"
	"github.com/camtrapkit/uploader/internal/filex"
)

// Resume re-attaches to the most recent interrupted job, if any.
func (a *App) Resume(ctx context.Context) error {
	orch := a.newOrchestrator()

	cp, err := orch.FindResumable(ctx)
	if err != nil {
		return fmt.Errorf("checking for interrupted uploads: %w", err)
	}
	if cp == nil {
		printlnFn("nothing to resume")
		return nil
	}

	return a.resumeJob(ctx, orch, cp)
}

// resumeJob asks the user to re-confirm the directory selection and restarts
// the transfer. Asking again is deliberate: the checkpoint may be stale and
// file handles do not survive a restart.
func (a *App) resumeJob(ctx context.Context, orch *upload.Orchestrator, cp *checkpoint.Checkpoint) error {
	printlnFn(fmt.Sprintf("job %s: %d of %d file(s) uploaded, %d pending",
		cp.JobID, cp.Uploaded, len(cp.Files), len(cp.PendingFiles())))

	dir, err := GetSimpleText(a.reader, "Directory containing the original files", a.out)
	if err != nil {
		return err
	}

	handles, err := filex.CollectDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read %s; please reselect your files: %w", dir, err)
	}

	sel := classify.Partition(handles)
	if len(sel.Eligible) == 0 {
		return fmt.Errorf("%s holds no recognized images; please reselect your files", dir)
	}

	return a.runUpload(ctx, orch, cp.JobID, sel.Eligible)
}

// offerResume is the startup human-in-the-loop checkpoint: when an
// interrupted job exists it is surfaced as a prompt, never resumed silently.
func (a *App) offerResume(ctx context.Context) {
	orch := a.newOrchestrator()

	cp, err := orch.FindResumable(ctx)
	if err != nil {
		a.log.Error(ctx, "resume discovery failed", "err", err)
		return
	}
	if cp == nil {
		return
	}

	if !isTerminalFn(int(os.Stdin.Fd())) {
		printlnFn("an interrupted upload exists; type 'resume' to continue it")
		return
	}

	prompt := fmt.Sprintf("Found an interrupted upload: job %s, %d of %d file(s) done. [r]esume / [d]iscard / [s]kip",
		cp.JobID, cp.Uploaded, len(cp.Files))
	choice, err := GetSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return
	}

	switch strings.ToLower(choice) {
	case "r", "resume":
		if err := a.resumeJob(ctx, orch, cp); err != nil {
			printlnFn(fmt.Sprintf("error: %v", err))
		}
	case "d", "discard":
		if err := orch.Abandon(ctx, cp.JobID); err != nil {
			printlnFn(fmt.Sprintf("error: %v", err))
			return
		}
		printlnFn("checkpoint discarded; the job will not be offered again")
	default:
		printlnFn("leaving the job as is; type 'resume' when ready")
	}
}
