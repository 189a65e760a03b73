package upload

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/camtrapkit/uploader/internal/client/checkpoint"
	"github.com/camtrapkit/uploader/internal/filex"
	"github.com/camtrapkit/uploader/internal/logging"
)

const (
	// DefaultConcurrency is the number of parallel transfers per wave.
	DefaultConcurrency = 5

	// reducedConcurrency applies to large pending sets, trading throughput
	// for connection stability on constrained server resources.
	reducedConcurrency    = 3
	largePendingThreshold = 100
)

// ConcurrencyFor returns the wave size for a pending set of the given size.
func ConcurrencyFor(pending int) int {
	if pending > largePendingThreshold {
		return reducedConcurrency
	}
	return DefaultConcurrency
}

// FailureThreshold returns the per-job failure budget: 5% of the pending set
// at start, with a floor of 5. Crossing it stops the job early so a
// systemically failing transfer path (expired credentials, dead endpoint)
// does not burn through the whole set.
func FailureThreshold(totalPending int) int {
	pct := int(math.Ceil(0.05 * float64(totalPending)))
	if pct < 5 {
		return 5
	}
	return pct
}

// transferer sends one file. *Uploader is the production implementation.
type transferer interface {
	Upload(ctx context.Context, jobID string, h filex.Handle) error
}

// Batch is one scheduler run over a job's pending files.
type Batch struct {
	JobID   string
	Pending []filex.Handle

	// Concurrency caps simultaneous transfers; 0 selects ConcurrencyFor.
	Concurrency int

	// TotalFiles is the job's full file count (pending + complete), used
	// for progress reporting.
	TotalFiles int
}

// Result aggregates a scheduler run.
type Result struct {
	Uploaded int
	Failed   int

	// Aborted is set when the failure budget was exhausted and remaining
	// waves were not scheduled.
	Aborted bool
}

// AllSuccessful reports whether every pending file was transferred.
func (r Result) AllSuccessful() bool {
	return r.Failed == 0 && !r.Aborted
}

// Scheduler partitions pending work into consecutive bounded-concurrency
// waves. Each wave's transfers run in parallel and the scheduler waits for
// the whole wave to settle before starting the next: no work stealing across
// waves, so peak concurrency is deterministic.
type Scheduler struct {
	transfer transferer
	store    *checkpoint.Store
	log      logging.Logger

	// OnProgress, when set, is invoked after every durable status change
	// with a view recomputed from the checkpoint.
	OnProgress func(checkpoint.Progress)
}

func NewScheduler(transfer transferer, store *checkpoint.Store, log logging.Logger) *Scheduler {
	return &Scheduler{transfer: transfer, store: store, log: log}
}

type waveOutcome struct {
	handle filex.Handle
	err    error
}

// Run executes the batch. Successful transfers update the checkpoint as they
// land, so a crash mid-run loses at most the in-flight wave. Run stops
// scheduling new waves once accumulated failures reach the failure threshold;
// transfers already in flight are allowed to finish.
func (s *Scheduler) Run(ctx context.Context, b Batch) (Result, error) {
	var res Result

	total := len(b.Pending)
	if total == 0 {
		return res, nil
	}

	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = ConcurrencyFor(total)
	}
	threshold := FailureThreshold(total)

	s.log.Info(ctx, "starting batches",
		"job", b.JobID, "pending", total, "concurrency", concurrency, "failure_threshold", threshold)

	var active atomic.Int32

	for start := 0; start < total; start += concurrency {
		end := min(start+concurrency, total)
		wave := b.Pending[start:end]

		outcomes := make(chan waveOutcome, len(wave))

		g, gctx := errgroup.WithContext(ctx)
		for _, h := range wave {
			h := h
			g.Go(func() error {
				active.Add(1)
				defer active.Add(-1)

				outcomes <- waveOutcome{handle: h, err: s.transfer.Upload(gctx, b.JobID, h)}
				return nil
			})
		}

		// Single collector goroutine: checkpoint writes stay strictly
		// serialized per job while transfers overlap.
		collectorDone := make(chan struct{})
		go func() {
			defer close(collectorDone)
			for o := range outcomes {
				s.settle(ctx, b, o, &res, &active)
			}
		}()

		_ = g.Wait()
		close(outcomes)
		<-collectorDone

		if err := ctx.Err(); err != nil {
			return res, err
		}

		if res.Failed >= threshold {
			res.Aborted = true
			s.log.Error(ctx, "failure threshold reached, aborting remaining batches",
				"job", b.JobID, "failed", res.Failed, "threshold", threshold)
			break
		}
	}

	return res, nil
}

func (s *Scheduler) settle(ctx context.Context, b Batch, o waveOutcome, res *Result, active *atomic.Int32) {
	if o.err != nil {
		res.Failed++
		s.log.Warn(ctx, "file failed, left pending for a future resume",
			"job", b.JobID, "file", o.handle.Name, "err", o.err)
		return
	}

	identity := o.handle.RelativePath
	if identity == "" {
		identity = o.handle.Name
	}

	uploaded, err := s.store.UpdateFileStatus(ctx, b.JobID, identity, checkpoint.StatusComplete)
	if err != nil {
		res.Failed++
		s.log.Error(ctx, "checkpoint write failed", "job", b.JobID, "file", o.handle.Name, "err", err)
		return
	}

	res.Uploaded++

	if s.OnProgress != nil {
		p := checkpoint.Progress{
			Total:    b.TotalFiles,
			Uploaded: uploaded,
			Active:   int(active.Load()),
		}
		if p.Total > 0 {
			p.Percentage = int(math.Round(float64(p.Uploaded) / float64(p.Total) * 100))
		}
		s.OnProgress(p)
	}
}
