// Package cli is the interactive front end of the uploader: a small REPL that
// drives the upload orchestrator and the job-status surface.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/camtrapkit/uploader/internal/client/api"
	"github.com/camtrapkit/uploader/internal/client/checkpoint"
	"github.com/camtrapkit/uploader/internal/client/config"
	"github.com/camtrapkit/uploader/internal/client/kv"
	"github.com/camtrapkit/uploader/internal/client/upload"
	"github.com/camtrapkit/uploader/internal/filex"
	"github.com/camtrapkit/uploader/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config *config.Config
	log    logging.Logger
	api    api.Client
	db     *kv.SQLiteStore
	store  *checkpoint.Store
	reader *bufio.Reader
	out    *os.File
}

// stateDirName holds local state (checkpoint database) when the configured
// database path is a bare file name.
const stateDirName = ".uploader"

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	dbPath := cfg.DatabasePath
	if !filepath.IsAbs(dbPath) && filepath.Dir(dbPath) == "." {
		dir, err := filex.EnsureSubDir(stateDirName)
		if err != nil {
			return nil, fmt.Errorf("initializing local state: %w", err)
		}
		dbPath = filepath.Join(dir, dbPath)
	}

	db, err := kv.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing local state: %w", err)
	}

	log := logging.NewTextLogger(os.Stderr, slog.LevelInfo).With("run", uuid.NewString())

	apiClient := api.NewHTTPClient(cfg.ServerBaseURL, cfg.AuthToken, cfg.RequestTimeout)

	return &App{
		config: cfg,
		log:    log,
		api:    apiClient,
		db:     db,
		store:  checkpoint.NewStore(db),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// newOrchestrator builds a fresh orchestrator. One instance serves one job,
// so every upload or resume run starts with its own state machine.
func (a *App) newOrchestrator() *upload.Orchestrator {
	o := upload.NewOrchestrator(a.api, a.store, a.log)
	if a.config.Concurrency > 0 {
		o.SetConcurrency(a.config.Concurrency)
	}
	o.SetMaxFileSize(a.config.MaxFileSizeBytes())
	o.SetProgressFunc(a.printProgress)
	return o
}

func (a *App) printProgress(p checkpoint.Progress) {
	printlnFn(fmt.Sprintf("  %d/%d uploaded (%d%%), %d in flight", p.Uploaded, p.Total, p.Percentage, p.Active))
}

// Run greets the user, offers to resume any interrupted job, then hands
// control to the REPL.
func (a *App) Run(ctx context.Context) {
	printlnFn("Camera-trap batch uploader (type 'help' for commands)")

	if err := a.api.Ping(ctx); err != nil {
		printlnFn("warning: backend is not reachable right now; uploads will fail until it is")
		a.log.Warn(ctx, "startup ping failed", "err", err)
	}

	a.offerResume(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, scanner)
}
