package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dgallion1/tabusync/internal/board"
	"github.com/dgallion1/tabusync/internal/config"
	"github.com/dgallion1/tabusync/internal/history"
	"github.com/dgallion1/tabusync/internal/normalize"
	"github.com/dgallion1/tabusync/internal/parser"
	"github.com/dgallion1/tabusync/internal/syncer"
)

// BoardClient is everything a job needs from the board API.
type BoardClient interface {
	board.Board
	board.Files
	board.Notifier
}

// ClientFactory builds a board client acting with a job's token.
type ClientFactory func(token string) BoardClient

// Downloader stores remote files locally for parsing.
type Downloader interface {
	Download(ctx context.Context, url, name string) (string, error)
	Remove(path string) error
}

// DocumentParser reads a registry extract from disk.
type DocumentParser interface {
	ParseFile(path string) (*parser.Document, error)
}

// AccountResolver returns the board mapping of an account.
type AccountResolver interface {
	Lookup(id string) (config.Account, error)
}

// RunRecorder keeps finished runs.
type RunRecorder interface {
	Record(ctx context.Context, r history.Run) error
}

// Worker processes a single extract job end to end.
type Worker struct {
	accounts   AccountResolver
	clients    ClientFactory
	files      Downloader
	parser     DocumentParser
	normalizer *normalize.Normalizer
	retry      syncer.Retrier
	history    RunRecorder
	log        *slog.Logger
}

// NewWorker wires a worker. history may be nil.
func NewWorker(accounts AccountResolver, clients ClientFactory, files Downloader, p DocumentParser, retry syncer.Retrier, history RunRecorder, log *slog.Logger) *Worker {
	return &Worker{
		accounts:   accounts,
		clients:    clients,
		files:      files,
		parser:     p,
		normalizer: normalize.New(log),
		retry:      retry,
		history:    history,
		log:        log,
	}
}

// jobRun carries per-job state through the phases.
type jobRun struct {
	job     *Job
	log     *slog.Logger
	client  BoardClient
	started time.Time
	path    string
	outcome syncer.Outcome
	report  *syncer.Report
	parse   []parser.Failure
	errMsg  string
}

// Process runs download, parse, sync and unit update for a job. An in-flight
// job is not cancelled by ctx; the downloaded file is always removed.
func (w *Worker) Process(ctx context.Context, job *Job) {
	ctx = context.WithoutCancel(ctx)
	r := &jobRun{
		job:     job,
		log:     w.log.With("job_id", job.ID, "account_id", job.AccountID, "item_id", job.ItemID),
		started: time.Now(),
		outcome: syncer.OutcomeFailed,
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("job panicked", "panic", p, "stack", string(debug.Stack()))
			w.fail(ctx, r, "unexpected", fmt.Errorf("unexpected failure: %v", p),
				"Internal error while processing the registry extract")
		}
		w.cleanup(r)
		w.record(ctx, r)
	}()

	r.client = w.clients(job.Token())
	w.process(ctx, r)
}

func (w *Worker) process(ctx context.Context, r *jobRun) {
	job := r.job

	acct, err := w.accounts.Lookup(job.AccountID)
	if err != nil {
		w.fail(ctx, r, "account", err, "This account is not configured for registry extract sync")
		return
	}

	// Phase 1: Download
	job.SetStatus(StatusDownloading, "downloading")
	asset, err := r.client.FileAsset(ctx, job.ItemID, job.FileColumnID)
	if err != nil {
		w.fail(ctx, r, "downloading", err, "Failed to download file: "+err.Error())
		return
	}
	job.SetFile(asset.Name)
	r.path, err = w.files.Download(ctx, asset.PublicURL, asset.Name)
	if err != nil {
		w.fail(ctx, r, "downloading", err, "Failed to download file: "+err.Error())
		return
	}
	r.log.Info("file downloaded", "asset_id", asset.ID, "filename", asset.Name)

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	parsed, err := w.parser.ParseFile(r.path)
	w.cleanup(r)
	if errors.Is(err, parser.ErrInvalidDocument) {
		w.fail(ctx, r, "parsing", err, "Invalid registry extract: block and parcel numbers were not found")
		return
	}
	if err != nil {
		w.fail(ctx, r, "parsing", err, "Failed to read the registry extract: "+err.Error())
		return
	}
	job.SetHeader(parsed.UnitNumber, parsed.BlockNumber)
	doc := w.normalizer.Document(parsed)
	r.parse = doc.Failures

	// Phase 3: Sync
	job.SetStatus(StatusSyncing, "syncing")
	exec := syncer.NewExecutor(r.client, w.retry, r.log)
	rep, syncErr := exec.Run(ctx, syncer.Input{Account: acct, UnitItemID: job.ItemID, Document: doc})
	if syncErr != nil {
		r.log.Error("sync failed", "error", syncErr)
		job.AddError(fmt.Sprintf("sync: %s", syncErr))
		r.errMsg = syncErr.Error()
	} else {
		r.report = rep
		job.SetReport(rep)
	}
	r.outcome = syncer.OutcomeOf(r.parse, rep)

	notes := syncer.TechnicalNotes(r.parse, rep)
	if syncErr != nil {
		notes = joinLines(notes, "sync: "+syncErr.Error())
	}
	for _, f := range r.parse {
		job.AddError(f.String())
	}
	if rep != nil {
		for _, f := range rep.Failures {
			job.AddError(f)
		}
	}

	// Phase 4: Parent unit
	err = exec.UpdateUnit(ctx, acct, job.ItemID, syncer.UnitUpdate{
		BlockNumber: doc.BlockNumber,
		UnitNumber:  doc.UnitNumber,
		Outcome:     r.outcome,
		Notes:       notes,
	})
	if err != nil {
		r.log.Error("unit update failed", "error", err)
		job.AddError(fmt.Sprintf("unit update: %s", err))
		if r.outcome == syncer.OutcomeSuccess {
			r.outcome = syncer.OutcomePartial
		}
	}

	switch r.outcome {
	case syncer.OutcomeSuccess:
		job.SetStatus(StatusCompleted, "done")
	case syncer.OutcomePartial:
		job.SetStatus(StatusPartial, "done")
		w.notify(ctx, r, "Registry extract synced with issues; see the technical notes on the item")
	default:
		job.SetStatus(StatusFailed, "syncing")
		w.notify(ctx, r, "Registry extract sync failed; see the technical notes on the item")
	}
}

// fail marks the job failed in phase and tells the user.
func (w *Worker) fail(ctx context.Context, r *jobRun, phase string, err error, message string) {
	r.log.Error("job failed", "phase", phase, "error", err)
	r.job.AddError(fmt.Sprintf("%s: %s", phase, err))
	r.job.SetStatus(StatusFailed, phase)
	r.outcome = syncer.OutcomeFailed
	r.errMsg = err.Error()
	w.notify(ctx, r, message)
}

func (w *Worker) notify(ctx context.Context, r *jobRun, text string) {
	if r.client == nil || r.job.UserID == "" {
		return
	}
	if err := r.client.Notify(ctx, r.job.UserID, r.job.ItemID, text); err != nil {
		r.log.Warn("notification failed", "error", err)
	}
}

func (w *Worker) cleanup(r *jobRun) {
	if r.path == "" {
		return
	}
	if err := w.files.Remove(r.path); err != nil {
		r.log.Warn("failed to remove downloaded file", "path", r.path, "error", err)
		return
	}
	r.path = ""
}

func (w *Worker) record(ctx context.Context, r *jobRun) {
	if w.history == nil {
		return
	}
	snap := r.job.Snapshot()
	run := history.Run{
		JobID:       snap.ID,
		AccountID:   snap.AccountID,
		ItemID:      snap.ItemID,
		UserID:      snap.UserID,
		Status:      string(snap.Status),
		UnitNumber:  snap.UnitNumber,
		BlockNumber: snap.BlockNumber,
		Failures:    len(r.parse),
		Notes:       syncer.TechnicalNotes(r.parse, r.report),
		Error:       r.errMsg,
		StartedAt:   r.started,
		FinishedAt:  time.Now(),
	}
	if rep := r.report; rep != nil {
		run.SubunitsCreated = rep.Subunits.Created
		run.SubunitsUpdated = rep.Subunits.Updated
		run.SubunitsDeleted = rep.Subunits.Deleted
		run.OwnersCreated = rep.Owners.Created
		run.OwnersUpdated = rep.Owners.Updated
		run.OwnersDeleted = rep.Owners.Deleted
		run.Failures += len(rep.Failures) + len(rep.Skipped)
	}
	if err := w.history.Record(ctx, run); err != nil {
		r.log.Error("history write failed", "error", err)
	}
}

func joinLines(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n" + b
}
