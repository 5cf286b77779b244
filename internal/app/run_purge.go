package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dev-tams/deltapurge/internal/config"
	"github.com/dev-tams/deltapurge/internal/delta"
	"github.com/dev-tams/deltapurge/internal/logging"
	"github.com/dev-tams/deltapurge/internal/metrics"
	"github.com/dev-tams/deltapurge/internal/notify"
	"github.com/dev-tams/deltapurge/internal/storage"
)

const notificationTimeout = 5 * time.Second

// CandidateProvider lists root-relative paths that are safe to delete.
type CandidateProvider interface {
	ListCandidates(ctx context.Context, retentionHours int64) ([]string, error)
}

// Deps are the collaborators of a run. Stdout receives the dry-run report.
type Deps struct {
	Provider CandidateProvider
	Deleter  BulkDeleter
	Stdout   io.Writer
	Logger   *slog.Logger
	Metrics  *metrics.PurgeMetrics
	Notifier *notify.Dispatcher
}

type RunResult struct {
	RunID      string
	Table      string
	DryRun     bool
	Candidates []string
	Chunks     int
	Report     *DispatchReport
	Duration   time.Duration
}

func (r *RunResult) deleted() int {
	if r.Report == nil {
		return 0
	}
	return r.Report.KeysDeleted
}

// Run builds the storage backend, candidate provider, metrics and
// notification routes from cfg and executes one purge.
func Run(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) (*RunResult, error) {
	loc, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	store, err := storage.FromConfig(ctx, cfg, loc)
	if err != nil {
		return nil, err
	}

	dispatcher, err := notify.NewDispatcher(cfg.Notifications)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "notifications", Reason: "invalid route", Err: err}
	}

	return RunPurge(ctx, cfg, Deps{
		Provider: &delta.Provider{Store: store, Root: loc.Prefix()},
		Deleter:  store,
		Stdout:   stdout,
		Logger:   logger,
		Metrics:  metrics.New(),
		Notifier: dispatcher,
	})
}

// RunPurge lists candidates and either reports them (dry run) or deletes
// them in chunks. Configuration, table access and retention errors are
// returned before any delete request is sent.
func RunPurge(ctx context.Context, cfg *config.Config, deps Deps) (*RunResult, error) {
	loc, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	res := &RunResult{
		RunID:  uuid.NewString(),
		Table:  loc.String(),
		DryRun: cfg.DryRun,
	}

	log := deps.Logger
	if log == nil {
		log = logging.FromContext(ctx)
	}
	log = log.With("run_id", res.RunID, "table", res.Table)
	ctx = logging.WithLogger(ctx, log)

	runErr := runPurge(ctx, cfg, loc, deps, log, res)
	res.Duration = time.Since(started)

	deps.Metrics.RecordRun(runErr)
	if err := deps.Metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warn("write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
	}
	notifyResult(ctx, deps.Notifier, res, runErr, log)

	return res, runErr
}

func runPurge(ctx context.Context, cfg *config.Config, loc config.TableLocation, deps Deps, log *slog.Logger, res *RunResult) error {
	candidates, err := deps.Provider.ListCandidates(ctx, cfg.RetentionPeriodHours)
	if err != nil {
		return err
	}
	res.Candidates = candidates
	deps.Metrics.RecordCandidates(len(candidates))
	log.Info("candidates listed", "count", len(candidates), "retention_hours", cfg.RetentionPeriodHours, "dry_run", cfg.DryRun)

	if cfg.DryRun {
		out := deps.Stdout
		if out == nil {
			out = io.Discard
		}
		return WriteReport(out, candidates)
	}

	keys, err := MaterializeKeys(loc, candidates)
	if err != nil {
		return err
	}

	chunks, err := Partition(keys, cfg.ChunkSize)
	if err != nil {
		return err
	}
	res.Chunks = len(chunks)

	d := &Dispatcher{
		Deleter:      deps.Deleter,
		Parallelism:  cfg.Parallelism,
		ChunkTimeout: cfg.ChunkTimeout,
		Metrics:      deps.Metrics,
		Logger:       log,
	}
	report, err := d.Dispatch(ctx, chunks)
	if err != nil {
		return err
	}
	res.Report = report

	log.Info("purge finished",
		"chunks", len(chunks),
		"succeeded", report.Succeeded,
		"failed", len(report.Failed),
		"keys_deleted", report.KeysDeleted,
	)

	if len(report.Failed) > 0 {
		return &PurgeError{Failed: report.Failed, Succeeded: report.Succeeded}
	}
	return nil
}

func notifyResult(ctx context.Context, dispatcher *notify.Dispatcher, res *RunResult, runErr error, log *slog.Logger) {
	event := notify.Event{
		RunID:      res.RunID,
		Table:      res.Table,
		Status:     notify.StatusSuccess,
		DryRun:     res.DryRun,
		Candidates: len(res.Candidates),
		Deleted:    res.deleted(),
		Duration:   res.Duration.Round(time.Millisecond).String(),
	}
	if runErr != nil {
		event.Status = notify.StatusFailure
		event.Error = runErr.Error()
		var pe *PurgeError
		if errors.As(runErr, &pe) {
			event.FailedChunks = pe.FailedChunks()
		}
	}

	notifyCtx, cancel := notificationContext(ctx)
	defer cancel()

	if err := dispatcher.Notify(notifyCtx, event); err != nil {
		log.Warn("notification failed", "status", event.Status, "error", err)
	}
}

func notificationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), notificationTimeout)
	}
	return context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
}
