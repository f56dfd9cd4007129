// Package dispatch fans incoming document paths out to pipeline runs. It
// guarantees at most one active run per source path, survives panicking runs
// by quarantining their document, and journals every run so interrupted work
// is re-delivered after a restart.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/parvezamm3/receipt-agent/internal/pipeline"
)

// Runner executes one job to a terminal stage.
type Runner interface {
	Run(ctx context.Context, job *pipeline.Job) error
}

// Quarantiner is the fallback for runs that die before the pipeline can
// quarantine for itself.
type Quarantiner interface {
	Quarantine(ctx context.Context, sourcePath, reason string) (string, error)
}

// RunJournal records run outcomes for crash recovery.
type RunJournal interface {
	Begin(ctx context.Context, sourcePath string) (string, error)
	FinishFiled(ctx context.Context, id, filedName string) error
	FinishQuarantined(ctx context.Context, id, reason string) error
	ReapInFlight(ctx context.Context) ([]string, error)
}

// Dispatcher owns the run-per-document concurrency discipline.
type Dispatcher struct {
	runner      Runner
	quarantiner Quarantiner
	journal     RunJournal
	logger      *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
	wg     sync.WaitGroup
}

func New(runner Runner, quarantiner Quarantiner, journal RunJournal, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		runner:      runner,
		quarantiner: quarantiner,
		journal:     journal,
		logger:      logger,
		active:      make(map[string]struct{}),
	}
}

// Dispatch starts a run for sourcePath unless one is already active for it.
// Returns false when the path was suppressed as a duplicate.
func (d *Dispatcher) Dispatch(ctx context.Context, sourcePath string) bool {
	d.mu.Lock()
	if _, busy := d.active[sourcePath]; busy {
		d.mu.Unlock()
		d.logger.Debug("dispatch.duplicate_suppressed", "source", sourcePath)
		return false
	}
	d.active[sourcePath] = struct{}{}
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			delete(d.active, sourcePath)
			d.mu.Unlock()
		}()
		d.runOne(ctx, sourcePath)
	}()
	return true
}

// Start consumes paths until the channel closes or ctx is canceled, then
// waits for in-flight runs to finish.
func (d *Dispatcher) Start(ctx context.Context, paths <-chan string) {
	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			return
		case p, ok := <-paths:
			if !ok {
				d.wg.Wait()
				return
			}
			d.Dispatch(ctx, p)
		}
	}
}

// Recover re-delivers documents whose runs were interrupted by a crash. Paths
// whose file no longer exists are skipped; the previous run may have moved it
// before dying.
func (d *Dispatcher) Recover(ctx context.Context) error {
	paths, err := d.journal.ReapInFlight(ctx)
	if err != nil {
		return fmt.Errorf("recover interrupted runs: %w", err)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			d.logger.Warn("dispatch.recover.source_gone", "source", p)
			continue
		}
		d.logger.Info("dispatch.recover.redeliver", "source", p)
		d.Dispatch(ctx, p)
	}
	return nil
}

// Wait blocks until all in-flight runs finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) runOne(ctx context.Context, sourcePath string) {
	runID, err := d.journal.Begin(ctx, sourcePath)
	if err != nil {
		d.logger.Error("dispatch.journal_begin_failed", "source", sourcePath, "error", err)
	}

	job := pipeline.NewJob(sourcePath)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		reason := fmt.Sprintf("dispatch failure: %v", r)
		d.logger.Error("dispatch.run_panicked", "source", sourcePath, "panic", r)
		if _, qErr := d.quarantiner.Quarantine(ctx, sourcePath, reason); qErr != nil {
			d.logger.Error("dispatch.panic_quarantine_failed", "source", sourcePath, "error", qErr)
		}
		d.finish(ctx, runID, pipeline.StageQuarantined, "", reason)
	}()

	if err := d.runner.Run(ctx, job); err != nil {
		d.logger.Error("dispatch.run_failed", "source", sourcePath, "error", err)
	}
	d.finish(ctx, runID, job.Stage, job.FiledName, job.FailureReason)
}

func (d *Dispatcher) finish(ctx context.Context, runID string, stage pipeline.Stage, filedName, reason string) {
	if runID == "" {
		return
	}
	var err error
	switch stage {
	case pipeline.StageFiled:
		err = d.journal.FinishFiled(ctx, runID, filedName)
	default:
		if reason == "" {
			reason = fmt.Sprintf("run ended in %s without reason", stage)
		}
		err = d.journal.FinishQuarantined(ctx, runID, reason)
	}
	if err != nil {
		d.logger.Error("dispatch.journal_finish_failed", "run_id", runID, "error", err)
	}
}
