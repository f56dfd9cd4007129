package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parvezamm3/receipt-agent/internal/extract"
	"github.com/parvezamm3/receipt-agent/internal/fields"
	"github.com/parvezamm3/receipt-agent/internal/recognize"
	"github.com/parvezamm3/receipt-agent/internal/review"
	"github.com/parvezamm3/receipt-agent/internal/validate"
)

// ReviewGateway presents one document for human inspection.
type ReviewGateway interface {
	RequestReview(ctx context.Context, req review.Request) (review.Decision, error)
}

// DocumentFiler performs the terminal filesystem transitions.
type DocumentFiler interface {
	File(ctx context.Context, sourcePath string, rec fields.Record) (string, error)
	Quarantine(ctx context.Context, sourcePath, reason string) (string, error)
}

// Executor runs one job through all stages until it reaches a terminal state.
type Executor struct {
	Extractor  extract.PageExtractor
	Recognizer recognize.Recognizer
	Reviewer   ReviewGateway
	Filer      DocumentFiler

	AssetsDir string
	Validate  validate.Config

	logger *slog.Logger
}

func NewExecutor(ex extract.PageExtractor, rec recognize.Recognizer, rev ReviewGateway, f DocumentFiler, assetsDir string, vcfg validate.Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		Extractor:  ex,
		Recognizer: rec,
		Reviewer:   rev,
		Filer:      f,
		AssetsDir:  assetsDir,
		Validate:   vcfg,
		logger:     logger,
	}
}

// Run drives the job to a terminal stage. A non-nil error means even the
// quarantine fallback failed and the source file is still in the inbox.
func (e *Executor) Run(ctx context.Context, job *Job) error {
	for !job.Stage.Terminal() {
		if err := ctx.Err(); err != nil {
			job.FailureReason = fmt.Sprintf("run canceled: %v", err)
		} else {
			e.step(ctx, job)
		}
		prev := job.Stage
		job.Stage = next(job)
		e.logger.Debug("pipeline.transition",
			"source", job.SourcePath, "from", prev, "to", job.Stage)
	}

	if job.Stage == StageQuarantined {
		reason := job.FailureReason
		if reason == "" {
			reason = "quarantined without recorded reason"
		}
		if _, err := e.Filer.Quarantine(ctx, job.SourcePath, reason); err != nil {
			e.logger.Error("pipeline.quarantine_failed",
				"source", job.SourcePath, "reason", reason, "error", err)
			return fmt.Errorf("quarantine %s: %w", job.SourcePath, err)
		}
	}

	e.logger.Info("pipeline.done",
		"source", job.SourcePath, "stage", job.Stage, "filed_name", job.FiledName)
	return nil
}

func (e *Executor) step(ctx context.Context, job *Job) {
	switch job.Stage {
	case StageExtracting:
		e.runExtract(ctx, job)
	case StageRecognizing:
		e.runRecognize(ctx, job)
	case StageValidating:
		e.runValidate(job)
	case StageReviewing:
		e.runReview(ctx, job)
	case StageFiling:
		e.runFile(ctx, job)
	}
}

func (e *Executor) runExtract(ctx context.Context, job *Job) {
	paths, err := e.Extractor.ExtractPages(ctx, job.SourcePath, e.AssetsDir)
	if err != nil {
		job.FailureReason = fmt.Sprintf("extraction failed: %v", err)
		return
	}
	job.PageAssets = paths
}

func (e *Executor) runRecognize(ctx context.Context, job *Job) {
	out, raw, err := e.Recognizer.Recognize(ctx, job.PageAssets)
	if err != nil {
		job.FailureReason = fmt.Sprintf("recognition failed: %v", err)
		return
	}
	job.Recognized = &out
	job.RawPayload = raw
}

func (e *Executor) runValidate(job *Job) {
	if job.Recognized == nil {
		job.FailureReason = "validation failed: no recognized fields"
		return
	}
	v := validate.Validate(*job.Recognized, e.Validate)
	job.Verdict = &v
	if !v.Accepted {
		e.logger.Warn("pipeline.validation_defects",
			"source", job.SourcePath, "defects", v.Defects)
	}
}

// runReview always runs: accepted fields still get a human look before
// filing. Accepted runs present the normalized fields; defective runs present
// the raw candidate alongside the defect list.
func (e *Executor) runReview(ctx context.Context, job *Job) {
	if job.Verdict == nil {
		job.FailureReason = "review failed: no validation verdict"
		return
	}

	req := review.Request{
		SourcePath: job.SourcePath,
		PageAssets: job.PageAssets,
	}
	if job.Verdict.Accepted {
		req.Candidate = job.Verdict.Fields
	} else {
		if job.Recognized != nil {
			req.Candidate = *job.Recognized
		}
		req.Defects = job.Verdict.Defects
	}

	dec, err := e.Reviewer.RequestReview(ctx, req)
	if err != nil {
		job.FailureReason = fmt.Sprintf("review failed: %v", err)
		return
	}
	job.Decision = &dec
	if !dec.Approved {
		feedback := dec.Feedback
		if feedback == "" {
			feedback = "no feedback given"
		}
		job.FailureReason = fmt.Sprintf("review rejected: %s", feedback)
	}
}

func (e *Executor) runFile(ctx context.Context, job *Job) {
	name, err := e.Filer.File(ctx, job.SourcePath, job.approvedRecord())
	if err != nil {
		job.FailureReason = fmt.Sprintf("filing failed: %v", err)
		return
	}
	job.FiledName = name
}
