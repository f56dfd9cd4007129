// Package pipeline drives one document run through its stages: page
// extraction, field recognition, validation, human review, and filing. The
// stage order is fixed and review is unconditional; validation only shapes
// what the reviewer sees.
package pipeline

import (
	"github.com/parvezamm3/receipt-agent/internal/fields"
	"github.com/parvezamm3/receipt-agent/internal/review"
	"github.com/parvezamm3/receipt-agent/internal/validate"
)

// Stage identifies where a run currently is.
type Stage string

const (
	StageExtracting  Stage = "EXTRACTING"
	StageRecognizing Stage = "RECOGNIZING"
	StageValidating  Stage = "VALIDATING"
	StageReviewing   Stage = "REVIEWING"
	StageFiling      Stage = "FILING"
	StageFiled       Stage = "FILED"
	StageQuarantined Stage = "QUARANTINED"
)

// Terminal reports whether the run is finished.
func (s Stage) Terminal() bool {
	return s == StageFiled || s == StageQuarantined
}

// Job is the mutable state of one document run. Stage handlers fill in their
// outputs; the transition function only reads.
type Job struct {
	SourcePath string
	Stage      Stage

	PageAssets []string
	Recognized *fields.ReceiptFields
	RawPayload []byte
	Verdict    *validate.Verdict
	Decision   *review.Decision

	FiledName     string
	FailureReason string
}

// NewJob starts a run at the first stage.
func NewJob(sourcePath string) *Job {
	return &Job{SourcePath: sourcePath, Stage: StageExtracting}
}

// approvedRecord returns the fields to file. The reviewer's edits win over
// the validator's normalization; both paths end in reviewed data.
func (j *Job) approvedRecord() fields.Record {
	if j.Decision != nil && j.Decision.Approved {
		return fields.Record{ReceiptFields: j.Decision.Fields}
	}
	if j.Verdict != nil && j.Verdict.Accepted {
		return fields.Record{ReceiptFields: j.Verdict.Fields}
	}
	return fields.Record{}
}

// next is the pure stage transition. Any recorded failure routes to
// quarantine; otherwise the order is fixed, and review always follows
// validation whatever the verdict was.
func next(j *Job) Stage {
	if j.FailureReason != "" {
		return StageQuarantined
	}
	switch j.Stage {
	case StageExtracting:
		return StageRecognizing
	case StageRecognizing:
		return StageValidating
	case StageValidating:
		return StageReviewing
	case StageReviewing:
		if j.Decision != nil && j.Decision.Approved {
			return StageFiling
		}
		return StageQuarantined
	case StageFiling:
		return StageFiled
	default:
		return j.Stage
	}
}
