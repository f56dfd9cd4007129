// Package review adapts the pipeline to the external human review surface.
// The gateway packages a document and its candidate fields for inspection,
// serves the original document from an ephemeral per-session content server,
// and blocks until a decision arrives.
package review

import (
	"context"

	"github.com/parvezamm3/receipt-agent/internal/fields"
)

// Request is the presentation payload for one review session.
type Request struct {
	SourcePath  string               `json:"source_path"`
	DocumentURL string               `json:"document_url,omitempty"` // served by the session content server
	Candidate   fields.ReceiptFields `json:"candidate"`
	Defects     []string             `json:"defects,omitempty"` // validation context, informational
	PageAssets  []string             `json:"page_assets,omitempty"`
}

// Decision is the reviewer's verdict.
type Decision struct {
	Approved bool                 `json:"approved"`
	Fields   fields.ReceiptFields `json:"fields,omitempty"`   // final fields when approved
	Feedback string               `json:"feedback,omitempty"` // reason when rejected
}

// Reviewer blocks until a human decision is received.
type Reviewer interface {
	Review(ctx context.Context, req Request) (Decision, error)
}
