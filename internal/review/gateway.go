package review

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/parvezamm3/receipt-agent/internal/common"
)

const defaultShutdownGrace = 3 * time.Second

// Gateway owns the review-session lifecycle: it starts the content server
// scoped to the source file's directory, hands the session to the reviewer,
// and tears the server down once a decision is recorded, regardless of
// outcome.
type Gateway struct {
	reviewer      Reviewer
	shutdownGrace time.Duration
	logger        *slog.Logger
}

func NewGateway(reviewer Reviewer, shutdownGrace time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if shutdownGrace <= 0 {
		shutdownGrace = defaultShutdownGrace
	}
	return &Gateway{reviewer: reviewer, shutdownGrace: shutdownGrace, logger: logger}
}

// RequestReview presents one document for human inspection and blocks until
// the decision arrives. Teardown of the content server is bounded by the
// shutdown grace period; a reviewer closing the session uncleanly must never
// block the pipeline indefinitely.
func (g *Gateway) RequestReview(ctx context.Context, req Request) (Decision, error) {
	srv, err := newContentServer(filepath.Dir(req.SourcePath), g.logger)
	if err != nil {
		return Decision{}, common.NewAppError("REVIEW_FAILURE", "start content server", err)
	}
	defer srv.Stop(g.shutdownGrace)

	req.DocumentURL = srv.URL(filepath.Base(req.SourcePath))
	g.logger.Info("review.session.start",
		"source", req.SourcePath,
		"document_url", req.DocumentURL,
		"defects", len(req.Defects),
	)

	dec, err := g.reviewer.Review(ctx, req)
	if err != nil {
		return Decision{}, common.NewAppError("REVIEW_FAILURE", "obtain review decision", err)
	}

	g.logger.Info("review.session.done", "source", req.SourcePath, "approved", dec.Approved)
	return dec, nil
}
