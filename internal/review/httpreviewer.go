package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// HTTPReviewer posts the presentation payload to an external review surface
// and blocks on its response. The HTTP client carries no timeout: a review
// session legitimately waits on a human, and cancellation flows through ctx.
type HTTPReviewer struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewHTTPReviewer(endpoint string, logger *slog.Logger) *HTTPReviewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPReviewer{endpoint: endpoint, client: &http.Client{}, logger: logger}
}

func (h *HTTPReviewer) Review(ctx context.Context, req Request) (Decision, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Decision{}, fmt.Errorf("marshal review request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return Decision{}, fmt.Errorf("build review request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	h.logger.Info("review.http.post", "endpoint", h.endpoint, "source", req.SourcePath)
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return Decision{}, fmt.Errorf("post review request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Decision{}, fmt.Errorf("review surface returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var dec Decision
	if err := json.NewDecoder(resp.Body).Decode(&dec); err != nil {
		return Decision{}, fmt.Errorf("decode review decision: %w", err)
	}
	return dec, nil
}

// AutoApprover approves whatever the validator produced and rejects anything
// it flagged. Used by the one-shot CLI where no review surface is attached.
type AutoApprover struct{}

func (AutoApprover) Review(_ context.Context, req Request) (Decision, error) {
	if len(req.Defects) > 0 {
		return Decision{
			Approved: false,
			Feedback: "validation defects:\n" + strings.Join(req.Defects, "\n"),
		}, nil
	}
	return Decision{Approved: true, Fields: req.Candidate}, nil
}
