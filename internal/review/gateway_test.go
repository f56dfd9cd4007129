package review

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parvezamm3/receipt-agent/internal/fields"
)

// reviewerFunc adapts a function to the Reviewer interface.
type reviewerFunc func(ctx context.Context, req Request) (Decision, error)

func (f reviewerFunc) Review(ctx context.Context, req Request) (Decision, error) {
	return f(ctx, req)
}

func TestGatewayServesDocumentDuringSession(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4 payload"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var sessionURL string
	rv := reviewerFunc(func(_ context.Context, req Request) (Decision, error) {
		sessionURL = req.DocumentURL
		resp, err := http.Get(req.DocumentURL)
		if err != nil {
			return Decision{}, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("content server returned %d for %s", resp.StatusCode, req.DocumentURL)
		}
		b, _ := io.ReadAll(resp.Body)
		if string(b) != "%PDF-1.4 payload" {
			t.Errorf("served body = %q", b)
		}
		return Decision{Approved: true, Fields: req.Candidate}, nil
	})

	g := NewGateway(rv, time.Second, nil)
	dec, err := g.RequestReview(context.Background(), Request{
		SourcePath: src,
		Candidate:  fields.ReceiptFields{Amount: "1000"},
	})
	if err != nil {
		t.Fatalf("RequestReview() error = %v", err)
	}
	if !dec.Approved || dec.Fields.Amount != "1000" {
		t.Fatalf("decision = %+v", dec)
	}

	// session is torn down after the decision
	if _, err := http.Get(sessionURL); err == nil {
		t.Fatal("content server still reachable after decision")
	}
}

func TestGatewayTearsDownOnReviewerError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var sessionURL string
	rv := reviewerFunc(func(_ context.Context, req Request) (Decision, error) {
		sessionURL = req.DocumentURL
		return Decision{}, errors.New("transport broke")
	})

	g := NewGateway(rv, time.Second, nil)
	_, err := g.RequestReview(context.Background(), Request{SourcePath: src})
	if err == nil {
		t.Fatal("RequestReview() succeeded despite reviewer error")
	}

	if _, err := http.Get(sessionURL); err == nil {
		t.Fatal("content server still reachable after reviewer error")
	}
}

func TestGatewayPassesValidationContext(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var got Request
	rv := reviewerFunc(func(_ context.Context, req Request) (Decision, error) {
		got = req
		return Decision{Approved: false, Feedback: "unreadable"}, nil
	})

	g := NewGateway(rv, time.Second, nil)
	dec, err := g.RequestReview(context.Background(), Request{
		SourcePath: src,
		Candidate:  fields.ReceiptFields{Amount: "bad"},
		Defects:    []string{"amount \"bad\" is not purely numeric"},
		PageAssets: []string{"/tmp/p1.png"},
	})
	if err != nil {
		t.Fatalf("RequestReview() error = %v", err)
	}
	if dec.Approved {
		t.Fatal("rejection not propagated")
	}
	if len(got.Defects) != 1 || len(got.PageAssets) != 1 {
		t.Fatalf("reviewer did not receive context: %+v", got)
	}
	if got.DocumentURL == "" {
		t.Fatal("reviewer did not receive a document URL")
	}
}

func TestAutoApprover(t *testing.T) {
	dec, err := AutoApprover{}.Review(context.Background(), Request{
		Candidate: fields.ReceiptFields{Amount: "1000"},
	})
	if err != nil || !dec.Approved {
		t.Fatalf("clean candidate: dec=%+v err=%v", dec, err)
	}

	dec, err = AutoApprover{}.Review(context.Background(), Request{
		Defects: []string{"date is missing"},
	})
	if err != nil || dec.Approved {
		t.Fatalf("defective candidate: dec=%+v err=%v", dec, err)
	}
}
