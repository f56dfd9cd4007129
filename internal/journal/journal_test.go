package journal

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"), nil)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestBeginAndFinishFiled(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	id, err := j.Begin(ctx, "/inbox/a.pdf")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := j.FinishFiled(ctx, id, "20250101_1000_Acme_abc123.pdf"); err != nil {
		t.Fatalf("finish filed: %v", err)
	}

	// nothing left in flight
	paths, err := j.ReapInFlight(ctx)
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("reap after finish = %v, want none", paths)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	j := openTestJournal(t)
	if err := j.FinishQuarantined(context.Background(), "no-such-id", "reason"); err == nil {
		t.Fatalf("expected error finishing unknown run")
	}
}

func TestReapInFlightReturnsDistinctPathsOnce(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	if _, err := j.Begin(ctx, "/inbox/a.pdf"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := j.Begin(ctx, "/inbox/a.pdf"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	id, err := j.Begin(ctx, "/inbox/b.pdf")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := j.FinishQuarantined(ctx, id, "broken"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	paths, err := j.ReapInFlight(ctx)
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/inbox/a.pdf" {
		t.Fatalf("reap = %v, want only the still-running path", paths)
	}

	// second reap finds nothing: the rows were marked abandoned
	paths, err = j.ReapInFlight(ctx)
	if err != nil {
		t.Fatalf("second reap: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("second reap = %v, want none", paths)
	}
}
