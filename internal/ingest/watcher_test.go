package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAllowed(t *testing.T) {
	exts := map[string]struct{}{"pdf": {}}
	cases := []struct {
		path string
		want bool
	}{
		{"/inbox/a.pdf", true},
		{"/inbox/a.PDF", true},
		{"/inbox/a.png", false},
		{"/inbox/a", false},
		{"/inbox/.hidden.pdf", false},
	}
	for _, c := range cases {
		if got := allowed(c.path, exts); got != c.want {
			t.Errorf("allowed(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestInitialScanEmitsExistingDocuments(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "receipt.pdf")
	if err := os.WriteFile(keep, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
	}, nil)
	if err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	select {
	case p := <-evCh:
		if p != keep {
			t.Fatalf("emitted %q, want %q", p, keep)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("initial scan emitted nothing")
	}

	// the txt file must not follow
	select {
	case p := <-evCh:
		t.Fatalf("unexpected extra emission %q", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebounceCoalescesWriteBursts(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{
		Roots:    []string{root},
		Debounce: 50 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	// a burst of drops and rewrites must neither crash the watcher nor
	// emit the same path once per write
	const docs = 20
	for i := 0; i < docs; i++ {
		p := filepath.Join(root, fmt.Sprintf("r%02d.pdf", i))
		for rewrite := 0; rewrite < 5; rewrite++ {
			if err := os.WriteFile(p, []byte("%PDF-1.4"), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
		}
	}

	seen := map[string]int{}
	deadline := time.After(3 * time.Second)
	for len(seen) < docs {
		select {
		case p := <-evCh:
			seen[p]++
		case <-deadline:
			t.Fatalf("saw %d of %d documents before timeout", len(seen), docs)
		}
	}

	// drain the settle window; rewrites of an already-emitted path may
	// legally fire one more coalesced round, but never one per write
	settle := time.After(200 * time.Millisecond)
	for {
		select {
		case p := <-evCh:
			seen[p]++
		case <-settle:
			for p, n := range seen {
				if n > 2 {
					t.Errorf("path %s emitted %d times for 5 writes", p, n)
				}
			}
			return
		}
	}
}

func TestStartWatcherRequiresRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, nil); err == nil {
		t.Fatalf("expected error for empty roots")
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{t.TempDir()}}, nil)
	if err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	cancel()
	select {
	case _, ok := <-evCh:
		if ok {
			t.Fatalf("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event channel not closed after cancel")
	}
}
