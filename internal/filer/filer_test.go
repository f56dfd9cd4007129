package filer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parvezamm3/receipt-agent/constants"
	"github.com/parvezamm3/receipt-agent/internal/fields"
)

func newTestFiler(t *testing.T) *Filer {
	t.Helper()
	root := t.TempDir()
	ml := NewMasterLog(filepath.Join(root, "master.json"), nil)
	return New(
		filepath.Join(root, "output"),
		filepath.Join(root, "quarantine"),
		filepath.Join(root, "succeeded"),
		ml,
		nil,
	)
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
	return path
}

func testRecord() fields.Record {
	return fields.Record{
		ReceiptFields: fields.ReceiptFields{
			TxDate:       "20250101",
			Amount:       "1000",
			Vendor:       fields.Vendor{Name: "Acme"},
			Registration: "T123",
		},
	}
}

func TestFileHappyPath(t *testing.T) {
	f := newTestFiler(t)
	src := writeSource(t, "scan001.pdf")

	name, err := f.File(context.Background(), src, testRecord())
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if !strings.HasPrefix(name, "20250101_1000_Acme_") || !strings.HasSuffix(name, ".pdf") {
		t.Fatalf("filing name = %q, want 20250101_1000_Acme_<disambiguator>.pdf", name)
	}

	if _, err := os.Stat(filepath.Join(f.OutputDir, name)); err != nil {
		t.Fatalf("filed copy missing: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present after filing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.SucceededDir, "scan001.pdf")); err != nil {
		t.Fatalf("source not in succeeded dir: %v", err)
	}

	entries := f.log.Load()
	rec, ok := entries[name]
	if !ok {
		t.Fatalf("master log missing key %q; keys = %v", name, keysOf(entries))
	}
	if rec.OriginalName != "scan001.pdf" {
		t.Fatalf("OriginalName = %q, want %q", rec.OriginalName, "scan001.pdf")
	}
}

func TestFileIdenticalRecordsGetDistinctNames(t *testing.T) {
	f := newTestFiler(t)
	src1 := writeSource(t, "a.pdf")
	src2 := writeSource(t, "b.pdf")

	name1, err := f.File(context.Background(), src1, testRecord())
	if err != nil {
		t.Fatalf("File(1) error = %v", err)
	}
	name2, err := f.File(context.Background(), src2, testRecord())
	if err != nil {
		t.Fatalf("File(2) error = %v", err)
	}
	if name1 == name2 {
		t.Fatalf("identical records filed under the same name %q", name1)
	}

	entries := f.log.Load()
	if len(entries) != 2 {
		t.Fatalf("master log entries = %d, want 2 distinct keys", len(entries))
	}
}

func TestFilePathologicalCollisionGetsCounterSuffix(t *testing.T) {
	f := newTestFiler(t)
	f.disamb = func() string { return "abc123" } // pin the disambiguator

	src1 := writeSource(t, "a.pdf")
	src2 := writeSource(t, "b.pdf")

	name1, err := f.File(context.Background(), src1, testRecord())
	if err != nil {
		t.Fatalf("File(1) error = %v", err)
	}
	if name1 != "20250101_1000_Acme_abc123.pdf" {
		t.Fatalf("name1 = %q", name1)
	}

	name2, err := f.File(context.Background(), src2, testRecord())
	if err != nil {
		t.Fatalf("File(2) error = %v", err)
	}
	if name2 != "20250101_1000_Acme_abc123_1.pdf" {
		t.Fatalf("name2 = %q, want incrementing suffix on collision", name2)
	}

	if len(f.log.Load()) != 2 {
		t.Fatal("both collided filings must appear as distinct log keys")
	}
}

func TestFileCorruptLogSelfHeals(t *testing.T) {
	f := newTestFiler(t)
	if err := os.WriteFile(f.log.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile(corrupt log) error = %v", err)
	}

	src := writeSource(t, "scan002.pdf")
	name, err := f.File(context.Background(), src, testRecord())
	if err != nil {
		t.Fatalf("File() with corrupt log error = %v", err)
	}

	entries := f.log.Load()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want fresh log with 1 entry", len(entries))
	}
	if _, ok := entries[name]; !ok {
		t.Fatalf("new entry %q missing from healed log", name)
	}
}

func TestFileMissingSource(t *testing.T) {
	f := newTestFiler(t)
	_, err := f.File(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"), testRecord())
	if err == nil {
		t.Fatal("File() with missing source succeeded")
	}
	if len(f.log.Load()) != 0 {
		t.Fatal("failed filing mutated the master log")
	}
}

func TestFileRejectsRecordWithoutDateOrAmount(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*fields.Record)
	}{
		{"missing date", func(r *fields.Record) { r.TxDate = "" }},
		{"missing amount", func(r *fields.Record) { r.Amount = "" }},
		{"missing both", func(r *fields.Record) { r.TxDate = ""; r.Amount = "" }},
	}
	for _, tc := range cases {
		f := newTestFiler(t)
		src := writeSource(t, "edited.pdf")
		rec := testRecord()
		tc.mutate(&rec)

		_, err := f.File(context.Background(), src, rec)
		if err == nil {
			t.Fatalf("%s: File() accepted an unfileable record", tc.name)
		}
		if !strings.Contains(err.Error(), "missing date or amount") {
			t.Errorf("%s: error = %v, want missing-field report", tc.name, err)
		}
		if _, statErr := os.Stat(src); statErr != nil {
			t.Errorf("%s: source moved despite rejected filing", tc.name)
		}
		if len(f.log.Load()) != 0 {
			t.Errorf("%s: rejected filing mutated the master log", tc.name)
		}
	}
}

func TestQuarantine(t *testing.T) {
	f := newTestFiler(t)
	src := writeSource(t, "bad.pdf")

	msg, err := f.Quarantine(context.Background(), src, "recognition failed: no usable images")
	if err != nil {
		t.Fatalf("Quarantine() error = %v", err)
	}
	if !strings.Contains(msg, "recognition failed") {
		t.Fatalf("confirmation does not embed the reason: %q", msg)
	}
	if _, err := os.Stat(filepath.Join(f.QuarantineDir, "bad.pdf")); err != nil {
		t.Fatalf("source not in quarantine dir: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present after quarantine: %v", err)
	}
}

func TestQuarantineMissingSourceIsError(t *testing.T) {
	f := newTestFiler(t)
	_, err := f.Quarantine(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"), "whatever")
	if err == nil {
		t.Fatal("Quarantine() with missing source succeeded; double-processing would go unnoticed")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("error does not report the file as not found: %v", err)
	}
}

func TestSanitizeVendor(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Acme", "Acme"},
		{"Acme Ltd.", "Acme Ltd"},
		{"株式会社テスト", "株式会社テスト"},
		{"a/b\\c:d", "abcd"},
		{"  spaced  ", "spaced"},
		{"!!!", "unknown"},
		{"", "unknown"},
		{strings.Repeat("x", 60), strings.Repeat("x", 50)},
	}
	for _, tc := range cases {
		if got := SanitizeVendor(tc.in); got != tc.want {
			t.Errorf("SanitizeVendor(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMasterLogAtomicWrite(t *testing.T) {
	root := t.TempDir()
	ml := NewMasterLog(filepath.Join(root, "master.json"), nil)

	if err := ml.Put("one.pdf", testRecord()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	// no temp leftovers after a completed write
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".masterlog-") {
			t.Fatalf("temp file %q left behind", e.Name())
		}
	}

	got := ml.Load()
	if len(got) != 1 {
		t.Fatalf("Load() = %d entries, want 1", len(got))
	}
}

func TestMasterLogSerializesOriginalNameUnderFixedKey(t *testing.T) {
	root := t.TempDir()
	ml := NewMasterLog(filepath.Join(root, "master.json"), nil)

	rec := testRecord()
	rec.OriginalName = "scan001.pdf"
	if err := ml.Put("one.pdf", rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	b, err := os.ReadFile(ml.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("log is not valid JSON: %v", err)
	}
	if raw["one.pdf"][constants.OriginalNameKey] != "scan001.pdf" {
		t.Fatalf("entry lacks %q: %v", constants.OriginalNameKey, raw["one.pdf"])
	}
}

func keysOf(m map[string]fields.Record) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
