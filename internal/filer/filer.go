// Package filer owns the terminal filesystem transitions for a document run:
// filing a validated receipt into the output directory with a collision-free
// name, updating the master log, and quarantining failures. It holds no
// pipeline logic beyond naming.
package filer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/parvezamm3/receipt-agent/internal/common"
	"github.com/parvezamm3/receipt-agent/internal/fields"
)

const (
	maxVendorRunes = 50
	vendorFallback = "unknown"
)

// Filer performs the file-lifecycle operations for processed documents.
type Filer struct {
	OutputDir     string
	QuarantineDir string
	SucceededDir  string

	log    *MasterLog
	logger *slog.Logger
	disamb func() string
}

func New(outputDir, quarantineDir, succeededDir string, masterLog *MasterLog, logger *slog.Logger) *Filer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filer{
		OutputDir:     outputDir,
		QuarantineDir: quarantineDir,
		SucceededDir:  succeededDir,
		log:           masterLog,
		logger:        logger,
		disamb: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		},
	}
}

// File copies sourcePath into the output directory under a generated name,
// records rec in the master log, and finally moves the original into the
// succeeded-sources directory. The log entry is written only after the copy
// fully succeeded. A failed final move is reported as a warning only: the
// receipt is already durably filed, only the housekeeping of the original
// failed. Returns the generated filing name.
func (f *Filer) File(ctx context.Context, sourcePath string, rec fields.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// a record without date or amount cannot produce a meaningful filing
	// name; reviewer edits may arrive with these blanked out
	if rec.TxDate == "" || rec.Amount == "" {
		return "", common.NewAppError("FILING_FAILURE",
			fmt.Sprintf("record for %q is missing date or amount", filepath.Base(sourcePath)), common.ErrInvalidInput)
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return "", common.NewAppError("FILING_FAILURE", fmt.Sprintf("source %q not found for copying", sourcePath), err)
	}

	ext := filepath.Ext(sourcePath)
	base := BaseName(rec.TxDate, rec.Amount, rec.Vendor.Name)
	newName, destPath := f.resolveName(base, ext)

	f.logger.Info("filer.file.start", "source", sourcePath, "dest", destPath)

	if err := os.MkdirAll(f.OutputDir, 0o755); err != nil {
		return "", common.NewAppError("FILING_FAILURE", "create output directory", err)
	}
	if err := copyFile(sourcePath, destPath); err != nil {
		return "", common.NewAppError("FILING_FAILURE", "copy to output directory", err)
	}

	rec.OriginalName = filepath.Base(sourcePath)
	if err := f.log.Put(newName, rec); err != nil {
		// remove the orphan copy so a retry does not leave duplicates behind
		_ = os.Remove(destPath)
		return "", common.NewAppError("FILING_FAILURE", "update master log", err)
	}

	succeeded := filepath.Join(f.SucceededDir, filepath.Base(sourcePath))
	if err := os.MkdirAll(f.SucceededDir, 0o755); err != nil {
		f.logger.Warn("filer.file.source_move_failed", "source", sourcePath, "error", err)
	} else if err := moveFile(sourcePath, succeeded); err != nil {
		f.logger.Warn("filer.file.source_move_failed", "source", sourcePath, "error", err)
	}

	f.logger.Info("filer.file.ok", "new_name", newName, "original", rec.OriginalName)
	return newName, nil
}

// Quarantine moves sourcePath into the quarantine directory and returns a
// confirmation embedding the reason. A missing source is a genuine error:
// it can indicate the same document was handled twice.
func (f *Filer) Quarantine(ctx context.Context, sourcePath, reason string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return "", common.NewAppError("QUARANTINE_FAILURE", fmt.Sprintf("cannot quarantine %q; file not found", sourcePath), err)
	}
	if err := os.MkdirAll(f.QuarantineDir, 0o755); err != nil {
		return "", common.NewAppError("QUARANTINE_FAILURE", "create quarantine directory", err)
	}
	dest := filepath.Join(f.QuarantineDir, filepath.Base(sourcePath))
	if err := moveFile(sourcePath, dest); err != nil {
		return "", common.NewAppError("QUARANTINE_FAILURE", "move to quarantine directory", err)
	}
	f.logger.Warn("filer.quarantine", "source", sourcePath, "reason", reason)
	return fmt.Sprintf("moved %q to %q for manual review: %s", filepath.Base(sourcePath), f.QuarantineDir, reason), nil
}

// resolveName appends a short random disambiguator to base, then an
// incrementing suffix while the resulting path exists. The disambiguator
// keeps names readable while making cross-run collisions vanishingly
// unlikely; the suffix resolves the pathological remainder.
func (f *Filer) resolveName(base, ext string) (name, dest string) {
	disamb := f.disamb()
	name = fmt.Sprintf("%s_%s%s", base, disamb, ext)
	dest = filepath.Join(f.OutputDir, name)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return name, dest
		}
		name = fmt.Sprintf("%s_%s_%d%s", base, disamb, counter, ext)
		dest = filepath.Join(f.OutputDir, name)
	}
}

// BaseName builds the deterministic part of a filing name.
func BaseName(date, amount, vendor string) string {
	return fmt.Sprintf("%s_%s_%s", date, amount, SanitizeVendor(vendor))
}

// SanitizeVendor reduces a vendor name to filename-safe characters: unicode
// letters and digits, space, underscore, hyphen. Truncates to 50 runes and
// falls back to a placeholder when nothing survives.
func SanitizeVendor(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	if s == "" {
		return vendorFallback
	}
	if runes := []rune(s); len(runes) > maxVendorRunes {
		s = string(runes[:maxVendorRunes])
	}
	return s
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}

// moveFile renames src to dst, falling back to copy+remove across devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
