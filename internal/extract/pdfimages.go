package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFImageExtractor pulls the embedded page scans out of a PDF with pdfcpu.
// Scanned receipts are image-backed PDFs, so the embedded images are the
// page renderings.
type PDFImageExtractor struct {
	logger *slog.Logger
}

func NewPDFImageExtractor(logger *slog.Logger) *PDFImageExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFImageExtractor{logger: logger}
}

// ExtractPages extracts into a per-document subdirectory of outDir so
// concurrent runs never interleave their assets.
func (e *PDFImageExtractor) ExtractPages(ctx context.Context, sourcePath, outDir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("source not found at %s: %w", sourcePath, err)
	}

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	jobDir := filepath.Join(outDir, base)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset directory: %w", err)
	}

	start := time.Now()
	if err := api.ExtractImagesFile(sourcePath, jobDir, nil, nil); err != nil {
		return nil, fmt.Errorf("extract page images from %s: %w", sourcePath, err)
	}

	entries, err := os.ReadDir(jobDir)
	if err != nil {
		return nil, fmt.Errorf("list asset directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(jobDir, entry.Name()))
	}
	sort.Strings(paths) // pdfcpu names assets by page number; lexical order is page order

	if len(paths) == 0 {
		return nil, errors.New("no page images found in document")
	}

	e.logger.Info("extract.pages.ok",
		"source", sourcePath,
		"pages", len(paths),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return paths, nil
}
