// Package extract turns a scanned document into per-page image assets.
package extract

import "context"

// PageExtractor is Stage 1: document -> ordered page images.
type PageExtractor interface {
	// ExtractPages writes the page images for sourcePath under outDir and
	// returns their paths in page order.
	ExtractPages(ctx context.Context, sourcePath, outDir string) ([]string, error)
}
