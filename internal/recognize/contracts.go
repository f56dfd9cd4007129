// Package recognize turns page images into structured receipt fields via a
// vision model. Output may be non-deterministic; the engine does not retry.
package recognize

import (
	"context"

	"github.com/parvezamm3/receipt-agent/internal/fields"
)

// Recognizer is Stage 2: page images -> structured fields.
type Recognizer interface {
	// Recognize merges all pages into a single field set. The raw model
	// payload is returned alongside for diagnostics.
	Recognize(ctx context.Context, imagePaths []string) (fields.ReceiptFields, []byte, error)
}
