package core

import (
	"context"
)

// DocumentExtractor defines the interface for extracting text from various document types.
type DocumentExtractor interface {
	// ExtractText returns a channel of non-empty text fragments in document order.
	// The channel is closed when extraction finishes or ctx is cancelled.
	// The `contentType` hint helps the extractor choose the right parsing strategy.
	ExtractText(ctx context.Context, r []byte, contentType string) (<-chan string, error)
}
