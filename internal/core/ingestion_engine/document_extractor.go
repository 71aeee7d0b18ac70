package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/counsel/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText converts the document with docconv and streams its non-empty lines.
// Conversion errors are returned before any fragment is sent.
func (e *DocconvExtractor) ExtractText(ctx context.Context, r []byte, contentType string) (<-chan string, error) {
	res, err := docconv.Convert(bytes.NewReader(r), contentType, e.useReadability)
	if err != nil {
		return nil, fmt.Errorf("docconv %s: %w", contentType, err)
	}
	return streamLines(ctx, res.Body), nil
}

func streamLines(ctx context.Context, text string) <-chan string {
	out := make(chan string, 32)

	go func() {
		defer close(out)
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
