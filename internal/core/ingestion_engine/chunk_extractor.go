package ingestion_engine

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// streamChunk groups incoming fragments into token-bounded chunks.
//
// frags:        upstream fragments channel.
// targetTokens: approximate tokens per chunk.
func (i *DocumentIngestor) streamChunk(
	ctx context.Context,
	g *errgroup.Group,
	frags <-chan string,
	targetTokens int,
) <-chan chunk {
	out := make(chan chunk, 8)

	g.Go(func() error {
		defer close(out)

		var (
			buf    []string
			tokSum int
			pos    int
		)

		flush := func() error {
			if tokSum == 0 {
				return nil
			}
			ch := chunk{Pos: pos, Text: strings.Join(buf, "\n"), TokenCnt: tokSum}
			pos++

			select {
			case out <- ch:
			case <-ctx.Done():
				return ctx.Err()
			}
			buf = buf[:0]
			tokSum = 0
			return nil
		}

		for frag := range frags {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			buf = append(buf, frag)
			tokSum += approxTokens(frag)

			if tokSum >= targetTokens {
				if err := flush(); err != nil {
					return err
				}
			}
		}

		return flush()
	})

	return out
}

// collectExcerpt keeps the leading chunks up to maxTokens and drains the rest
// so upstream stages can finish.
func collectExcerpt(ctx context.Context, chunks <-chan chunk, maxTokens int) (excerpt string, total int, err error) {
	var (
		parts []string
		taken int
	)
	for ch := range chunks {
		total += ch.TokenCnt
		if taken < maxTokens {
			parts = append(parts, ch.Text)
			taken += ch.TokenCnt
		}
	}
	if err := ctx.Err(); err != nil {
		return "", total, err
	}
	return truncateTokens(strings.Join(parts, "\n"), maxTokens), total, nil
}

// truncateTokens cuts s to roughly n tokens on a rune boundary.
func truncateTokens(s string, n int) string {
	r := []rune(s)
	if limit := n * 4; len(r) > limit {
		return strings.TrimSpace(string(r[:limit]))
	}
	return s
}

// approxTokens is a cheap token estimator (~4 chars ≈ 1 token).
func approxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
