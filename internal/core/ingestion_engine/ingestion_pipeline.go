package ingestion_engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/counsel/internal/core"
	"github.com/markdave123-py/counsel/internal/models"
)

var ErrEmptyText = errors.New("no text extracted")

// NewDocumentIngestor constructs the ingestor with a bounded job queue.
func NewDocumentIngestor(db core.DbClient, obj core.ObjectClient, extractor core.DocumentExtractor, cfg *IngestConfig, log *zap.SugaredLogger) *DocumentIngestor {
	if cfg == nil {
		cfg = DefaultIngestConfig()
	}
	return &DocumentIngestor{
		db: db, obj: obj, extractor: extractor, cfg: cfg, log: log,
		jobs: make(chan string, cfg.QueueSize),
	}
}

// Start runs numWorkers goroutines reading from the jobs channel until ctx is done.
func (i *DocumentIngestor) Start(ctx context.Context, numWorkers int) {
	for w := 1; w <= numWorkers; w++ {
		i.wg.Add(1)
		go func(w int) {
			defer i.wg.Done()
			for {
				select {
				case <-ctx.Done():
					i.log.Debugw("ingest worker shutting down", "worker", w)
					return
				case docID := <-i.jobs:
					i.log.Infow("processing document", "doc_id", docID, "worker", w)
					if err := i.ProcessOne(ctx, docID); err != nil {
						i.log.Errorw("document processing failed", "doc_id", docID, "err", err)
					}
				}
			}
		}(w)
	}
}

// Wait blocks until every worker has returned.
func (i *DocumentIngestor) Wait() { i.wg.Wait() }

// Enqueue schedules a document ID without blocking. It reports false when the
// queue is full; the document then stays in the uploaded state.
func (i *DocumentIngestor) Enqueue(docID string) bool {
	select {
	case i.jobs <- docID:
		return true
	default:
		i.log.Warnw("ingest queue full, dropping job", "doc_id", docID, "capacity", cap(i.jobs))
		return false
	}
}

// ProcessOne extracts an excerpt for a single document and records the outcome.
func (i *DocumentIngestor) ProcessOne(ctx context.Context, docID string) error {
	proctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	doc, err := i.db.GetDocumentByID(proctx, docID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if doc == nil || doc.IsArchived {
		i.log.Infow("document gone before processing", "doc_id", docID)
		return nil
	}

	if err := i.db.UpdateDocumentStatus(proctx, docID, models.DocumentProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	excerpt, err := i.extract(proctx, doc)
	if err != nil {
		if uerr := i.db.UpdateDocumentExtraction(ctx, docID, models.DocumentFailed, nil); uerr != nil {
			i.log.Errorw("mark failed", "doc_id", docID, "err", uerr)
		}
		return err
	}

	return i.db.UpdateDocumentExtraction(proctx, docID, models.DocumentReady, &excerpt)
}

// extract wires object fetch -> fragments -> chunks -> excerpt.
func (i *DocumentIngestor) extract(ctx context.Context, doc *models.Document) (string, error) {
	data, err := i.obj.GetFile(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("get object: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	fragCh, err := i.extractor.ExtractText(gctx, data, doc.ContentType)
	if err != nil {
		return "", err
	}

	chunkCh := i.streamChunk(gctx, g, fragCh, i.cfg.ChunkTokens)

	var (
		excerpt string
		total   int
	)
	g.Go(func() error {
		var err error
		excerpt, total, err = collectExcerpt(gctx, chunkCh, i.cfg.ExcerptTokens)
		return err
	})

	if err := g.Wait(); err != nil {
		return "", err
	}
	if excerpt == "" {
		return "", ErrEmptyText
	}

	i.log.Infow("document extracted", "doc_id", doc.ID, "approx_tokens", total, "excerpt_runes", len([]rune(excerpt)))
	return excerpt, nil
}
