package ingestion_engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/core"
)

// IngestConfig tunes the extraction pipeline.
//
// ExcerptTokens:  approximate size of the stored excerpt (e.g., 400).
// ChunkTokens:    approximate tokens per chunk flowing between stages.
// QueueSize:      capacity of the job queue; Enqueue drops when full.
// Timeout:        upper bound for processing one document.
type IngestConfig struct {
	ExcerptTokens int
	ChunkTokens   int
	QueueSize     int
	Timeout       time.Duration
}

func DefaultIngestConfig() *IngestConfig {
	return &IngestConfig{
		ExcerptTokens: 400,
		ChunkTokens:   200,
		QueueSize:     64,
		Timeout:       5 * time.Minute,
	}
}

// chunk is the internal representation passed through the pipeline.
//
// Pos:      stable, zero-based position of the chunk inside the document.
// Text:     chunk content (built from one or more fragments).
// TokenCnt: approximate token count.
type chunk struct {
	Pos      int
	Text     string
	TokenCnt int
}

// DocumentIngestor runs text extraction for uploaded documents in the background:
//
// db:        document rows (status and excerpt).
// obj:       object storage holding the uploaded bytes.
// extractor: turns bytes into text fragments.
// jobs:      in-memory queue of document IDs to process.
type DocumentIngestor struct {
	db        core.DbClient
	obj       core.ObjectClient
	extractor core.DocumentExtractor
	cfg       *IngestConfig
	log       *zap.SugaredLogger
	jobs      chan string
	wg        sync.WaitGroup
}

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
}
