package pipeline

import (
	"context"
	"sync"

	"letterflow/preprocess"
	"letterflow/schema"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scheduler partitions the documents into fixed-size batches and runs each
// batch on a bounded worker pool. Batches run sequentially, batch N+1 does
// not start before every pipeline of batch N terminated, which caps
// concurrent OCR jobs at MaxThreads regardless of run size.
type Scheduler struct {
	Pipeline   *Pipeline
	BatchSize  int
	MaxThreads int
	TmpDir     string
}

// Run processes all documents and returns the per-document outcomes. A
// failing document is recorded and never cancels sibling pipelines or later
// batches.
func (s *Scheduler) Run(ctx context.Context, docs []*schema.Document) []Outcome {
	batches := splitIntoBatches(docs, s.BatchSize)

	var mu sync.Mutex
	outcomes := make([]Outcome, 0, len(docs))

	for i, batch := range batches {
		logger.Info("Processing batch",
			zap.Int("batch", i+1), zap.Int("of", len(batches)), zap.Int("documents", len(batch)))

		g := new(errgroup.Group)
		g.SetLimit(s.MaxThreads)
		for _, doc := range batch {
			g.Go(func() error {
				out := s.Pipeline.Process(ctx, doc)

				mu.Lock()
				outcomes = append(outcomes, out)
				mu.Unlock()
				return nil // failures are recorded, never propagated
			})
		}
		_ = g.Wait() // batch barrier

		if s.TmpDir != "" {
			preprocess.CleanTmp(s.TmpDir)
		}
	}

	return outcomes
}

func splitIntoBatches(docs []*schema.Document, size int) [][]*schema.Document {
	if size <= 0 {
		size = len(docs)
	}
	var batches [][]*schema.Document
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		batches = append(batches, docs[start:end])
	}
	return batches
}
