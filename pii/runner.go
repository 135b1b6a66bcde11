package pii

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"golang.org/x/time/rate"

	"github.com/hannes/esic-screener/records"
)

// Runner fans records out to a fixed pool of workers. Per-record processing
// is pure and shares nothing but the tagger, so no synchronization exists
// between workers; results are re-ordered to input order before they are
// returned, since the core itself makes no ordering promise when
// parallelized.
type Runner struct {
	pipeline *Pipeline
	workers  int
	limiter  *rate.Limiter
}

// NewRunner builds a runner. maxPerSec caps record throughput against the
// shared model; zero means unlimited.
func NewRunner(pipeline *Pipeline, workers int, maxPerSec float64) *Runner {
	if workers < 1 {
		workers = 1
	}

	var limiter *rate.Limiter
	if maxPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(maxPerSec), 1)
	}

	return &Runner{
		pipeline: pipeline,
		workers:  workers,
		limiter:  limiter,
	}
}

type indexedRecord struct {
	index  int
	record records.Record
}

// Run drains the source and classifies every record. The returned slice is
// in input order. A broken source aborts the run; per-record stage failures
// do not (the pipeline absorbs those).
func (r *Runner) Run(ctx context.Context, source records.Source) ([]ClassificationResult, error) {
	var input []records.Record
	for {
		record, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record source failed: %w", err)
		}
		input = append(input, record)
	}

	log.Printf("[Runner] processing %d records with %d workers", len(input), r.workers)

	results := make([]ClassificationResult, len(input))
	jobs := make(chan indexedRecord)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if r.limiter != nil {
					if err := r.limiter.Wait(ctx); err != nil {
						// context cancelled; leave remaining
						// results zero-valued and drain
						continue
					}
				}
				results[job.index] = r.pipeline.Process(ctx, job.record.ID, job.record.Text)
			}
		}()
	}

	for i, record := range input {
		jobs <- indexedRecord{index: i, record: record}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
