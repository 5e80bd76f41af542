package cascade

import (
	"context"
	"sync"

	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/shopspring/decimal"
)

type batchJob struct {
	txn   model.Transaction
	index int
}

type batchResult struct {
	result model.PredictionResult
	index  int
}

// ClassifyBatch classifies every transaction on a bounded worker pool.
// Results are returned in input order.
func (c *Cascade) ClassifyBatch(ctx context.Context, txns []model.Transaction) []model.PredictionResult {
	results := make([]model.PredictionResult, len(txns))
	if len(txns) == 0 {
		return results
	}

	workers := c.workers
	if workers > len(txns) {
		workers = len(txns)
	}

	// Create work channel
	workChan := make(chan batchJob, len(txns))
	for i, txn := range txns {
		workChan <- batchJob{index: i, txn: txn}
	}
	close(workChan)

	resultsChan := make(chan batchResult, len(txns))

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range workChan {
				resultsChan <- batchResult{
					index:  job.index,
					result: c.Classify(ctx, job.txn.Description, decimal.NewNullDecimal(job.txn.Amount)),
				}
			}
		}()
	}

	// Wait for workers and close results
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	done := 0
	for r := range resultsChan {
		results[r.index] = r.result
		done++
		if c.progress != nil {
			c.progress(done, len(txns))
		}
	}

	c.logger.Debug("Classified batch", "transactions", len(txns), "workers", workers)

	return results
}
