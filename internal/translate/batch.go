package translate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

// sends one batch of items to a provider
type batchFunc func(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error)

func batchSizeOf(opts Options) int {
	if opts.BatchSize > 0 {
		return opts.BatchSize
	}
	return DefaultBatchSize
}

func splitBatches(items []TranslationItem, size int) [][]TranslationItem {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]TranslationItem
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}

// runBatches splits items into batches and hands them to fn on up to
// concurrency workers. The first failing batch cancels the rest. Results
// come back sorted by item index.
func runBatches(
	ctx context.Context,
	items []TranslationItem,
	batchSize int,
	concurrency int,
	fn batchFunc,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	batches := splitBatches(items, batchSize)
	if concurrency <= 0 {
		concurrency = 1
	}

	if len(batches) == 1 || concurrency == 1 {
		var all []TranslationResult
		for i, batch := range batches {
			results, err := fn(ctx, batch)
			if err != nil {
				return nil, fmt.Errorf("batch %d failed: %w", i, err)
			}
			all = append(all, results...)
		}
		sortResults(all)
		return all, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index   int
		Results []TranslationResult
		Error   error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case batchIdx, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					results, err := fn(ctx, batches[batchIdx])
					if err != nil {
						cancel()
					}
					resultChan <- batchResult{
						Index:   batchIdx,
						Results: results,
						Error:   err,
					}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var (
		all      []TranslationResult
		firstErr error
		done     int
	)
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf(
					"batch %d failed: %w",
					result.Index,
					result.Error,
				)
			}
			continue
		}
		done++
		all = append(all, result.Results...)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if done != len(batches) {
		// parent context cancelled before every batch was sent
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("only %d of %d batches completed", done, len(batches))
	}

	sortResults(all)
	return all, nil
}

func sortResults(results []TranslationResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
}
