package dload

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/wswaq/img2dataset/cmn/nlog"
)

// RunShard is C5: a fixed-size worker pool of T fetchers draining rows and
// delivering results in unordered (first-finished-first-processed) order,
// gated by a counting semaphore of capacity 2T that bounds in-flight +
// buffered-for-processing rows independent of shard size (§4.5/§9).
//
// The permit lifecycle crosses the pool boundary by construction: acquired
// by the feeder before a row is admitted to the workers, released by the
// single result consumer after process(raw) returns — normally, via short
// circuit, or via panic. process is called sequentially, exactly once per
// row, never concurrently with itself.
//
// ctx governs only orderly shutdown (e.g. a fatal writer error upstream);
// per spec there is no cooperative mid-shard cancellation of individual
// fetches beyond the per-fetch timeout already baked into FetchWithRetry.
func RunShard(ctx context.Context, cfg *Config, rows []*Row, process func(RawRowResult)) error {
	sem := semaphore.NewWeighted(int64(2 * cfg.ThreadCount))
	jobs := make(chan *Row)
	results := make(chan RawRowResult)

	var feedErr error
	go func() {
		defer close(jobs)
		for _, row := range rows {
			if err := sem.Acquire(ctx, 1); err != nil {
				feedErr = err
				return
			}
			select {
			case jobs <- row:
			case <-ctx.Done():
				sem.Release(1) // never handed to a consumer: release here
				feedErr = ctx.Err()
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(cfg.ThreadCount)
	for i := 0; i < cfg.ThreadCount; i++ {
		go func() {
			defer wg.Done()
			for row := range jobs {
				raw := FetchWithRetry(row, cfg.Timeout, cfg.Retries, cfg.UserAgentToken, cfg.DisallowedHeaderDirectives)
				select {
				case results <- raw:
				case <-ctx.Done():
					sem.Release(1) // fetched but never delivered for post-processing
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for raw := range results {
		consumeOne(raw, sem, process)
	}

	return feedErr
}

// consumeOne runs post-processing for one row and guarantees the semaphore
// permit is released on every exit path, including a panicking process
// (§4.5: "failure to release is a fatal bug"; §7 item 6: a per-row
// exception must not abort the shard).
func consumeOne(raw RawRowResult, sem *semaphore.Weighted, process func(RawRowResult)) {
	defer sem.Release(1)
	defer func() {
		if r := recover(); r != nil {
			nlog.Errorf("row %d: processor panic: %v", raw.Row.RowIndex, r)
		}
	}()
	process(raw)
}
