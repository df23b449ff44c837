package beadscli

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/steveyegge/bd-trello/internal/debug"
)

// BatchCreate creates a set of issues with at most maxWorkers concurrent
// bd invocations. The result slice is index-aligned with reqs; a failed
// slot holds "" and the migration continues. A structural failure in the
// concurrent path (not a per-item error) falls back to serial execution
// so a pool bug never loses work.
func BatchCreate(ctx context.Context, w Writer, reqs []CreateRequest, maxWorkers int) []string {
	if len(reqs) == 0 {
		return nil
	}
	if maxWorkers <= 1 {
		return serialCreate(ctx, w, reqs)
	}

	results, ok := concurrentCreate(ctx, w, reqs, maxWorkers)
	if !ok {
		debug.Warnf("concurrent creation failed structurally, retrying serially\n")
		return serialCreate(ctx, w, reqs)
	}
	return results
}

func serialCreate(ctx context.Context, w Writer, reqs []CreateRequest) []string {
	results := make([]string, len(reqs))
	for i, req := range reqs {
		id, err := w.CreateIssue(ctx, req)
		if err != nil {
			debug.Warnf("create %q: %v\n", req.Title, err)
			continue
		}
		results[i] = id
	}
	return results
}

func concurrentCreate(ctx context.Context, w Writer, reqs []CreateRequest, maxWorkers int) (results []string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			debug.Warnf("panic during concurrent creation: %v\n", r)
			results, ok = nil, false
		}
	}()

	sem := semaphore.NewWeighted(int64(maxWorkers))
	results = make([]string, len(reqs))
	var wg sync.WaitGroup

	for i, req := range reqs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled mid-batch; the serial fallback will
			// observe the same context and stop cleanly.
			wg.Wait()
			return nil, false
		}
		wg.Add(1)
		go func(i int, req CreateRequest) {
			defer wg.Done()
			defer sem.Release(1)
			id, err := w.CreateIssue(ctx, req)
			if err != nil {
				debug.Warnf("create %q: %v\n", req.Title, err)
				return
			}
			results[i] = id
		}(i, req)
	}

	wg.Wait()
	return results, true
}
