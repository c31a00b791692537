package usecase

import (
	"context"
	"sync"

	"github.com/upgradehq/upgr-cli/internal/domain"
)

// BatchOp is one independent operation in a concurrent batch. Name tags any
// failure with the entity it occurred on.
type BatchOp struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunBatch launches all operations concurrently and waits for every one of
// them to settle. Siblings are never abandoned mid-flight: if any fail, the
// aggregate error enumerates each individual failure. There is no ordering
// guarantee between siblings; dependent work belongs in separate, ordered
// batches.
func RunBatch(ctx context.Context, op string, ops []BatchOp) error {
	if len(ops) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error

	for _, item := range ops {
		wg.Add(1)
		go func(item BatchOp) {
			defer wg.Done()
			if err := item.Run(ctx); err != nil {
				mu.Lock()
				failures = append(failures, domain.BackendOperationErr{
					Entity: item.Name,
					Op:     op,
					Err:    err,
				})
				mu.Unlock()
			}
		}(item)
	}
	wg.Wait()

	if len(failures) > 0 {
		return &domain.BatchErr{Op: op, Failures: failures}
	}
	return nil
}
