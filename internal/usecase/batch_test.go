package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upgradehq/upgr-cli/internal/domain"
)

func TestRunBatch(t *testing.T) {
	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, RunBatch(context.Background(), "noop", nil))
	})

	t.Run("all ops run even when some fail", func(t *testing.T) {
		var mu sync.Mutex
		ran := map[string]bool{}
		ops := make([]BatchOp, 0, 5)
		for i := 1; i <= 5; i++ {
			name := fmt.Sprintf("op%d", i)
			fails := i == 2 || i == 4
			ops = append(ops, BatchOp{
				Name: name,
				Run: func(ctx context.Context) error {
					mu.Lock()
					ran[name] = true
					mu.Unlock()
					if fails {
						return errors.New("boom")
					}
					return nil
				},
			})
		}

		err := RunBatch(context.Background(), "test op", ops)
		require.Error(t, err)

		// Every sibling settled, including the ones after the failures.
		assert.Len(t, ran, 5)

		var batchErr *domain.BatchErr
		require.ErrorAs(t, err, &batchErr)
		assert.Len(t, batchErr.Failures, 2)
		assert.Contains(t, err.Error(), "op2")
		assert.Contains(t, err.Error(), "op4")
		assert.NotContains(t, err.Error(), "op3")
	})

	t.Run("failures unwrap to the underlying errors", func(t *testing.T) {
		sentinel := errors.New("underlying")
		err := RunBatch(context.Background(), "test op", []BatchOp{
			{Name: "only", Run: func(ctx context.Context) error { return sentinel }},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("successful batch returns nil", func(t *testing.T) {
		err := RunBatch(context.Background(), "test op", []BatchOp{
			{Name: "a", Run: func(ctx context.Context) error { return nil }},
			{Name: "b", Run: func(ctx context.Context) error { return nil }},
		})
		require.NoError(t, err)
	})
}
