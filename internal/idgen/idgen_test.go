package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextIsMonotonic(t *testing.T) {
	gen := New()

	prev := gen.Next()
	for i := 0; i < 100; i++ {
		next := gen.Next()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestNextIsUniqueAcrossGoroutines(t *testing.T) {
	gen := New()

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	results := make([][]uint64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids := make([]uint64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, gen.Next())
			}
			results[w] = ids
		}(w)
	}
	wg.Wait()

	seen := make(map[uint64]bool, workers*perWorker)
	for _, ids := range results {
		for _, id := range ids {
			assert.False(t, seen[id], "id %d allocated twice", id)
			seen[id] = true
		}
	}
}
