package test

import (
	"sync"

	"github.com/luxfi/fliop/pkg/party"
)

// RunAll runs fn once per id concurrently (each party is logically a
// separate process in the real system) and returns the results indexed
// by the same order as ids.
func RunAll[T any](ids []party.ID, fn func(id party.ID) (T, error)) ([]T, []error) {
	results := make([]T, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	wg.Add(len(ids))
	for i, id := range ids {
		i, id := i, id
		go func() {
			defer wg.Done()
			results[i], errs[i] = fn(id)
		}()
	}
	wg.Wait()
	return results, errs
}
