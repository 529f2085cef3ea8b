/*
Package pool provides an ordered parallel map over a fixed set of workers.

The main use case for this package is to fan independent units of work out
across workers and collect results by index, so that output order always
equals submission order no matter how worker scheduling interleaves.
*/
package pool

import (
	"sync"
)

// Each runs fn for every index in [0, n) on a fixed set of workers.
// Callers collect results by writing into an index-addressed buffer
// inside fn; no two invocations share an index, so no locking is
// needed. The first error cancels all unstarted work and is returned
// after every worker has stopped.
func Each(workers, n int, fn func(i int) error) error {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	indexes := make(chan int)
	errc := make(chan error, workers)
	cancel := make(chan struct{})
	var once sync.Once
	abort := func() {
		once.Do(func() { close(cancel) })
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				if err := fn(i); err != nil {
					errc <- err
					abort()
					return
				}
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := 0; i < n; i++ {
			select {
			case indexes <- i:
			case <-cancel:
				return
			}
		}
	}()

	wg.Wait()
	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

// Map applies fn to every index in [0, n) on a fixed set of workers and
// returns the results in submission order. On error the partial results
// are discarded.
func Map[T any](workers, n int, fn func(i int) (T, error)) ([]T, error) {
	out := make([]T, n)
	err := Each(workers, n, func(i int) error {
		v, err := fn(i)
		if err != nil {
			return err
		}
		out[i] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
