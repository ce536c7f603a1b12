package parallel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// chunks splits [0, items) into at most workers contiguous ranges.
func chunks(items, workers int) [][2]int {
	if workers > items {
		workers = items
	}
	chunkSize := (items + workers - 1) / workers

	ranges := make([][2]int, 0, workers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// Workers resolves an nJobs setting: values <= 0 mean one worker per CPU.
func Workers(nJobs int) int {
	if nJobs <= 0 {
		return runtime.NumCPU()
	}
	return nJobs
}

// Parallelize divides items into one contiguous range per CPU core and
// runs fn on each range concurrently.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, r := range chunks(items, runtime.NumCPU()) {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(r[0], r[1])
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold.
// If below threshold, normal sequential processing is performed.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEach calls fn(i) for every i in [0, items) using at most workers
// goroutines. It returns the first error; once an error occurs, items not
// yet started are skipped.
func ForEach(items, workers int, fn func(i int) error) error {
	if items == 0 {
		return nil
	}
	if workers <= 1 {
		for i := 0; i < items; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	failed := make(chan struct{})
	var once sync.Once
	for i := 0; i < items; i++ {
		select {
		case <-failed:
			return g.Wait()
		default:
		}
		g.Go(func() error {
			if err := fn(i); err != nil {
				once.Do(func() { close(failed) })
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
