package streams

import (
	"sync"
)

// WorkerPool manages a pool of worker goroutines for parallel stream analysis
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 10 // Default to 10 workers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// NumWorkers returns the configured worker count
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// AnalyzeBatch analyzes multiple streams in parallel using the worker pool.
// Results come back in the same order as the input streams. The analyze
// function must be pure: concurrent and sequential runs produce identical
// results.
func (wp *WorkerPool) AnalyzeBatch(
	streams []Stream,
	analyze func(Stream) StreamAnalysis,
) []StreamAnalysis {
	numStreams := len(streams)
	if numStreams == 0 {
		return []StreamAnalysis{}
	}

	// Create channels for work distribution and result collection
	jobs := make(chan jobItem, numStreams)
	results := make(chan resultItem, numStreams)

	// Start workers
	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if numStreams < numActualWorkers {
		numActualWorkers = numStreams // Don't spawn more workers than streams
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(jobs, results, analyze)
		}()
	}

	// Send jobs to workers
	for idx, stream := range streams {
		jobs <- jobItem{
			index:  idx,
			stream: stream,
		}
	}
	close(jobs)

	// Wait for all workers to finish, then close results
	wg.Wait()
	close(results)

	// Collect results by input position
	resultSlice := make([]StreamAnalysis, numStreams)
	for result := range results {
		resultSlice[result.index] = result.analysis
	}

	return resultSlice
}

// jobItem represents a single analysis job
type jobItem struct {
	stream Stream
	index  int
}

// resultItem represents the result of an analysis job
type resultItem struct {
	analysis StreamAnalysis
	index    int
}

// worker is the worker goroutine that processes analysis jobs
func worker(
	jobs <-chan jobItem,
	results chan<- resultItem,
	analyze func(Stream) StreamAnalysis,
) {
	for job := range jobs {
		results <- resultItem{
			index:    job.index,
			analysis: analyze(job.stream),
		}
	}
}
