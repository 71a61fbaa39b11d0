package tasks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/snaplist/internal/shared"
)

// BatchOpts contains configuration for resolving several images.
type BatchOpts struct {
	OwnerID    string  // Owner recorded in history; empty disables history
	NumWorkers int     // Concurrent workers (default: 3, max: 8)
	RateLimit  float64 // Images started per second (default: 2)
}

// BatchItem is the outcome for one image file.
type BatchItem struct {
	Path   string         `json:"path"`
	Result *ResolveResult `json:"result,omitempty"`
	Err    error          `json:"-"`
	Error  string         `json:"error,omitempty"`
}

// BatchResult summarizes a batch in input order.
type BatchResult struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}

// ImageProcessor resolves one image. Implemented by [ResolutionEngine].
type ImageProcessor interface {
	Process(ctx context.Context, image []byte, ownerID string, progress chan<- ProgressUpdate) (*ResolveResult, error)
}

type batchJob struct {
	index int
	path  string
}

// BatchResolve resolves image files concurrently with a worker pool and a shared rate limiter.
//
// A failing file is reported in its item and does not stop the others.
func BatchResolve(ctx context.Context, p ImageProcessor, paths []string, opts BatchOpts, progress chan<- ProgressUpdate) (*BatchResult, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: processor not initialized", shared.ErrServiceUnavailable)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: at least one image path is required", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	result := &BatchResult{Total: len(paths), Items: make([]BatchItem, len(paths))}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan batchJob, len(paths))
	done := make(chan batchJob, len(paths))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result.Items[job.index] = resolveFile(ctx, p, limiter, job.path, opts.OwnerID)
				done <- job
			}
		}()
	}

	for i, path := range paths {
		jobs <- batchJob{index: i, path: path}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for job := range done {
		completed++
		item := result.Items[job.index]
		if item.Err != nil {
			result.Failed++
			sendProgress(progress, batchFailedUpdate(completed, len(paths), item.Path, item.Err))
		} else {
			result.Succeeded++
			sendProgress(progress, batchCompletedUpdate(completed, len(paths), item.Path, len(item.Result.Videos)))
		}
	}

	return result, nil
}

func resolveFile(ctx context.Context, p ImageProcessor, limiter *rate.Limiter, path, ownerID string) BatchItem {
	item := BatchItem{Path: path}

	fail := func(err error) BatchItem {
		item.Err = err
		item.Error = err.Error()
		return item
	}

	if err := limiter.Wait(ctx); err != nil {
		return fail(err)
	}

	image, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return fail(err)
	}

	res, err := p.Process(ctx, image, ownerID, nil)
	if err != nil {
		return fail(err)
	}
	item.Result = res
	return item
}
