package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

// SourceFetcher mirrors a remote definition tree onto the local
// filesystem, downloading objects in parallel.
type SourceFetcher struct {
	store       ObjectStore
	concurrency int
}

// FetchResult contains the outcome of one mirror pass.
type FetchResult struct {
	// Fetched maps object paths to the local files they landed in.
	Fetched map[string]string

	// Errors maps object paths to their download failures.
	Errors map[string]error
}

// NewSourceFetcher creates a fetcher over store. concurrency bounds the
// number of parallel downloads.
func NewSourceFetcher(store ObjectStore, concurrency int) *SourceFetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SourceFetcher{store: store, concurrency: concurrency}
}

// Fetch downloads every .msg object under prefix into destDir, preserving
// the tree layout below the prefix. Existing local files are overwritten;
// the remote tree is the source of truth. Per-object failures land in the
// result rather than aborting the remaining downloads.
func (f *SourceFetcher) Fetch(ctx context.Context, prefix, destDir string) (*FetchResult, error) {
	objects, err := f.store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("storage: listing %q: %w", prefix, err)
	}

	result := &FetchResult{
		Fetched: make(map[string]string),
		Errors:  make(map[string]error),
	}

	base := strings.TrimSuffix(prefix, "/")
	sem := semaphore.NewWeighted(int64(f.concurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, object := range objects {
		if !strings.HasSuffix(object, ".msg") {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(object, base), "/")
		local := filepath.Join(destDir, filepath.FromSlash(rel))

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Errors[object] = err
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(object, local string) {
			defer sem.Release(1)
			defer wg.Done()

			if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
				mu.Lock()
				result.Errors[object] = err
				mu.Unlock()
				return
			}
			if err := f.store.Download(ctx, object, local); err != nil {
				mu.Lock()
				result.Errors[object] = err
				mu.Unlock()
				return
			}

			mu.Lock()
			result.Fetched[object] = local
			mu.Unlock()
		}(object, local)
	}

	wg.Wait()
	return result, nil
}
