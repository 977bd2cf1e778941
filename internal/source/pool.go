package source

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
)

// ReadFiles reads every file in paths with up to workers parallel readers
// and merges the per-file results in the order the paths were given, so
// the combined entry slice is deterministic regardless of scheduling.
// Errors are likewise reported in path order. workers <= 0 uses one reader
// per CPU.
func ReadFiles(ctx context.Context, paths []string, workers int, read func(context.Context, string) (*Result, error)) (*Result, []error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	// Workers write to disjoint indexes, so no locking is needed.
	perFile := make([]*Result, len(paths))
	readErrs := make([]error, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				perFile[idx], readErrs[idx] = read(ctx, paths[idx])
			}
		}()
	}

submit:
	for idx := range paths {
		select {
		case <-ctx.Done():
			break submit
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	merged := &Result{}
	var errs []error
	for idx := range paths {
		if err := readErrs[idx]; err != nil {
			errs = append(errs, err)
			continue
		}
		res := perFile[idx]
		if res == nil {
			continue
		}
		merged.Entries = append(merged.Entries, res.Entries...)
		merged.Malformed += res.Malformed
		merged.Lines += res.Lines
	}

	return merged, errs
}

// ExpandGlobs expands glob patterns to a deduplicated list of absolute file
// paths. Plain paths pass through; directories are skipped. The result is
// sorted for deterministic processing order.
func ExpandGlobs(patterns []string) []string {
	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}

		for _, match := range matches {
			fi, err := os.Stat(match)
			if err != nil || fi.IsDir() {
				continue
			}

			absPath, err := filepath.Abs(match)
			if err != nil {
				continue
			}

			if !seen[absPath] {
				seen[absPath] = true
				files = append(files, absPath)
			}
		}
	}

	sort.Strings(files)
	return files
}
