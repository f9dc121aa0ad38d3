// Package indexing implements the indexing half of the pipeline: the
// document registry, posting accumulator, partial-index writer, external
// merger, and the TF·IDF rewriter plus meta-index builder, wired together
// by BuildIndex.
package indexing

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	ixerrors "github.com/standardbeagle/htmlsearch/internal/errors"
	"github.com/standardbeagle/htmlsearch/internal/metrics"
	"github.com/standardbeagle/htmlsearch/internal/tokenizer"
	"github.com/standardbeagle/htmlsearch/internal/types"
)

// Options configures one indexing run.
type Options struct {
	CorpusPath          string
	IndexStorage        string
	SpillThresholdBytes int64
	ParallelWorkers     int
	Exclude             []string
	Metrics             *metrics.Metrics
}

// BuildStats summarizes a completed indexing run.
type BuildStats struct {
	DocsIndexed  int
	DocsSkipped  int
	PartialFiles int
	Tokens       int
	Duration     time.Duration
}

const (
	finalIndexFile = "index.jsonl"
	metaIndexFile  = "meta_index.json"
	urlRegistry    = "urls.txt"
)

// parseResult is one worker's tokenization output, tagged with its doc_id
// so the single consumer can reorder out-of-order arrivals before feeding
// the accumulator.
type parseResult struct {
	docID types.DocID
	occs  []tokenizer.Occurrence
}

// indexTask pairs a corpus item with the doc_id the registry already
// assigned it, so workers never need to coordinate ID assignment.
type indexTask struct {
	item  CorpusItem
	docID types.DocID
}

// BuildIndex runs the full indexing pipeline: corpus traversal assigns
// doc IDs in deterministic order; a bounded worker pool tokenizes documents
// concurrently while a single consumer ingests results into the
// accumulator strictly in doc_id order; the accumulator spills to partial
// files when it crosses the configured threshold; the partials are merged
// and rewritten with TF·IDF scores plus a meta-index.
func BuildIndex(ctx context.Context, opts Options) (BuildStats, error) {
	start := time.Now()

	if err := os.MkdirAll(opts.IndexStorage, 0o755); err != nil {
		return BuildStats{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "create index storage", err)
	}

	registry, err := NewDocumentRegistry(filepath.Join(opts.IndexStorage, urlRegistry))
	if err != nil {
		return BuildStats{}, err
	}

	workers := opts.ParallelWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	threshold := opts.SpillThresholdBytes
	if threshold <= 0 {
		threshold = types.DefaultSpillThresholdBytes
	}

	acc := NewAccumulator(threshold)
	var partialPaths []string
	var docsSkipped int

	tasks := make(chan indexTask, workers*2)
	results := make(chan parseResult, workers*4)

	group, groupCtx := errgroup.WithContext(ctx)

	// Worker pool: tokenize concurrently, tagging each output with its
	// doc_id so the consumer can restore ordering.
	group.Go(func() error {
		workerGroup, workerCtx := errgroup.WithContext(groupCtx)
		for i := 0; i < workers; i++ {
			workerGroup.Go(func() error {
				for {
					select {
					case <-workerCtx.Done():
						return workerCtx.Err()
					case task, ok := <-tasks:
						if !ok {
							return nil
						}
						occs, tokErr := tokenizeItem(task.item)
						if tokErr != nil {
							// Malformed HTML: skip like any other corpus
							// item malformed error, never fatal.
							continue
						}
						select {
						case results <- parseResult{docID: task.docID, occs: occs}:
						case <-workerCtx.Done():
							return workerCtx.Err()
						}
					}
				}
			})
		}
		err := workerGroup.Wait()
		close(results)
		return err
	})

	// Producer: walk the corpus in deterministic order, assigning doc IDs
	// as items are accepted.
	group.Go(func() error {
		defer close(tasks)
		walkErr := WalkCorpus(opts.CorpusPath, opts.Exclude, func(item CorpusItem) error {
			id, assignErr := registry.Assign(item.URL)
			if assignErr != nil {
				return assignErr
			}
			select {
			case tasks <- indexTask{item: item, docID: id}:
				return nil
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}, func(path string, err error) {
			docsSkipped++
			opts.Metrics.DocSkipped()
			LogMalformed(path, err)
		})
		return walkErr
	})

	// Consumer: restore doc_id order and ingest into the accumulator,
	// spilling to disk whenever the threshold is crossed.
	group.Go(func() error {
		pending := make(map[types.DocID][]tokenizer.Occurrence)
		next := types.DocID(0)
		seq := 0

		drainReady := func() error {
			for {
				occs, ok := pending[next]
				if !ok {
					return nil
				}
				acc.Ingest(next, occs)
				delete(pending, next)
				next++
				opts.Metrics.DocIndexed()

				if acc.ShouldFlush() {
					path, werr := WritePartial(opts.IndexStorage, seq, acc.Snapshot())
					if werr != nil {
						return werr
					}
					partialPaths = append(partialPaths, path)
					opts.Metrics.PartialFlushed()
					seq++
				}
			}
		}

		for {
			select {
			case r, ok := <-results:
				if !ok {
					return drainReady()
				}
				pending[r.docID] = r.occs
				if err := drainReady(); err != nil {
					return err
				}
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}
	})

	if err := group.Wait(); err != nil {
		_ = registry.Close()
		return BuildStats{}, err
	}

	if !acc.Empty() {
		path, werr := WritePartial(opts.IndexStorage, len(partialPaths), acc.Snapshot())
		if werr != nil {
			_ = registry.Close()
			return BuildStats{}, werr
		}
		partialPaths = append(partialPaths, path)
		opts.Metrics.PartialFlushed()
	}

	docCount := registry.Count()
	if err := registry.Close(); err != nil {
		return BuildStats{}, err
	}

	for i := range partialPaths {
		if err := VerifyPartial(opts.IndexStorage, i); err != nil {
			return BuildStats{}, err
		}
	}

	mergeStart := time.Now()
	unifiedPath := filepath.Join(opts.IndexStorage, "unified.jsonl")
	if err := MergePartials(partialPaths, unifiedPath); err != nil {
		return BuildStats{}, err
	}
	opts.Metrics.ObserveMerge(time.Since(mergeStart))

	result, err := Rewrite(unifiedPath, filepath.Join(opts.IndexStorage, finalIndexFile), filepath.Join(opts.IndexStorage, metaIndexFile), docCount)
	if err != nil {
		return BuildStats{}, err
	}

	cleanupTransientFiles(opts.IndexStorage, len(partialPaths), unifiedPath)

	return BuildStats{
		DocsIndexed:  docCount,
		DocsSkipped:  docsSkipped,
		PartialFiles: len(partialPaths),
		Tokens:       result.Tokens,
		Duration:     time.Since(start),
	}, nil
}

// cleanupTransientFiles removes partial indexes, their checksums, and the
// unified index once the final artifacts have been written successfully.
func cleanupTransientFiles(dir string, partialCount int, unifiedPath string) {
	for i := 0; i < partialCount; i++ {
		_ = os.Remove(filepath.Join(dir, partialFileName(i)))
		_ = os.Remove(filepath.Join(dir, checksumFileName(i)))
	}
	_ = os.Remove(unifiedPath)
}

func tokenizeItem(item CorpusItem) ([]tokenizer.Occurrence, error) {
	return tokenizer.Tokenize([]byte(item.Content))
}
