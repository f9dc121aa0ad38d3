// Package search implements the query engine: tokenize a query with the
// same tokenizer used at index time, resolve each token's posting list via
// the meta-index, accumulate scores, and select the top-k URLs.
package search

import (
	"bufio"
	"container/heap"
	"context"
	"encoding/json"
	"os"
	"sort"
	"time"

	ixerrors "github.com/standardbeagle/htmlsearch/internal/errors"
	"github.com/standardbeagle/htmlsearch/internal/metrics"
	"github.com/standardbeagle/htmlsearch/internal/tokenizer"
	"github.com/standardbeagle/htmlsearch/internal/types"
)

// Engine holds the immutable, process-lifetime query artifacts: the
// loaded meta-index, the URL registry, and an open handle on the final
// index file for positioned reads. Safe for concurrent use by multiple
// goroutines — each Search call only performs read-only ReadAt calls.
type Engine struct {
	final   *os.File
	meta    map[string]types.MetaEntry
	urls    []string
	metrics *metrics.Metrics
}

// Open loads the meta-index and URL registry into memory and opens the
// final index file for positioned reads. These artifacts are
// process-lifetime singletons: loaded once here and never mutated.
func Open(finalIndexPath, metaIndexPath, urlRegistryPath string, m *metrics.Metrics) (*Engine, error) {
	metaBytes, err := os.ReadFile(metaIndexPath)
	if err != nil {
		return nil, ixerrors.NewQueryError(ixerrors.ErrorTypeMetaIndexLoad, "read meta index", metaIndexPath, err)
	}
	var meta map[string]types.MetaEntry
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, ixerrors.NewQueryError(ixerrors.ErrorTypeMetaIndexLoad, "decode meta index", metaIndexPath, err)
	}

	urls, err := loadURLRegistry(urlRegistryPath)
	if err != nil {
		return nil, ixerrors.NewQueryError(ixerrors.ErrorTypeMetaIndexLoad, "read url registry", urlRegistryPath, err)
	}

	f, err := os.Open(finalIndexPath)
	if err != nil {
		return nil, ixerrors.NewQueryError(ixerrors.ErrorTypeFinalOpen, "open final index", finalIndexPath, err)
	}

	return &Engine{final: f, meta: meta, urls: urls, metrics: m}, nil
}

// Close releases the final index file handle.
func (e *Engine) Close() error {
	return e.final.Close()
}

func loadURLRegistry(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		urls = append(urls, scanner.Text())
	}
	return urls, scanner.Err()
}

// scoredDoc pairs a doc_id with its accumulated score, for top-k
// selection via a min-heap.
type scoredDoc struct {
	docID types.DocID
	score float64
}

// Search tokenizes query the same way documents are tokenized, resolves
// each distinct stem's posting list through the meta-index, accumulates
// per-document scores, and returns up to k URLs ranked by descending score
// (ties broken by ascending doc_id). An empty query, or a query whose
// tokens are all absent from the index, returns an empty (nil) result —
// never an error.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]string, error) {
	start := time.Now()
	defer func() { e.metrics.ObserveQuery(time.Since(start)) }()

	if k <= 0 {
		k = types.DefaultQueryK
	}

	seen := make(map[string]bool)
	var stems []string
	for _, occ := range tokenizer.TokenizePlain(query) {
		if seen[occ.Stem] {
			continue
		}
		seen[occ.Stem] = true
		stems = append(stems, occ.Stem)
	}
	if len(stems) == 0 {
		return nil, nil
	}

	scores := make(map[types.DocID]float64)
	for _, stem := range stems {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entry, ok := e.meta[stem]
		if !ok {
			continue // token absent from the index: contributes nothing, not an error
		}

		postings, err := e.readPostings(entry)
		if err != nil {
			return nil, ixerrors.NewQueryError(ixerrors.ErrorTypeFinalOpen, "read posting list for "+stem, "", err)
		}
		for _, p := range postings {
			scores[p.DocID] += p.TFIDF
		}

		// Cancellation is honored at posting-list boundaries rather than
		// mid-list, keeping the check cheap relative to I/O.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	top := topK(scores, k)
	urls := make([]string, 0, len(top))
	for _, sd := range top {
		if int(sd.docID) < len(e.urls) {
			urls = append(urls, e.urls[sd.docID])
		}
	}
	return urls, nil
}

func (e *Engine) readPostings(entry types.MetaEntry) ([]types.FinalPosting, error) {
	buf := make([]byte, entry.Length)
	if _, err := e.final.ReadAt(buf, int64(entry.Offset)); err != nil {
		return nil, err
	}
	var rec types.FinalRecord
	if err := json.Unmarshal(buf, &rec); err != nil {
		return nil, err
	}
	return rec.Postings, nil
}

// topK selects the k highest-scoring docs, descending by score with ties
// broken by ascending doc_id. Implemented as a bounded min-heap so memory
// stays O(k) regardless of how many documents scored.
func topK(scores map[types.DocID]float64, k int) []scoredDoc {
	h := &scoreHeap{}
	heap.Init(h)
	for docID, score := range scores {
		sd := scoredDoc{docID: docID, score: score}
		if h.Len() < k {
			heap.Push(h, sd)
			continue
		}
		if less(h.items[0], sd) {
			heap.Pop(h)
			heap.Push(h, sd)
		}
	}

	out := make([]scoredDoc, h.Len())
	copy(out, h.items)
	sort.Slice(out, func(i, j int) bool { return less(out[j], out[i]) })
	return out
}

// less reports whether a ranks below b: lower score first, and among
// equal scores, higher doc_id first (so the heap's root — the weakest
// kept candidate — is evicted first).
func less(a, b scoredDoc) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.docID > b.docID
}

type scoreHeap struct {
	items []scoredDoc
}

func (h *scoreHeap) Len() int           { return len(h.items) }
func (h *scoreHeap) Less(i, j int) bool { return less(h.items[i], h.items[j]) }
func (h *scoreHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *scoreHeap) Push(x any)         { h.items = append(h.items, x.(scoredDoc)) }
func (h *scoreHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
