package indexing

import (
	"bufio"
	"container/heap"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	ixerrors "github.com/standardbeagle/htmlsearch/internal/errors"
	"github.com/standardbeagle/htmlsearch/internal/types"
)

// maxLineSize bounds a single partial-index record line. A token with an
// extremely large posting list (common-word tokens over a 100k+ doc
// corpus) can produce a multi-megabyte JSON line.
const maxLineSize = 64 * 1024 * 1024

// partialReader streams one partial index file one record at a time,
// never materializing more of it than the current line.
type partialReader struct {
	file    *os.File
	scanner *bufio.Scanner
	current *types.BuildRecord
	err     error
}

func newPartialReader(path string) (*partialReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	r := &partialReader{file: f, scanner: scanner}
	r.advance()
	return r, r.err
}

// advance reads the next record into r.current, or sets r.current to nil
// at EOF. A JSON decode failure is recorded in r.err and treated as fatal
// by the caller.
func (r *partialReader) advance() {
	if !r.scanner.Scan() {
		r.current = nil
		if err := r.scanner.Err(); err != nil {
			r.err = err
		}
		return
	}
	var rec types.BuildRecord
	line := r.scanner.Bytes()
	if err := json.Unmarshal(line, &rec); err != nil {
		r.err = fmt.Errorf("malformed partial record: %w", err)
		r.current = nil
		return
	}
	r.current = &rec
}

func (r *partialReader) Close() error {
	return r.file.Close()
}

// mergeItem is one heap entry: the token of a partial's current record
// and which partial it came from.
type mergeItem struct {
	token      string
	partialIdx int
}

type mergeHeap []mergeItem

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return h[i].token < h[j].token }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(mergeItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MergePartials performs a classical k-way streaming merge: a min-heap
// keyed by (token, partial_file_id), emitting one unified record per
// distinct token with posting lists concatenated in
// ascending partial-file-id order (which, because each partial covers a
// disjoint ascending doc_id range, yields a globally doc_id-sorted list
// without needing to re-sort). Output is a single line-delimited file,
// sorted ascending by token. Memory use is O(k): each partial contributes
// at most one record in flight at a time.
func MergePartials(partialPaths []string, outPath string) (err error) {
	readers := make([]*partialReader, len(partialPaths))
	for i, p := range partialPaths {
		r, openErr := newPartialReader(p)
		if openErr != nil {
			return ixerrors.NewIndexingError(ixerrors.ErrorTypeMergeMalformed, "open partial", openErr)
		}
		readers[i] = r
	}
	defer func() {
		for _, r := range readers {
			_ = r.Close()
		}
	}()

	out, err := os.Create(outPath)
	if err != nil {
		return ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "create unified index", err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	h := &mergeHeap{}
	heap.Init(h)
	for i, r := range readers {
		if r.err != nil {
			return ixerrors.NewIndexingError(ixerrors.ErrorTypeMergeMalformed, "read partial", r.err)
		}
		if r.current != nil {
			heap.Push(h, mergeItem{token: r.current.Token, partialIdx: i})
		}
	}

	for h.Len() > 0 {
		top := heap.Pop(h).(mergeItem)
		token := top.token
		group := []int{top.partialIdx}

		for h.Len() > 0 && (*h)[0].token == token {
			next := heap.Pop(h).(mergeItem)
			group = append(group, next.partialIdx)
		}
		sort.Ints(group)

		var merged []types.BuildPosting
		for _, idx := range group {
			r := readers[idx]
			merged = append(merged, r.current.Postings...)
			r.advance()
			if r.err != nil {
				return ixerrors.NewIndexingError(ixerrors.ErrorTypeMergeMalformed, "read partial", r.err)
			}
			if r.current != nil {
				heap.Push(h, mergeItem{token: r.current.Token, partialIdx: idx})
			}
		}

		line, err := json.Marshal(types.BuildRecord{Token: token, Postings: merged})
		if err != nil {
			return ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "marshal unified record", err)
		}
		if _, err := w.Write(line); err != nil {
			return ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "write unified record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "write unified record", err)
		}
	}

	if err := w.Flush(); err != nil {
		return ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "flush unified index", err)
	}
	return nil
}

var _ io.Closer = (*partialReader)(nil)
