package indexing

import (
	"sort"

	"github.com/standardbeagle/htmlsearch/internal/tokenizer"
	"github.com/standardbeagle/htmlsearch/internal/types"
)

// accumEntry tracks the running term frequency and importance for one
// (token, doc) pair while it is still resident in the accumulator.
type accumEntry struct {
	tf         int
	importance int
}

// Accumulator is the in-memory partial inverted index: an ordered mapping
// token → {doc_id → (tf, importance)}, flushed to disk once its estimated
// footprint crosses a threshold.
//
// Ingestion order of doc IDs must be monotonically non-decreasing within
// one accumulator lifetime (guaranteed by the pipeline driver), so each
// posting list only ever needs a final sort by doc_id on flush, never a
// full re-sort mid-flight.
type Accumulator struct {
	tokens      map[string]map[types.DocID]*accumEntry
	threshold   int64
	approxBytes int64
}

// NewAccumulator creates an empty accumulator that flushes once its
// tracked footprint exceeds thresholdBytes.
func NewAccumulator(thresholdBytes int64) *Accumulator {
	return &Accumulator{
		tokens:    make(map[string]map[types.DocID]*accumEntry),
		threshold: thresholdBytes,
	}
}

// perEntryOverheadBytes is a rough estimate of the heap footprint of one
// (token, doc) entry: map bucket overhead plus the accumEntry struct
// itself. It doesn't need to be exact, only monotonic, since it exists
// purely to bound memory before should_flush fires.
const perEntryOverheadBytes = 64

// Ingest folds one document's token stream into the accumulator. For each
// (stem, weight) pair, tf is incremented by one and importance accumulates
// the weight — summation across occurrences, not a max, so a token's
// importance grows both with repetition and with tag prominence.
func (a *Accumulator) Ingest(docID types.DocID, occurrences []tokenizer.Occurrence) {
	for _, occ := range occurrences {
		docs, ok := a.tokens[occ.Stem]
		if !ok {
			docs = make(map[types.DocID]*accumEntry)
			a.tokens[occ.Stem] = docs
			a.approxBytes += int64(len(occ.Stem)) + perEntryOverheadBytes
		}
		entry, ok := docs[docID]
		if !ok {
			entry = &accumEntry{}
			docs[docID] = entry
			a.approxBytes += perEntryOverheadBytes
		}
		entry.tf++
		entry.importance += occ.Weight
	}
}

// ShouldFlush reports whether the accumulator's estimated footprint has
// crossed the configured threshold.
func (a *Accumulator) ShouldFlush() bool {
	return a.approxBytes > a.threshold
}

// Empty reports whether the accumulator holds no data.
func (a *Accumulator) Empty() bool {
	return len(a.tokens) == 0
}

// Snapshot drains the accumulator into a slice of BuildRecords sorted
// ascending by token, each with its posting list sorted ascending by
// doc_id, and resets the accumulator to empty.
func (a *Accumulator) Snapshot() []types.BuildRecord {
	records := make([]types.BuildRecord, 0, len(a.tokens))
	for token, docs := range a.tokens {
		postings := make([]types.BuildPosting, 0, len(docs))
		for docID, entry := range docs {
			postings = append(postings, types.BuildPosting{
				DocID:      docID,
				TF:         entry.tf,
				Importance: entry.importance,
			})
		}
		sort.Slice(postings, func(i, j int) bool { return postings[i].DocID < postings[j].DocID })
		records = append(records, types.BuildRecord{Token: token, Postings: postings})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Token < records[j].Token })

	a.tokens = make(map[string]map[types.DocID]*accumEntry)
	a.approxBytes = 0

	return records
}
