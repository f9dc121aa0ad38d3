package indexing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/htmlsearch/internal/tokenizer"
	"github.com/standardbeagle/htmlsearch/internal/types"
)

func TestAccumulatorIngestSumsImportance(t *testing.T) {
	acc := NewAccumulator(1 << 30)
	acc.Ingest(0, []tokenizer.Occurrence{{Stem: "cat", Weight: 10}, {Stem: "cat", Weight: 1}, {Stem: "cat", Weight: 1}, {Stem: "dog", Weight: 1}})
	acc.Ingest(1, []tokenizer.Occurrence{{Stem: "dog", Weight: 1}, {Stem: "dog", Weight: 1}, {Stem: "dog", Weight: 1}})

	records := acc.Snapshot()
	byToken := map[string]types.BuildRecord{}
	for _, r := range records {
		byToken[r.Token] = r
	}

	require.Len(t, byToken["cat"].Postings, 1)
	require.Equal(t, types.BuildPosting{DocID: 0, TF: 3, Importance: 12}, byToken["cat"].Postings[0])

	require.Len(t, byToken["dog"].Postings, 2)
	require.Equal(t, types.BuildPosting{DocID: 0, TF: 1, Importance: 1}, byToken["dog"].Postings[0])
	require.Equal(t, types.BuildPosting{DocID: 1, TF: 3, Importance: 3}, byToken["dog"].Postings[1])
}

func TestAccumulatorSnapshotSortedByToken(t *testing.T) {
	acc := NewAccumulator(1 << 30)
	acc.Ingest(0, []tokenizer.Occurrence{{Stem: "zebra", Weight: 1}, {Stem: "apple", Weight: 1}, {Stem: "mango", Weight: 1}})

	records := acc.Snapshot()
	require.Len(t, records, 3)
	require.Equal(t, "apple", records[0].Token)
	require.Equal(t, "mango", records[1].Token)
	require.Equal(t, "zebra", records[2].Token)
}

func TestAccumulatorSnapshotResets(t *testing.T) {
	acc := NewAccumulator(1 << 30)
	acc.Ingest(0, []tokenizer.Occurrence{{Stem: "a", Weight: 1}})
	require.False(t, acc.Empty())

	_ = acc.Snapshot()
	require.True(t, acc.Empty())
	require.False(t, acc.ShouldFlush())
}

func TestAccumulatorShouldFlush(t *testing.T) {
	acc := NewAccumulator(1) // any ingestion crosses this threshold
	require.False(t, acc.ShouldFlush())
	acc.Ingest(0, []tokenizer.Occurrence{{Stem: "a", Weight: 1}})
	require.True(t, acc.ShouldFlush())
}

func TestAccumulatorPostingListsSortedByDocID(t *testing.T) {
	acc := NewAccumulator(1 << 30)
	acc.Ingest(5, []tokenizer.Occurrence{{Stem: "x", Weight: 1}})
	acc.Ingest(6, []tokenizer.Occurrence{{Stem: "x", Weight: 1}})
	acc.Ingest(7, []tokenizer.Occurrence{{Stem: "x", Weight: 1}})

	records := acc.Snapshot()
	require.Len(t, records, 1)
	postings := records[0].Postings
	for i := 1; i < len(postings); i++ {
		require.Less(t, postings[i-1].DocID, postings[i].DocID)
	}
}
