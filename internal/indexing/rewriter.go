package indexing

import (
	"bufio"
	"encoding/json"
	"math"
	"os"

	ixerrors "github.com/standardbeagle/htmlsearch/internal/errors"
	"github.com/standardbeagle/htmlsearch/internal/types"
)

// RewriteResult summarizes a completed TF·IDF rewrite pass.
type RewriteResult struct {
	Tokens int
}

// Rewrite streams the unified index one token at a time, computes the
// weighted TF·IDF for every posting, and writes the final index plus its
// meta-index. docCount is N, the total number of indexed documents,
// supplied by the document registry.
//
// idf = log10(N/df); when df == N (every document contains the term), idf
// is 0 but the posting list is still emitted — those postings contribute
// zero to every score but remain present in the index.
func Rewrite(unifiedPath, finalIndexPath, metaIndexPath string, docCount int) (RewriteResult, error) {
	in, err := os.Open(unifiedPath)
	if err != nil {
		return RewriteResult{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "open unified index", err)
	}
	defer in.Close()

	out, err := os.Create(finalIndexPath)
	if err != nil {
		return RewriteResult{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "create final index", err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	meta := make(map[string]types.MetaEntry)
	var offset uint64

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		var rec types.BuildRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return RewriteResult{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeMergeMalformed, "decode unified record", err)
		}

		final := scoreRecord(rec, docCount)

		line, err := json.Marshal(final)
		if err != nil {
			return RewriteResult{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "marshal final record", err)
		}

		meta[final.Token] = types.MetaEntry{Offset: offset, Length: uint32(len(line))}

		if _, err := w.Write(line); err != nil {
			return RewriteResult{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "write final record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return RewriteResult{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "write final record", err)
		}
		offset += uint64(len(line)) + 1
	}
	if err := scanner.Err(); err != nil {
		return RewriteResult{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeMergeMalformed, "read unified index", err)
	}
	if err := w.Flush(); err != nil {
		return RewriteResult{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "flush final index", err)
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return RewriteResult{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "marshal meta-index", err)
	}
	if err := os.WriteFile(metaIndexPath, metaBytes, 0o644); err != nil {
		return RewriteResult{}, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "write meta-index", err)
	}

	return RewriteResult{Tokens: len(meta)}, nil
}

// scoreRecord computes the final, scored posting list for one token.
func scoreRecord(rec types.BuildRecord, docCount int) types.FinalRecord {
	df := len(rec.Postings)

	var idf float64
	if df > 0 && df != docCount {
		idf = math.Log10(float64(docCount) / float64(df))
	}
	// df == docCount (or df == 0, which can't happen for a stored record)
	// leaves idf at its zero value: every document contains the term, so
	// it carries no discriminating power.

	postings := make([]types.FinalPosting, len(rec.Postings))
	for i, p := range rec.Postings {
		tfidf := ScoreTFIDF(p.Importance, p.TF, idf)
		postings[i] = types.FinalPosting{DocID: p.DocID, TFIDF: tfidf}
	}

	return types.FinalRecord{Token: rec.Token, Postings: postings}
}

// ScoreTFIDF computes the weighted TF·IDF contribution of one posting:
// importance × (1 + log10(tf)) × idf. tf is always ≥ 1 for a stored
// posting, so (1 + log10(tf)) is always ≥ 1.
func ScoreTFIDF(importance, tf int, idf float64) float64 {
	return float64(importance) * (1 + math.Log10(float64(tf))) * idf
}
