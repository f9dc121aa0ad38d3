// Package types holds the shared data shapes of the indexing and query
// pipelines: document identity, posting tuples, and the tag-weight table.
package types

// DocID is a dense, monotonically assigned document identifier in [0, N).
// It is never reused or reordered once assigned (see internal/indexing
// registry.go).
type DocID uint32

// Default tuning knobs. Overridable via internal/config.
const (
	// DefaultSpillThresholdBytes is the accumulator memory footprint above
	// which a partial index is flushed to disk.
	DefaultSpillThresholdBytes int64 = 256 * 1024 * 1024

	// DefaultQueryK is the number of ranked results returned by a query
	// when the caller does not specify one.
	DefaultQueryK = 5
)

// TagWeight maps an innermost semantic HTML tag to its importance
// multiplier. "p" and text outside any listed tag use DefaultTagWeight;
// other tags absent from this table keep the weight of their nearest
// enclosing listed tag.
var TagWeight = map[string]int{
	"title":  10,
	"h1":     7,
	"h2":     6,
	"h3":     5,
	"h4":     4,
	"h5":     3,
	"h6":     2,
	"b":      2,
	"strong": 2,
}

// DefaultTagWeight is the importance assigned to a token under "p" or not
// enclosed by any tag listed in TagWeight.
const DefaultTagWeight = 1

// BuildPosting is a construction-phase posting: per-document term
// frequency and aggregate tag importance, before TF·IDF has been computed.
type BuildPosting struct {
	DocID      DocID `json:"docID"`
	TF         int   `json:"tf"`
	Importance int   `json:"importance"`
}

// FinalPosting is a scored posting as it appears in the final index: the
// document and its weighted TF·IDF contribution for one token.
type FinalPosting struct {
	DocID DocID   `json:"docID"`
	TFIDF float64 `json:"tf_idf"`
}

// BuildRecord is one line of a partial index or the unified index: a
// token and its (still unscored) posting list, sorted ascending by DocID.
type BuildRecord struct {
	Token    string         `json:"token"`
	Postings []BuildPosting `json:"postings"`
}

// FinalRecord is one line of the final index file.
type FinalRecord struct {
	Token    string         `json:"token"`
	Postings []FinalPosting `json:"postings"`
}

// MetaEntry is the byte range of one token's record inside the final
// index file, enabling O(1)-seek posting retrieval.
type MetaEntry struct {
	Offset uint64 `json:"offset"`
	Length uint32 `json:"length"`
}
