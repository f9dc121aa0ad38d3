package indexing

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	ixerrors "github.com/standardbeagle/htmlsearch/internal/errors"
	"github.com/standardbeagle/htmlsearch/internal/types"
)

// CorpusItem is the on-disk shape of one corpus document:
// CORPUS_PATH/<subdir>/<md5>.json → {"url": ..., "content": ...}.
// Subdirectory names are advisory and ignored.
type CorpusItem struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// DocumentRegistry assigns monotonically increasing doc IDs during corpus
// traversal and persists the ID→URL mapping as urls.txt, one URL per
// line, where line k (1-indexed) is the URL of doc_id = k-1.
type DocumentRegistry struct {
	f     *os.File
	w     *bufio.Writer
	count types.DocID
}

// NewDocumentRegistry creates (truncating any existing) the URL registry
// file at path.
func NewDocumentRegistry(path string) (*DocumentRegistry, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "create url registry", err)
	}
	return &DocumentRegistry{f: f, w: bufio.NewWriter(f)}, nil
}

// Assign records url as the next document and returns its doc_id.
func (r *DocumentRegistry) Assign(url string) (types.DocID, error) {
	id := r.count
	if _, err := r.w.WriteString(url); err != nil {
		return 0, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "append url registry", err)
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return 0, ixerrors.NewIndexingError(ixerrors.ErrorTypeFinalWrite, "append url registry", err)
	}
	r.count++
	return id, nil
}

// Count returns N, the number of documents assigned so far.
func (r *DocumentRegistry) Count() int {
	return int(r.count)
}

// Close flushes and closes the URL registry file.
func (r *DocumentRegistry) Close() error {
	if err := r.w.Flush(); err != nil {
		return err
	}
	return r.f.Close()
}

// WalkCorpus traverses root in deterministic (lexicographically sorted)
// order, invoking onItem for every well-formed `*.json` corpus file not
// matched by an exclude glob. Malformed items (bad JSON, missing url) are
// reported via onMalformed and skipped — they never receive a doc_id.
// Any other I/O error walking the tree aborts the walk.
func WalkCorpus(root string, exclude []string, onItem func(item CorpusItem) error, onMalformed func(path string, err error)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range exclude {
			if matched, _ := doublestar.Match(pattern, rel); matched {
				return nil
			}
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			onMalformed(path, readErr)
			return nil
		}

		var item CorpusItem
		if decodeErr := json.Unmarshal(data, &item); decodeErr != nil {
			onMalformed(path, decodeErr)
			return nil
		}
		if item.URL == "" {
			onMalformed(path, fmt.Errorf("missing url field"))
			return nil
		}

		return onItem(item)
	})
}

// LogMalformed is the default onMalformed callback: log a warning and
// continue, so a malformed corpus item is skipped rather than aborting
// the whole run.
func LogMalformed(path string, err error) {
	log.Printf("Warning: skipping malformed corpus item %s: %v", path, err)
}
