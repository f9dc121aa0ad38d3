package indexing

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	ixerrors "github.com/standardbeagle/htmlsearch/internal/errors"
	"github.com/standardbeagle/htmlsearch/internal/types"
)

// partialFileName returns the deterministic name of the k-th partial
// index file.
func partialFileName(seq int) string {
	return fmt.Sprintf("partial_%d.jsonl", seq)
}

// checksumFileName returns the sidecar file holding the xxhash64 checksum
// of a partial index, checked by BuildIndex before the merge to detect
// corruption before trusting a spilled file: a malformed partial must fail
// the run fatally rather than silently produce a wrong index.
func checksumFileName(seq int) string {
	return fmt.Sprintf("partial_%d.xxh64", seq)
}

// WritePartial serializes an accumulator snapshot to
// dir/partial_{seq}.jsonl: one line per token, sorted ascending, each line
// a JSON object `{"token": ..., "postings": [...]}`. A companion
// .xxh64 file records the content checksum so VerifyPartial can confirm
// the file wasn't truncated or corrupted by a crash mid-write.
func WritePartial(dir string, seq int, records []types.BuildRecord) (string, error) {
	path := filepath.Join(dir, partialFileName(seq))

	f, err := os.Create(path)
	if err != nil {
		return "", ixerrors.NewIndexingError(ixerrors.ErrorTypeSpillIO, "create partial", err)
	}
	defer f.Close()

	hasher := xxhash.New()
	w := bufio.NewWriter(newTeeWriter(f, hasher))

	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return "", ixerrors.NewIndexingError(ixerrors.ErrorTypeSpillIO, "marshal partial record", err)
		}
		if _, err := w.Write(line); err != nil {
			return "", ixerrors.NewIndexingError(ixerrors.ErrorTypeSpillIO, "write partial record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return "", ixerrors.NewIndexingError(ixerrors.ErrorTypeSpillIO, "write partial record", err)
		}
	}

	if err := w.Flush(); err != nil {
		return "", ixerrors.NewIndexingError(ixerrors.ErrorTypeSpillIO, "flush partial", err)
	}
	if err := f.Sync(); err != nil {
		return "", ixerrors.NewIndexingError(ixerrors.ErrorTypeSpillIO, "sync partial", err)
	}

	sum := fmt.Sprintf("%x", hasher.Sum64())
	if err := os.WriteFile(filepath.Join(dir, checksumFileName(seq)), []byte(sum), 0o644); err != nil {
		return "", ixerrors.NewIndexingError(ixerrors.ErrorTypeSpillIO, "write partial checksum", err)
	}

	return path, nil
}

// VerifyPartial recomputes the xxhash64 checksum of a partial file and
// compares it against its sidecar. A mismatch means the file is malformed
// (truncated write, disk corruption) and the merge must abort fatally.
func VerifyPartial(dir string, seq int) error {
	path := filepath.Join(dir, partialFileName(seq))
	data, err := os.ReadFile(path)
	if err != nil {
		return ixerrors.NewIndexingError(ixerrors.ErrorTypeMergeMalformed, "read partial", err)
	}

	wantBytes, err := os.ReadFile(filepath.Join(dir, checksumFileName(seq)))
	if err != nil {
		return ixerrors.NewIndexingError(ixerrors.ErrorTypeMergeMalformed, "read partial checksum", err)
	}

	got := fmt.Sprintf("%x", xxhash.Sum64(data))
	if got != string(wantBytes) {
		return ixerrors.NewIndexingError(ixerrors.ErrorTypeMergeMalformed, "verify partial checksum",
			fmt.Errorf("checksum mismatch for %s: got %s, want %s", path, got, string(wantBytes)))
	}
	return nil
}

// newTeeWriter lets a single write pass through to both the destination
// file and the running hash without buffering twice.
func newTeeWriter(f *os.File, h *xxhash.Digest) *teeWriter {
	return &teeWriter{f: f, h: h}
}

type teeWriter struct {
	f *os.File
	h *xxhash.Digest
}

func (t *teeWriter) Write(p []byte) (int, error) {
	if _, err := t.h.Write(p); err != nil {
		return 0, err
	}
	return t.f.Write(p)
}
