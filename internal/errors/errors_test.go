package errors

import (
	"errors"
	"testing"

	"github.com/standardbeagle/htmlsearch/internal/types"
)

func TestIndexingError(t *testing.T) {
	underlying := errors.New("malformed json")
	err := NewIndexingError(ErrorTypeCorpusMalformed, "decode corpus item", underlying).
		WithDocument(types.DocID(7), "https://example.com/page").
		WithRecoverable(true)

	if err.Type != ErrorTypeCorpusMalformed {
		t.Errorf("expected Type %v, got %v", ErrorTypeCorpusMalformed, err.Type)
	}
	if err.DocID != types.DocID(7) {
		t.Errorf("expected DocID 7, got %d", err.DocID)
	}
	if !errors.Is(err, underlying) {
		t.Error("expected error to unwrap to underlying")
	}
	if !err.IsRecoverable() {
		t.Error("expected error to be marked recoverable")
	}

	expected := "corpus_malformed decode corpus item failed for https://example.com/page: malformed json"
	if err.Error() != expected {
		t.Errorf("expected message %q, got %q", expected, err.Error())
	}
}

func TestIndexingErrorWithoutURL(t *testing.T) {
	underlying := errors.New("disk full")
	err := NewIndexingError(ErrorTypeSpillIO, "flush partial", underlying)

	expected := "spill_io flush partial failed: disk full"
	if err.Error() != expected {
		t.Errorf("expected message %q, got %q", expected, err.Error())
	}
	if err.IsRecoverable() {
		t.Error("spill I/O errors default to non-recoverable")
	}
}

func TestQueryError(t *testing.T) {
	underlying := errors.New("no such file")
	err := NewQueryError(ErrorTypeFinalOpen, "open", "/data/index/index.jsonl", underlying)

	if !errors.Is(err, underlying) {
		t.Error("expected error to unwrap to underlying")
	}

	expected := "final_index_open open failed for /data/index/index.jsonl: no such file"
	if err.Error() != expected {
		t.Errorf("expected message %q, got %q", expected, err.Error())
	}
}
