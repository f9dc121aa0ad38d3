// Package errors defines the typed error family used across the indexing
// and query pipelines: tagged structs carrying an ErrorType and context,
// with Unwrap exposing the underlying cause.
package errors

import (
	"fmt"
	"time"

	"github.com/standardbeagle/htmlsearch/internal/types"
)

// ErrorType classifies an error for logging and recovery decisions.
type ErrorType string

const (
	// Corpus/indexing errors.
	ErrorTypeCorpusMalformed ErrorType = "corpus_malformed"
	ErrorTypeSpillIO         ErrorType = "spill_io"
	ErrorTypeMergeMalformed  ErrorType = "merge_malformed"
	ErrorTypeFinalWrite      ErrorType = "final_write"

	// Query errors.
	ErrorTypeMetaIndexLoad ErrorType = "meta_index_load"
	ErrorTypeFinalOpen     ErrorType = "final_index_open"
)

// IndexingError represents an error encountered while building the index.
// Only a malformed corpus item is recoverable; every other error type is
// fatal to the run.
type IndexingError struct {
	Type        ErrorType
	DocID       types.DocID
	URL         string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewIndexingError creates an indexing error with context.
func NewIndexingError(errType ErrorType, op string, err error) *IndexingError {
	return &IndexingError{
		Type:       errType,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithDocument attaches document identity to the error.
func (e *IndexingError) WithDocument(docID types.DocID, url string) *IndexingError {
	e.DocID = docID
	e.URL = url
	return e
}

// WithRecoverable marks whether indexing can continue past this error.
func (e *IndexingError) WithRecoverable(recoverable bool) *IndexingError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface.
func (e *IndexingError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.URL, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap allows errors.Is/errors.As to see the underlying cause.
func (e *IndexingError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether indexing can skip this error and continue.
func (e *IndexingError) IsRecoverable() bool {
	return e.Recoverable
}

// QueryError represents a structured startup error in the query engine
// (meta-index or final index could not be loaded/opened). A query token
// absent from the index is deliberately NOT represented here: it simply
// contributes nothing to scoring, not an error condition.
type QueryError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewQueryError creates a query engine startup error.
func NewQueryError(errType ErrorType, op, path string, err error) *QueryError {
	return &QueryError{
		Type:       errType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Path, e.Underlying)
}

func (e *QueryError) Unwrap() error {
	return e.Underlying
}
