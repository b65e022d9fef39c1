package extract

import (
	"fmt"

	"github.com/proplens/proplens/internal/model"
)

// ContentKind selects the prompt and parser used for a chunk.
type ContentKind string

const (
	KindSchedule   ContentKind = "schedule"
	KindRegulatory ContentKind = "regulatory"
)

// KindForDocument maps a stored document type to its extraction kind.
func KindForDocument(docType model.DocumentType) (ContentKind, error) {
	switch docType {
	case model.DocTypeSchedule:
		return KindSchedule, nil
	case model.DocTypeRegulatory:
		return KindRegulatory, nil
	default:
		return "", fmt.Errorf("no extraction kind for document type %q", docType)
	}
}

// Chunk is a contiguous slice of document rows dispatched as one model call.
type Chunk struct {
	DocumentID string
	Index      int
	Kind       ContentKind
	Rows       []model.RawRow
}

// ErrorClass partitions chunk failures by how the pool should react.
type ErrorClass string

const (
	ClassTimeout       ErrorClass = "timeout"
	ClassServiceError  ErrorClass = "service_error"
	ClassParseFailure  ErrorClass = "parse_failure"
	ClassCommitFailure ErrorClass = "commit_failure"
	ClassCancelled     ErrorClass = "cancelled"
)

// Retryable reports whether another attempt can plausibly succeed. Parse
// failures are deterministic for a given response, so they are not retried.
func (c ErrorClass) Retryable() bool {
	switch c {
	case ClassTimeout, ClassServiceError, ClassCommitFailure:
		return true
	default:
		return false
	}
}

// ChunkError is a classified failure for one chunk attempt.
type ChunkError struct {
	Class   ErrorClass
	Message string
	Err     error
}

func (e *ChunkError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Class, e.Message)
	}
	return string(e.Class)
}

func (e *ChunkError) Unwrap() error { return e.Err }

func newChunkError(class ErrorClass, err error, format string, args ...interface{}) *ChunkError {
	return &ChunkError{Class: class, Message: fmt.Sprintf(format, args...), Err: err}
}

// DroppedRow records an element rejected during parsing, with the reason kept
// for the extraction report.
type DroppedRow struct {
	Reason string `json:"reason"`
	Raw    string `json:"raw,omitempty"`
}

// CommitUnit is the parsed, validated output of one chunk, ready for the
// dual-store commit.
type CommitUnit struct {
	DocumentID string
	ChunkIndex int
	Tasks      []model.ProjectTask
	Rules      []model.RegulatoryRule
	Chunks     []model.SemanticChunk
	Dropped    []DroppedRow
}

// EntityCount reports how many validated entities the unit carries.
func (u *CommitUnit) EntityCount() int {
	return len(u.Tasks) + len(u.Rules)
}
