package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/proplens/proplens/internal/model"
	appErr "github.com/proplens/proplens/internal/pkg/errors"
)

// DocumentStatus is the aggregate verdict for one pipeline run.
type DocumentStatus string

const (
	StatusFullyExtracted     DocumentStatus = "fully_extracted"
	StatusPartiallyExtracted DocumentStatus = "partially_extracted"
	StatusExtractionFailed   DocumentStatus = "extraction_failed"
)

// ChunkErrorRecord describes one terminally failed or cancelled chunk so the
// caller can resubmit exactly those indexes.
type ChunkErrorRecord struct {
	ChunkIndex int    `json:"chunk_index"`
	Class      string `json:"class"`
	Message    string `json:"message"`
	Attempts   int    `json:"attempts"`
}

// DocumentResult is the only output of a pipeline run.
type DocumentResult struct {
	DocumentID      string             `json:"document_id"`
	Status          DocumentStatus     `json:"status"`
	TotalChunks     int                `json:"total_chunks"`
	CommittedChunks int                `json:"committed_chunks"`
	Entities        int                `json:"entities"`
	DroppedRows     int                `json:"dropped_rows"`
	ChunkErrors     []ChunkErrorRecord `json:"chunk_errors,omitempty"`
	ElapsedMs       int64              `json:"elapsed_ms"`
}

// Coordinator drives one document through chunking, dispatch and commit. All
// tuning comes from the config it was constructed with, so several
// coordinators with different settings can coexist in one process.
type Coordinator struct {
	client          *ModelClient
	pool            *Pool
	committer       *Committer
	maxRowsPerChunk int
}

func NewCoordinator(client *ModelClient, pool *Pool, committer *Committer, maxRowsPerChunk int) *Coordinator {
	return &Coordinator{
		client:          client,
		pool:            pool,
		committer:       committer,
		maxRowsPerChunk: maxRowsPerChunk,
	}
}

// Run extracts a whole document. With a non-empty onlyChunks filter it re-runs
// just those chunk indexes against the same deterministic split, leaving the
// other chunks' committed data untouched.
func (c *Coordinator) Run(ctx context.Context, documentID string, docType model.DocumentType, rows []model.RawRow, onlyChunks []int) (*DocumentResult, error) {
	kind, err := KindForDocument(docType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrInvalid, err)
	}
	chunks, err := SplitRows(documentID, kind, rows, c.maxRowsPerChunk)
	if err != nil {
		return nil, err
	}
	if len(onlyChunks) > 0 {
		chunks, err = filterChunks(chunks, onlyChunks)
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()
	outcomes := c.pool.Process(ctx, chunks, c.runChunk)

	result := &DocumentResult{DocumentID: documentID, TotalChunks: len(chunks)}
	for _, o := range outcomes {
		switch o.State {
		case StateCommitted:
			result.CommittedChunks++
			result.Entities += o.Entities
			result.DroppedRows += o.Dropped
		default:
			result.ChunkErrors = append(result.ChunkErrors, ChunkErrorRecord{
				ChunkIndex: o.Index,
				Class:      string(o.Class),
				Message:    o.Message,
				Attempts:   o.Attempts,
			})
		}
	}
	result.Status = aggregateStatus(result.TotalChunks, result.CommittedChunks)
	result.ElapsedMs = time.Since(start).Milliseconds()

	logutil.GetLogger(ctx).Info("document extraction finished",
		zap.String("document_id", documentID),
		zap.String("status", string(result.Status)),
		zap.Int("total_chunks", result.TotalChunks),
		zap.Int("committed_chunks", result.CommittedChunks),
		zap.Int("entities", result.Entities),
		zap.Int64("elapsed_ms", result.ElapsedMs))
	return result, nil
}

func (c *Coordinator) runChunk(ctx context.Context, chunk Chunk) (*RunResult, *ChunkError) {
	resp := c.client.Call(ctx, ModelRequest{ChunkIndex: chunk.Index, Prompt: BuildPrompt(chunk)})
	switch resp.Outcome {
	case OutcomeTimeout:
		return nil, newChunkError(ClassTimeout, resp.Err, "model call exceeded timeout")
	case OutcomeServiceError:
		return nil, newChunkError(ClassServiceError, resp.Err, "model call failed")
	}
	unit, cerr := ParseResponse(chunk, resp.RawText)
	if cerr != nil {
		return nil, cerr
	}
	if cerr := c.committer.Commit(ctx, unit); cerr != nil {
		return nil, cerr
	}
	return &RunResult{Entities: unit.EntityCount(), Dropped: len(unit.Dropped)}, nil
}

func filterChunks(chunks []Chunk, only []int) ([]Chunk, error) {
	wanted := make(map[int]struct{}, len(only))
	for _, idx := range only {
		if idx < 0 || idx >= len(chunks) {
			return nil, fmt.Errorf("%w: chunk index %d out of range [0,%d)", appErr.ErrInvalid, idx, len(chunks))
		}
		wanted[idx] = struct{}{}
	}
	filtered := make([]Chunk, 0, len(wanted))
	for _, chunk := range chunks {
		if _, ok := wanted[chunk.Index]; ok {
			filtered = append(filtered, chunk)
		}
	}
	return filtered, nil
}

// A run with zero chunks (empty document) counts as fully extracted.
// Cancelled chunks count as not committed, so a cancelled run degrades to
// partial or failed like any other incomplete one.
func aggregateStatus(total, committed int) DocumentStatus {
	switch {
	case committed == total:
		return StatusFullyExtracted
	case committed > 0:
		return StatusPartiallyExtracted
	default:
		return StatusExtractionFailed
	}
}
