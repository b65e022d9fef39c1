package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/proplens/proplens/internal/extract"
	"github.com/proplens/proplens/internal/model"
	appErr "github.com/proplens/proplens/internal/pkg/errors"
	"github.com/proplens/proplens/internal/repo"
)

type DocumentRegisterInput struct {
	Name    string
	DocType model.DocumentType
	Rows    []model.RawRow
}

// IngestService owns the document lifecycle: registration with raw rows,
// running the extraction pipeline, and the pending-document sweep.
type IngestService struct {
	documents   *repo.DocumentRepo
	coordinator *extract.Coordinator
}

func NewIngestService(documents *repo.DocumentRepo, coordinator *extract.Coordinator) *IngestService {
	return &IngestService{documents: documents, coordinator: coordinator}
}

func (s *IngestService) RegisterDocument(ctx context.Context, input DocumentRegisterInput) (*model.Document, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name required", appErr.ErrInvalid)
	}
	if !input.DocType.Valid() {
		return nil, fmt.Errorf("%w: unsupported doc_type %q", appErr.ErrInvalid, input.DocType)
	}
	if len(input.Rows) == 0 {
		return nil, fmt.Errorf("%w: rows required", appErr.ErrInvalid)
	}
	now := time.Now().UnixMilli()
	doc := &model.Document{
		ID:      newID(),
		Name:    input.Name,
		DocType: input.DocType,
		State:   model.DocumentStatePending,
		Ctime:   now,
		Mtime:   now,
	}
	if err := s.documents.Create(ctx, doc, input.Rows); err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}
	logutil.GetLogger(ctx).Info("document registered",
		zap.String("document_id", doc.ID),
		zap.String("doc_type", string(doc.DocType)),
		zap.Int("rows", len(input.Rows)))
	return doc, nil
}

func (s *IngestService) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return s.documents.Get(ctx, id)
}

func (s *IngestService) GetLastResult(ctx context.Context, id string) (json.RawMessage, error) {
	result, err := s.documents.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: document has no extraction result yet", appErr.ErrNotFound)
	}
	return result, nil
}

// ExtractDocument runs the pipeline for one document. A non-empty onlyChunks
// filter re-runs just those chunk indexes, for targeted recovery after a
// partial extraction.
func (s *IngestService) ExtractDocument(ctx context.Context, id string, onlyChunks []int) (*extract.DocumentResult, error) {
	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.documents.GetRows(ctx, id)
	if err != nil {
		return nil, err
	}
	claimed, err := s.documents.MarkExtracting(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mark extracting: %w", err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: extraction already in progress", appErr.ErrConflict)
	}

	result, err := s.coordinator.Run(ctx, id, doc.DocType, rows, onlyChunks)
	if err != nil {
		if stateErr := s.documents.UpdateState(context.WithoutCancel(ctx), id, model.DocumentStateFailed); stateErr != nil {
			logutil.GetLogger(ctx).Error("reset document state failed", zap.String("document_id", id), zap.Error(stateErr))
		}
		return nil, err
	}

	state := model.DocumentStateExtracted
	if result.Status == extract.StatusExtractionFailed {
		state = model.DocumentStateFailed
	}
	if err := s.documents.SaveResult(context.WithoutCancel(ctx), id, state, result); err != nil {
		return nil, fmt.Errorf("save extraction result: %w", err)
	}
	return result, nil
}

// ProcessPending extracts up to limit registered-but-unextracted documents.
// Used by the background sweep job.
func (s *IngestService) ProcessPending(ctx context.Context, limit int) error {
	docs, err := s.documents.ListByState(ctx, model.DocumentStatePending, limit)
	if err != nil {
		return fmt.Errorf("list pending documents: %w", err)
	}
	for _, doc := range docs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.ExtractDocument(ctx, doc.ID, nil); err != nil {
			logutil.GetLogger(ctx).Error("pending extraction failed",
				zap.String("document_id", doc.ID),
				zap.Error(err))
		}
	}
	return nil
}
