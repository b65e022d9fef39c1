package service

import (
	"context"
	"fmt"
	"io"

	"github.com/proplens/proplens/internal/filestore"
	"github.com/proplens/proplens/internal/repo"
)

// FileService stores and serves the original source artifact of a document.
type FileService struct {
	store     filestore.Store
	documents *repo.DocumentRepo
}

func NewFileService(store filestore.Store, documents *repo.DocumentRepo) *FileService {
	return &FileService{store: store, documents: documents}
}

func artifactKey(documentID string) string {
	return documentID + ".src"
}

func (s *FileService) SaveArtifact(ctx context.Context, documentID string, r filestore.ReadSeekCloser, size int64) error {
	if _, err := s.documents.Get(ctx, documentID); err != nil {
		return err
	}
	if err := s.store.Save(ctx, artifactKey(documentID), r, size); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

func (s *FileService) OpenArtifact(ctx context.Context, documentID string) (io.ReadCloser, error) {
	if _, err := s.documents.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.Open(ctx, artifactKey(documentID))
}
