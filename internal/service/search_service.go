package service

import (
	"context"
	"fmt"

	"github.com/proplens/proplens/internal/ai"
	appErr "github.com/proplens/proplens/internal/pkg/errors"
	"github.com/proplens/proplens/internal/vector"
)

const defaultSearchTopK = 5

type SearchResult struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"score"`
}

// SearchService answers free-text queries over the vector store.
type SearchService struct {
	embedder ai.IEmbedder
	store    vector.Store
}

func NewSearchService(embedder ai.IEmbedder, store vector.Store) *SearchService {
	return &SearchService{embedder: embedder, store: store}
}

func (s *SearchService) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query required", appErr.ErrInvalid)
	}
	if topK <= 0 {
		topK = defaultSearchTopK
	}
	embedding, err := s.embedder.Embed(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := s.store.Query(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, SearchResult{
			ID:       m.ID,
			Text:     m.Text,
			Metadata: m.Metadata,
			// cosine distance, lower is closer
			Score: 1 - m.Distance,
		})
	}
	return results, nil
}
