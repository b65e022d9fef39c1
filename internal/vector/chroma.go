package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/proplens/proplens/internal/config"
)

// ChromaStore talks to a Chroma-compatible HTTP server. The collection is
// created lazily with get_or_create so a fresh server works out of the box.
type ChromaStore struct {
	baseURL    string
	collection string
	client     *http.Client

	mu           sync.Mutex
	collectionID string
}

func NewChromaStore(cfg config.VectorConfig) *ChromaStore {
	return &ChromaStore{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		collection: cfg.Collection,
		client:     &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

type chromaCollectionRequest struct {
	Name        string            `json:"name"`
	GetOrCreate bool              `json:"get_or_create"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type chromaCollectionResponse struct {
	ID string `json:"id"`
}

type chromaUpsertRequest struct {
	IDs        []string            `json:"ids"`
	Embeddings [][]float32         `json:"embeddings"`
	Documents  []string            `json:"documents"`
	Metadatas  []map[string]string `json:"metadatas"`
}

type chromaDeleteRequest struct {
	IDs   []string               `json:"ids,omitempty"`
	Where map[string]interface{} `json:"where,omitempty"`
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type chromaQueryResponse struct {
	IDs       [][]string            `json:"ids"`
	Documents [][]string            `json:"documents"`
	Metadatas [][]map[string]string `json:"metadatas"`
	Distances [][]float64           `json:"distances"`
}

func (s *ChromaStore) Upsert(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}
	req := chromaUpsertRequest{
		IDs:        make([]string, 0, len(items)),
		Embeddings: make([][]float32, 0, len(items)),
		Documents:  make([]string, 0, len(items)),
		Metadatas:  make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		req.IDs = append(req.IDs, item.ID)
		req.Embeddings = append(req.Embeddings, item.Embedding)
		req.Documents = append(req.Documents, item.Text)
		req.Metadatas = append(req.Metadatas, sanitizeMetadata(item.Metadata))
	}
	return s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/upsert", collectionID), req, nil)
}

func (s *ChromaStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}
	return s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/delete", collectionID), chromaDeleteRequest{IDs: ids}, nil)
}

func (s *ChromaStore) DeleteByProvenance(ctx context.Context, documentID string, chunkIndex int) error {
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}
	// chroma accepts a single operator per where; multiple conditions go
	// under $and
	req := chromaDeleteRequest{Where: map[string]interface{}{
		"$and": []map[string]interface{}{
			{"document_id": map[string]interface{}{"$eq": documentID}},
			{"chunk_index": map[string]interface{}{"$eq": strconv.Itoa(chunkIndex)}},
		},
	}}
	return s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/delete", collectionID), req, nil)
}

func (s *ChromaStore) Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error) {
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}
	req := chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Include:         []string{"documents", "metadatas", "distances"},
	}
	var out chromaQueryResponse
	if err := s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/query", collectionID), req, &out); err != nil {
		return nil, err
	}
	if len(out.IDs) == 0 {
		return nil, nil
	}
	results := make([]QueryResult, 0, len(out.IDs[0]))
	for i, id := range out.IDs[0] {
		res := QueryResult{ID: id}
		if len(out.Documents) > 0 && i < len(out.Documents[0]) {
			res.Text = out.Documents[0][i]
		}
		if len(out.Metadatas) > 0 && i < len(out.Metadatas[0]) {
			res.Metadata = out.Metadatas[0][i]
		}
		if len(out.Distances) > 0 && i < len(out.Distances[0]) {
			res.Distance = out.Distances[0][i]
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *ChromaStore) ensureCollection(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionID != "" {
		return s.collectionID, nil
	}
	req := chromaCollectionRequest{
		Name:        s.collection,
		GetOrCreate: true,
		Metadata:    map[string]string{"hnsw:space": "cosine"},
	}
	var out chromaCollectionResponse
	if err := s.post(ctx, "/api/v1/collections", req, &out); err != nil {
		return "", fmt.Errorf("ensure collection %s: %w", s.collection, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("vector store returned empty collection id")
	}
	s.collectionID = out.ID
	return s.collectionID, nil
}

func (s *ChromaStore) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector store request failed: %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// sanitizeMetadata drops empty values; the chroma API rejects nulls.
func sanitizeMetadata(meta map[string]string) map[string]string {
	clean := make(map[string]string, len(meta))
	for k, v := range meta {
		if v == "" {
			v = "UNKNOWN"
		}
		clean[k] = v
	}
	return clean
}
