package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proplens/proplens/internal/config"
)

func newTestServer(t *testing.T, handler func(path string, body map[string]interface{}) interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		out := handler(r.URL.Path, body)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}))
}

func TestChromaStoreUpsert(t *testing.T) {
	var upserted map[string]interface{}
	srv := newTestServer(t, func(path string, body map[string]interface{}) interface{} {
		switch path {
		case "/api/v1/collections":
			require.Equal(t, "project_docs", body["name"])
			require.Equal(t, true, body["get_or_create"])
			return map[string]string{"id": "col-1"}
		case "/api/v1/collections/col-1/upsert":
			upserted = body
			return map[string]interface{}{}
		default:
			t.Fatalf("unexpected path: %s", path)
			return nil
		}
	})
	defer srv.Close()

	store := NewChromaStore(config.VectorConfig{BaseURL: srv.URL, Collection: "project_docs", TimeoutSeconds: 5})
	err := store.Upsert(context.Background(), []Item{
		{
			ID:        "doc-1:0:0",
			Text:      "Task: piling works, 10 days",
			Embedding: []float32{0.1, 0.2},
			Metadata:  map[string]string{"document_id": "doc-1", "chunk_index": "0", "building": ""},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, upserted)
	require.Equal(t, []interface{}{"doc-1:0:0"}, upserted["ids"])
	metas := upserted["metadatas"].([]interface{})
	require.Len(t, metas, 1)
	// empty metadata values are normalized, never sent as nulls
	require.Equal(t, "UNKNOWN", metas[0].(map[string]interface{})["building"])
}

func TestChromaStoreDeleteByProvenance(t *testing.T) {
	var deleted map[string]interface{}
	srv := newTestServer(t, func(path string, body map[string]interface{}) interface{} {
		switch path {
		case "/api/v1/collections":
			return map[string]string{"id": "col-1"}
		case "/api/v1/collections/col-1/delete":
			deleted = body
			return map[string]interface{}{}
		default:
			t.Fatalf("unexpected path: %s", path)
			return nil
		}
	})
	defer srv.Close()

	store := NewChromaStore(config.VectorConfig{BaseURL: srv.URL, Collection: "project_docs", TimeoutSeconds: 5})
	require.NoError(t, store.DeleteByProvenance(context.Background(), "doc-1", 3))
	// a top-level where takes exactly one operator, so both conditions must
	// sit under $and with explicit $eq
	where := deleted["where"].(map[string]interface{})
	require.Len(t, where, 1)
	and := where["$and"].([]interface{})
	require.Len(t, and, 2)
	first := and[0].(map[string]interface{})
	require.Equal(t, map[string]interface{}{"$eq": "doc-1"}, first["document_id"])
	second := and[1].(map[string]interface{})
	require.Equal(t, map[string]interface{}{"$eq": "3"}, second["chunk_index"])
}

func TestChromaStoreQuery(t *testing.T) {
	srv := newTestServer(t, func(path string, body map[string]interface{}) interface{} {
		switch path {
		case "/api/v1/collections":
			return map[string]string{"id": "col-1"}
		case "/api/v1/collections/col-1/query":
			require.EqualValues(t, 2, body["n_results"])
			return map[string]interface{}{
				"ids":       [][]string{{"a", "b"}},
				"documents": [][]string{{"first", "second"}},
				"metadatas": [][]map[string]string{{{"document_id": "doc-1"}, {"document_id": "doc-2"}}},
				"distances": [][]float64{{0.1, 0.4}},
			}
		default:
			t.Fatalf("unexpected path: %s", path)
			return nil
		}
	})
	defer srv.Close()

	store := NewChromaStore(config.VectorConfig{BaseURL: srv.URL, Collection: "project_docs", TimeoutSeconds: 5})
	results, err := store.Query(context.Background(), []float32{0.5, 0.5}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "a", results[0].ID)
	require.Equal(t, "first", results[0].Text)
	require.Equal(t, "doc-1", results[0].Metadata["document_id"])
	require.InDelta(t, 0.1, results[0].Distance, 1e-9)
}

func TestChromaStoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewChromaStore(config.VectorConfig{BaseURL: srv.URL, Collection: "project_docs", TimeoutSeconds: 5})
	err := store.Upsert(context.Background(), []Item{{ID: "x", Embedding: []float32{1}}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}
