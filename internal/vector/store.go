package vector

import "context"

// Item is one embedding-source text plus its vector and provenance metadata.
type Item struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

type QueryResult struct {
	ID       string
	Text     string
	Metadata map[string]string
	Distance float64
}

// Store is the vector half of the dual-store commit. It cannot participate in
// the relational transaction; the committer compensates on its failures.
type Store interface {
	Upsert(ctx context.Context, items []Item) error
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteByProvenance(ctx context.Context, documentID string, chunkIndex int) error
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)
}
