package model

// SemanticChunk is the embedding-source text derived from extracted entities,
// destined for the vector store. ID is deterministic per provenance so a
// re-commit overwrites instead of duplicating.
type SemanticChunk struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}
