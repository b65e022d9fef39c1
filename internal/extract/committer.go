package extract

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/proplens/proplens/internal/ai"
	"github.com/proplens/proplens/internal/model"
	"github.com/proplens/proplens/internal/vector"
)

// RelationalSink is the transactional half of the commit.
type RelationalSink interface {
	ReplaceEntities(ctx context.Context, documentID string, chunkIndex int, tasks []model.ProjectTask, rules []model.RegulatoryRule) error
	DeleteByProvenance(ctx context.Context, documentID string, chunkIndex int) error
}

// Committer writes one commit unit to both stores. The relational transaction
// commits first; if embedding or the vector upsert then fails, the relational
// rows for the unit's provenance key are deleted again so the two stores never
// disagree about a chunk. The whole operation is idempotent: both stores key
// on (document_id, chunk_index), so re-committing replaces rather than
// duplicates.
type Committer struct {
	rel      RelationalSink
	vec      vector.Store
	embedder ai.IEmbedder
}

func NewCommitter(rel RelationalSink, vec vector.Store, embedder ai.IEmbedder) *Committer {
	return &Committer{rel: rel, vec: vec, embedder: embedder}
}

func (c *Committer) Commit(ctx context.Context, unit *CommitUnit) *ChunkError {
	if err := c.rel.ReplaceEntities(ctx, unit.DocumentID, unit.ChunkIndex, unit.Tasks, unit.Rules); err != nil {
		return newChunkError(ClassCommitFailure, err, "relational commit failed")
	}
	if err := c.commitVector(ctx, unit); err != nil {
		c.compensate(ctx, unit)
		return newChunkError(ClassCommitFailure, err, "vector commit failed")
	}
	return nil
}

func (c *Committer) commitVector(ctx context.Context, unit *CommitUnit) error {
	if err := c.vec.DeleteByProvenance(ctx, unit.DocumentID, unit.ChunkIndex); err != nil {
		return err
	}
	if len(unit.Chunks) == 0 {
		return nil
	}
	items := make([]vector.Item, 0, len(unit.Chunks))
	for _, chunk := range unit.Chunks {
		embedding, err := c.embedder.Embed(ctx, chunk.Text, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return err
		}
		items = append(items, vector.Item{
			ID:        chunk.ID,
			Text:      chunk.Text,
			Embedding: embedding,
			Metadata:  chunk.Metadata,
		})
	}
	return c.vec.Upsert(ctx, items)
}

// compensate undoes the already-committed relational half. A failure here is
// logged but not surfaced: the retry path re-runs ReplaceEntities for the same
// provenance key, which clears the stale rows anyway.
func (c *Committer) compensate(ctx context.Context, unit *CommitUnit) {
	bgCtx := context.WithoutCancel(ctx)
	if err := c.rel.DeleteByProvenance(bgCtx, unit.DocumentID, unit.ChunkIndex); err != nil {
		logutil.GetLogger(ctx).Error("compensating delete failed",
			zap.String("document_id", unit.DocumentID),
			zap.Int("chunk_index", unit.ChunkIndex),
			zap.Error(err))
	}
}
