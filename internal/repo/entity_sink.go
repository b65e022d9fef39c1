package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/proplens/proplens/internal/model"
)

// EntitySink is the relational half of the dual-store commit. All writes for
// one chunk happen inside a single transaction, keyed by the provenance pair
// (document_id, chunk_index): existing rows for the pair are deleted before
// the fresh ones are inserted, so a re-commit after a crash cannot duplicate.
type EntitySink struct {
	db    *sql.DB
	tasks *TaskRepo
	rules *RuleRepo
}

func NewEntitySink(db *sql.DB, tasks *TaskRepo, rules *RuleRepo) *EntitySink {
	return &EntitySink{db: db, tasks: tasks, rules: rules}
}

func (s *EntitySink) ReplaceEntities(ctx context.Context, documentID string, chunkIndex int,
	tasks []model.ProjectTask, rules []model.RegulatoryRule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.tasks.DeleteByProvenance(ctx, tx, documentID, chunkIndex); err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	if err := s.rules.DeleteByProvenance(ctx, tx, documentID, chunkIndex); err != nil {
		return fmt.Errorf("delete rules: %w", err)
	}
	if err := s.tasks.InsertBatch(ctx, tx, tasks); err != nil {
		return fmt.Errorf("insert tasks: %w", err)
	}
	if err := s.rules.InsertBatch(ctx, tx, rules); err != nil {
		return fmt.Errorf("insert rules: %w", err)
	}
	return tx.Commit()
}

// DeleteByProvenance is the compensating path used when the vector write
// fails after the relational transaction already committed.
func (s *EntitySink) DeleteByProvenance(ctx context.Context, documentID string, chunkIndex int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin compensate tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.tasks.DeleteByProvenance(ctx, tx, documentID, chunkIndex); err != nil {
		return err
	}
	if err := s.rules.DeleteByProvenance(ctx, tx, documentID, chunkIndex); err != nil {
		return err
	}
	return tx.Commit()
}
