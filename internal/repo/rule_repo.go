package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/proplens/proplens/internal/model"
	"github.com/proplens/proplens/internal/pkg/dbutil"
)

type RuleRepo struct {
	db *sql.DB
}

func NewRuleRepo(db *sql.DB) *RuleRepo {
	return &RuleRepo{db: db}
}

func (r *RuleRepo) InsertBatch(ctx context.Context, q dbutil.Queryer, rules []model.RegulatoryRule) error {
	if len(rules) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	rows := make([]map[string]interface{}, 0, len(rules))
	for _, rule := range rules {
		ctime := rule.Ctime
		if ctime == 0 {
			ctime = now
		}
		rows = append(rows, map[string]interface{}{
			"document_id":       rule.DocumentID,
			"chunk_index":       rule.ChunkIndex,
			"rule_id":           rule.RuleID,
			"rule_summary":      rule.RuleSummary,
			"measurement_basis": rule.MeasurementBasis,
			"ctime":             ctime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("regulatory_rules", rows)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *RuleRepo) DeleteByProvenance(ctx context.Context, q dbutil.Queryer, documentID string, chunkIndex int) error {
	const query = `DELETE FROM regulatory_rules WHERE document_id = $1 AND chunk_index = $2`
	_, err := q.ExecContext(ctx, query, documentID, chunkIndex)
	return err
}

func (r *RuleRepo) ListByDocument(ctx context.Context, documentID string) ([]model.RegulatoryRule, error) {
	const query = `
		SELECT id, document_id, chunk_index, rule_id, rule_summary, measurement_basis, ctime
		FROM regulatory_rules
		WHERE document_id = $1
		ORDER BY chunk_index, id
	`
	return r.scanList(ctx, query, documentID)
}

func (r *RuleRepo) List(ctx context.Context, limit, offset int) ([]model.RegulatoryRule, error) {
	const query = `
		SELECT id, document_id, chunk_index, rule_id, rule_summary, measurement_basis, ctime
		FROM regulatory_rules
		ORDER BY document_id, chunk_index, id
		LIMIT $1 OFFSET $2
	`
	return r.scanList(ctx, query, limit, offset)
}

func (r *RuleRepo) scanList(ctx context.Context, query string, args ...interface{}) ([]model.RegulatoryRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []model.RegulatoryRule
	for rows.Next() {
		var item model.RegulatoryRule
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.ChunkIndex, &item.RuleID,
			&item.RuleSummary, &item.MeasurementBasis, &item.Ctime); err != nil {
			return nil, err
		}
		rules = append(rules, item)
	}
	return rules, rows.Err()
}
