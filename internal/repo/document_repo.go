package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/proplens/proplens/internal/model"
	appErr "github.com/proplens/proplens/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document, rows []model.RawRow) error {
	blob, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO documents (id, name, doc_type, state, raw_rows, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query, doc.ID, doc.Name, string(doc.DocType), doc.State, blob, doc.Ctime, doc.Mtime)
	return err
}

func (r *DocumentRepo) Get(ctx context.Context, id string) (*model.Document, error) {
	const query = `SELECT id, name, doc_type, state, ctime, mtime FROM documents WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	var doc model.Document
	var docType string
	if err := row.Scan(&doc.ID, &doc.Name, &docType, &doc.State, &doc.Ctime, &doc.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	doc.DocType = model.DocumentType(docType)
	return &doc, nil
}

func (r *DocumentRepo) GetRows(ctx context.Context, id string) ([]model.RawRow, error) {
	const query = `SELECT raw_rows FROM documents WHERE id = $1`
	var blob []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	var rows []model.RawRow
	if err := json.Unmarshal(blob, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *DocumentRepo) GetResult(ctx context.Context, id string) (json.RawMessage, error) {
	const query = `SELECT last_result FROM documents WHERE id = $1`
	var blob []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return blob, nil
}

// MarkExtracting claims the document for extraction in one statement.
// Reports false when another caller already holds it.
func (r *DocumentRepo) MarkExtracting(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE documents SET state = $1, mtime = $2 WHERE id = $3 AND state != $1`
	res, err := r.db.ExecContext(ctx, query, model.DocumentStateExtracting, time.Now().UnixMilli(), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *DocumentRepo) UpdateState(ctx context.Context, id string, state int) error {
	const query = `UPDATE documents SET state = $1, mtime = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, state, time.Now().UnixMilli(), id)
	return err
}

// SaveResult stores the aggregated extraction outcome alongside the new state.
func (r *DocumentRepo) SaveResult(ctx context.Context, id string, state int, result interface{}) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return err
	}
	const query = `UPDATE documents SET state = $1, last_result = $2, mtime = $3 WHERE id = $4`
	_, err = r.db.ExecContext(ctx, query, state, blob, time.Now().UnixMilli(), id)
	return err
}

func (r *DocumentRepo) ListByState(ctx context.Context, state int, limit int) ([]model.Document, error) {
	const query = `
		SELECT id, name, doc_type, state, ctime, mtime
		FROM documents
		WHERE state = $1
		ORDER BY mtime
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, state, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		var docType string
		if err := rows.Scan(&doc.ID, &doc.Name, &docType, &doc.State, &doc.Ctime, &doc.Mtime); err != nil {
			return nil, err
		}
		doc.DocType = model.DocumentType(docType)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
