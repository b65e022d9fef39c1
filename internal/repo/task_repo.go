package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/proplens/proplens/internal/model"
	"github.com/proplens/proplens/internal/pkg/dbutil"
)

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) InsertBatch(ctx context.Context, q dbutil.Queryer, tasks []model.ProjectTask) error {
	if len(tasks) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	rows := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		ctime := t.Ctime
		if ctime == 0 {
			ctime = now
		}
		rows = append(rows, map[string]interface{}{
			"document_id":   t.DocumentID,
			"chunk_index":   t.ChunkIndex,
			"task_id":       t.TaskID,
			"task_name":     t.TaskName,
			"duration_days": t.DurationDays,
			"start_date":    t.StartDate,
			"finish_date":   t.FinishDate,
			"building":      t.Building,
			"ctime":         ctime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("project_tasks", rows)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TaskRepo) DeleteByProvenance(ctx context.Context, q dbutil.Queryer, documentID string, chunkIndex int) error {
	const query = `DELETE FROM project_tasks WHERE document_id = $1 AND chunk_index = $2`
	_, err := q.ExecContext(ctx, query, documentID, chunkIndex)
	return err
}

func (r *TaskRepo) CountByProvenance(ctx context.Context, documentID string, chunkIndex int) (int, error) {
	const query = `SELECT COUNT(*) FROM project_tasks WHERE document_id = $1 AND chunk_index = $2`
	var count int
	err := r.db.QueryRowContext(ctx, query, documentID, chunkIndex).Scan(&count)
	return count, err
}

func (r *TaskRepo) ListByDocument(ctx context.Context, documentID string) ([]model.ProjectTask, error) {
	const query = `
		SELECT id, document_id, chunk_index, task_id, task_name, duration_days, start_date, finish_date, building, ctime
		FROM project_tasks
		WHERE document_id = $1
		ORDER BY chunk_index, task_id
	`
	return r.scanList(ctx, query, documentID)
}

func (r *TaskRepo) List(ctx context.Context, limit, offset int) ([]model.ProjectTask, error) {
	const query = `
		SELECT id, document_id, chunk_index, task_id, task_name, duration_days, start_date, finish_date, building, ctime
		FROM project_tasks
		ORDER BY document_id, chunk_index, task_id
		LIMIT $1 OFFSET $2
	`
	return r.scanList(ctx, query, limit, offset)
}

func (r *TaskRepo) scanList(ctx context.Context, query string, args ...interface{}) ([]model.ProjectTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tasks []model.ProjectTask
	for rows.Next() {
		var t model.ProjectTask
		var start, finish sql.NullTime
		if err := rows.Scan(&t.ID, &t.DocumentID, &t.ChunkIndex, &t.TaskID, &t.TaskName,
			&t.DurationDays, &start, &finish, &t.Building, &t.Ctime); err != nil {
			return nil, err
		}
		if start.Valid {
			v := start.Time
			t.StartDate = &v
		}
		if finish.Valid {
			v := finish.Time
			t.FinishDate = &v
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
