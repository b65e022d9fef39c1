package model

import "time"

type ProjectTask struct {
	ID           int64      `json:"id"`
	DocumentID   string     `json:"document_id"`
	ChunkIndex   int        `json:"chunk_index"`
	TaskID       int        `json:"task_id"`
	TaskName     string     `json:"task_name"`
	DurationDays int        `json:"duration_days"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	FinishDate   *time.Time `json:"finish_date,omitempty"`
	Building     string     `json:"building,omitempty"`
	Ctime        int64      `json:"ctime"`
}
