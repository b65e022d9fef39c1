package repo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/proplens/proplens/internal/model"
	appErr "github.com/proplens/proplens/internal/pkg/errors"
	"github.com/proplens/proplens/internal/repo"
)

func TestDocumentRepoLifecycle(t *testing.T) {
	conn, cleanup := openTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(conn)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	rows := []model.RawRow{
		{Page: 1, Cells: []string{"1", "Piling works", "10 d", "05-Jan-24", "15-Jan-24"}},
		{Page: 1, Text: "free text line"},
	}
	doc := &model.Document{
		ID:      "doc-1",
		Name:    "tower-a-schedule.pdf",
		DocType: model.DocTypeSchedule,
		State:   model.DocumentStatePending,
		Ctime:   now,
		Mtime:   now,
	}
	require.NoError(t, docs.Create(ctx, doc, rows))

	fetched, err := docs.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, model.DocTypeSchedule, fetched.DocType)
	require.Equal(t, model.DocumentStatePending, fetched.State)

	storedRows, err := docs.GetRows(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, storedRows, 2)
	require.Equal(t, []string{"1", "Piling works", "10 d", "05-Jan-24", "15-Jan-24"}, storedRows[0].Cells)

	require.NoError(t, docs.UpdateState(ctx, "doc-1", model.DocumentStateExtracting))
	fetched, err = docs.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, model.DocumentStateExtracting, fetched.State)

	result := map[string]interface{}{"status": "fully_extracted", "total_chunks": 1}
	require.NoError(t, docs.SaveResult(ctx, "doc-1", model.DocumentStateExtracted, result))

	blob, err := docs.GetResult(ctx, "doc-1")
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(blob, &decoded))
	require.Equal(t, "fully_extracted", decoded["status"])

	_, err = docs.Get(ctx, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDocumentRepoMarkExtracting(t *testing.T) {
	conn, cleanup := openTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(conn)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	require.NoError(t, docs.Create(ctx, &model.Document{
		ID: "doc-1", Name: "schedule.pdf", DocType: model.DocTypeSchedule,
		State: model.DocumentStatePending, Ctime: now, Mtime: now,
	}, []model.RawRow{{Page: 1, Text: "row"}}))

	claimed, err := docs.MarkExtracting(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, claimed)

	// a second claim loses while the first one is still running
	claimed, err = docs.MarkExtracting(ctx, "doc-1")
	require.NoError(t, err)
	require.False(t, claimed)

	require.NoError(t, docs.UpdateState(ctx, "doc-1", model.DocumentStateExtracted))
	claimed, err = docs.MarkExtracting(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestDocumentRepoListByState(t *testing.T) {
	conn, cleanup := openTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(conn)
	ctx := context.Background()
	now := time.Now().UnixMilli()
	rows := []model.RawRow{{Page: 1, Text: "row"}}

	for _, id := range []string{"doc-1", "doc-2", "doc-3"} {
		require.NoError(t, docs.Create(ctx, &model.Document{
			ID: id, Name: id, DocType: model.DocTypeSchedule,
			State: model.DocumentStatePending, Ctime: now, Mtime: now,
		}, rows))
	}
	require.NoError(t, docs.UpdateState(ctx, "doc-2", model.DocumentStateExtracted))

	pending, err := docs.ListByState(ctx, model.DocumentStatePending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	pending, err = docs.ListByState(ctx, model.DocumentStatePending, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}
