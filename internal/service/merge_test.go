package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/proplens/proplens/internal/model"
)

func datePtr(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return &parsed
}

func TestMergeTasksDedupesAcrossChunks(t *testing.T) {
	start := datePtr(t, "2024-01-05")
	finish := datePtr(t, "2024-01-15")

	merged := mergeTasks([]model.ProjectTask{
		{DocumentID: "doc-1", ChunkIndex: 0, TaskID: 101, TaskName: "Piling", StartDate: start},
		{DocumentID: "doc-1", ChunkIndex: 0, TaskID: 102, TaskName: "Excavation", DurationDays: 4},
		{DocumentID: "doc-1", ChunkIndex: 1, TaskID: 101, TaskName: "Piling works tower A", DurationDays: 10, FinishDate: finish, Building: "Tower A"},
	})
	require.Len(t, merged, 2)

	// the longer name wins and the gaps are filled from the shorter row
	require.Equal(t, 101, merged[0].TaskID)
	require.Equal(t, "Piling works tower A", merged[0].TaskName)
	require.Equal(t, 10, merged[0].DurationDays)
	require.Equal(t, start, merged[0].StartDate)
	require.Equal(t, finish, merged[0].FinishDate)
	require.Equal(t, "Tower A", merged[0].Building)

	require.Equal(t, 102, merged[1].TaskID)
}

func TestMergeTasksFillsWinnerFromLaterRows(t *testing.T) {
	finish := datePtr(t, "2024-02-01")

	merged := mergeTasks([]model.ProjectTask{
		{TaskID: 7, TaskName: "Structural steel erection level 3", DurationDays: 0},
		{TaskID: 7, TaskName: "Steel", DurationDays: 12, FinishDate: finish},
	})
	require.Len(t, merged, 1)
	require.Equal(t, "Structural steel erection level 3", merged[0].TaskName)
	require.Equal(t, 12, merged[0].DurationDays)
	require.Equal(t, finish, merged[0].FinishDate)
}

func TestMergeTasksKeepsDistinctIDsUntouched(t *testing.T) {
	input := []model.ProjectTask{
		{TaskID: 1, TaskName: "A"},
		{TaskID: 2, TaskName: "B"},
		{TaskID: 3, TaskName: "C"},
	}
	merged := mergeTasks(input)
	require.Equal(t, input, merged)
}
