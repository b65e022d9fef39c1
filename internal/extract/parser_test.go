package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func scheduleChunk() Chunk {
	return Chunk{DocumentID: "doc-1", Index: 2, Kind: KindSchedule}
}

func TestParseResponsePartialAcceptance(t *testing.T) {
	raw := `{"tasks": [
		{"task_id": 1, "task_name": "Piling works", "duration_days": 10, "start_date": "2024-01-05", "finish_date": "2024-01-15"},
		{"task_id": 2, "task_name": "Excavation", "duration_days": "14 d"},
		{"task_id": 3, "task_name": "123456", "duration_days": 5},
		{"task_id": "4", "task_name": "Superstructure", "duration_days": 30}
	]}`
	unit, cerr := ParseResponse(scheduleChunk(), raw)
	require.Nil(t, cerr)
	require.Len(t, unit.Tasks, 3)
	require.Len(t, unit.Dropped, 1)
	require.Contains(t, unit.Dropped[0].Reason, "task_name")

	require.Equal(t, 1, unit.Tasks[0].TaskID)
	require.Equal(t, "Piling works", unit.Tasks[0].TaskName)
	require.NotNil(t, unit.Tasks[0].StartDate)
	require.Equal(t, "2024-01-05", unit.Tasks[0].StartDate.Format("2006-01-02"))

	require.Equal(t, 14, unit.Tasks[1].DurationDays)
	require.Equal(t, 4, unit.Tasks[2].TaskID)

	for _, task := range unit.Tasks {
		require.Equal(t, "doc-1", task.DocumentID)
		require.Equal(t, 2, task.ChunkIndex)
	}
}

func TestParseResponseFencedJSON(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"tasks\": [{\"task_id\": 7, \"task_name\": \"Roofing\", \"duration_days\": 3}]}\n```\nDone."
	unit, cerr := ParseResponse(scheduleChunk(), raw)
	require.Nil(t, cerr)
	require.Len(t, unit.Tasks, 1)
	require.Equal(t, "Roofing", unit.Tasks[0].TaskName)
}

func TestParseResponseBareArray(t *testing.T) {
	raw := `[{"task_id": 1, "task_name": "Temporary works", "duration_days": 2}]`
	unit, cerr := ParseResponse(scheduleChunk(), raw)
	require.Nil(t, cerr)
	require.Len(t, unit.Tasks, 1)
}

func TestParseResponseUndecodable(t *testing.T) {
	for _, raw := range []string{"I could not find any tasks.", "{not json at all]"} {
		unit, cerr := ParseResponse(scheduleChunk(), raw)
		require.Nil(t, unit)
		require.NotNil(t, cerr)
		require.Equal(t, ClassParseFailure, cerr.Class)
		require.False(t, cerr.Class.Retryable())
	}
}

func TestParseResponseDateFormats(t *testing.T) {
	cases := map[string]string{
		"05-Jan-24":  "2024-01-05",
		"05-Jan-2024": "2024-01-05",
		"2024-01-05": "2024-01-05",
		"01/05/24":   "2024-01-05",
		"01/05/2024": "2024-01-05",
		"05.01.24":   "2024-01-05",
	}
	for in, want := range cases {
		got, ok := parseDateFlexible(in)
		require.True(t, ok, "format %q", in)
		require.Equal(t, want, got.Format("2006-01-02"))
	}
	_, ok := parseDateFlexible("sometime next year")
	require.False(t, ok)
}

func TestParseResponseDropsUnparseableDates(t *testing.T) {
	raw := `{"tasks": [{"task_id": 1, "task_name": "Facade", "duration_days": 4, "start_date": "not a date"}]}`
	unit, cerr := ParseResponse(scheduleChunk(), raw)
	require.Nil(t, cerr)
	require.Empty(t, unit.Tasks)
	require.Len(t, unit.Dropped, 1)
	require.Contains(t, unit.Dropped[0].Reason, "start_date")
}

func TestParseResponseRules(t *testing.T) {
	chunk := Chunk{DocumentID: "doc-2", Index: 0, Kind: KindRegulatory}
	raw := `{"rules": [
		{"rule_id": "GFA-1", "rule_summary": "Balconies count toward bonus GFA.", "measurement_basis": "floor area"},
		{"rule_id": "", "rule_summary": "Orphan summary"},
		{"rule_id": "GFA-2", "rule_summary": ""}
	]}`
	unit, cerr := ParseResponse(chunk, raw)
	require.Nil(t, cerr)
	require.Len(t, unit.Rules, 1)
	require.Len(t, unit.Dropped, 2)
	require.Equal(t, "GFA-1", unit.Rules[0].RuleID)

	raw = `{"rules": [{"rule_id": "GFA-3", "rule_summary": "Void decks excluded."}]}`
	unit, cerr = ParseResponse(chunk, raw)
	require.Nil(t, cerr)
	require.Equal(t, "N/A", unit.Rules[0].MeasurementBasis)
}

func TestParseResponseSemanticChunks(t *testing.T) {
	raw := `{"tasks": [
		{"task_id": 1, "task_name": "Piling works", "duration_days": 10, "building": "Tower A"},
		{"task_id": 2, "task_name": "Excavation", "duration_days": 14, "building": "Tower A"}
	]}`
	unit, cerr := ParseResponse(scheduleChunk(), raw)
	require.Nil(t, cerr)
	// 2 row chunks + 1 building summary
	require.Len(t, unit.Chunks, 3)
	require.Equal(t, "doc-1:2:0", unit.Chunks[0].ID)
	require.Equal(t, "doc-1:2:1", unit.Chunks[1].ID)
	require.Equal(t, "doc-1:2:2", unit.Chunks[2].ID)
	require.Equal(t, "task", unit.Chunks[0].Metadata["type"])
	require.Equal(t, "summary", unit.Chunks[2].Metadata["type"])
	require.Equal(t, "Tower A", unit.Chunks[2].Metadata["building"])
	require.Contains(t, unit.Chunks[2].Text, "Total tasks: 2")
	require.Contains(t, unit.Chunks[2].Text, "Longest task: Excavation (14 days)")
	for _, c := range unit.Chunks {
		require.Equal(t, "doc-1", c.Metadata["document_id"])
		require.Equal(t, "2", c.Metadata["chunk_index"])
	}
}

func TestParseResponseDeterministicIDs(t *testing.T) {
	raw := `{"tasks": [{"task_id": 9, "task_name": "Landscaping", "duration_days": 6}]}`
	first, cerr := ParseResponse(scheduleChunk(), raw)
	require.Nil(t, cerr)
	time.Sleep(time.Millisecond)
	second, cerr := ParseResponse(scheduleChunk(), raw)
	require.Nil(t, cerr)
	require.Equal(t, chunkIDs(first), chunkIDs(second))
}

func chunkIDs(unit *CommitUnit) []string {
	ids := make([]string, 0, len(unit.Chunks))
	for _, c := range unit.Chunks {
		ids = append(ids, c.ID)
	}
	return ids
}
