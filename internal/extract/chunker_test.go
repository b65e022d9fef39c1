package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proplens/proplens/internal/model"
	appErr "github.com/proplens/proplens/internal/pkg/errors"
)

func makeRows(n int) []model.RawRow {
	rows := make([]model.RawRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, model.RawRow{Page: i/10 + 1, Text: fmt.Sprintf("row-%d", i)})
	}
	return rows
}

func TestSplitRowsTotality(t *testing.T) {
	cases := []struct {
		rows   int
		max    int
		chunks int
	}{
		{rows: 12, max: 5, chunks: 3},
		{rows: 25, max: 25, chunks: 1},
		{rows: 26, max: 25, chunks: 2},
		{rows: 1, max: 100, chunks: 1},
		{rows: 0, max: 5, chunks: 0},
	}
	for _, tc := range cases {
		chunks, err := SplitRows("doc-1", KindSchedule, makeRows(tc.rows), tc.max)
		require.NoError(t, err)
		require.Len(t, chunks, tc.chunks)

		total := 0
		for i, c := range chunks {
			require.Equal(t, i, c.Index)
			require.Equal(t, "doc-1", c.DocumentID)
			require.LessOrEqual(t, len(c.Rows), tc.max)
			total += len(c.Rows)
		}
		require.Equal(t, tc.rows, total)
	}
}

func TestSplitRowsPreservesOrder(t *testing.T) {
	rows := makeRows(12)
	chunks, err := SplitRows("doc-1", KindSchedule, rows, 5)
	require.NoError(t, err)

	var seen []string
	for _, c := range chunks {
		for _, r := range c.Rows {
			seen = append(seen, r.Text)
		}
	}
	require.Len(t, seen, 12)
	for i, text := range seen {
		require.Equal(t, fmt.Sprintf("row-%d", i), text)
	}
}

func TestSplitRowsDeterministic(t *testing.T) {
	rows := makeRows(17)
	first, err := SplitRows("doc-1", KindRegulatory, rows, 4)
	require.NoError(t, err)
	second, err := SplitRows("doc-1", KindRegulatory, rows, 4)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSplitRowsRejectsBadChunkSize(t *testing.T) {
	for _, max := range []int{0, -1} {
		_, err := SplitRows("doc-1", KindSchedule, makeRows(3), max)
		require.ErrorIs(t, err, appErr.ErrConfiguration)
	}
}
