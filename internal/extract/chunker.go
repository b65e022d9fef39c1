package extract

import (
	"fmt"

	"github.com/proplens/proplens/internal/model"
	appErr "github.com/proplens/proplens/internal/pkg/errors"
)

// SplitRows partitions rows into contiguous chunks of at most maxRowsPerChunk
// rows each. Row order is preserved and every row lands in exactly one chunk,
// so the split is deterministic for a given input.
func SplitRows(documentID string, kind ContentKind, rows []model.RawRow, maxRowsPerChunk int) ([]Chunk, error) {
	if maxRowsPerChunk < 1 {
		return nil, fmt.Errorf("%w: max_rows_per_chunk must be >= 1, got %d", appErr.ErrConfiguration, maxRowsPerChunk)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	chunks := make([]Chunk, 0, (len(rows)+maxRowsPerChunk-1)/maxRowsPerChunk)
	for start := 0; start < len(rows); start += maxRowsPerChunk {
		end := start + maxRowsPerChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, Chunk{
			DocumentID: documentID,
			Index:      len(chunks),
			Kind:       kind,
			Rows:       rows[start:end],
		})
	}
	return chunks, nil
}
