package job

import (
	"context"

	"github.com/proplens/proplens/internal/service"
)

// ExtractPendingJob sweeps registered-but-unextracted documents and runs the
// pipeline on them, so registration does not require a synchronous extract.
type ExtractPendingJob struct {
	ingest    *service.IngestService
	batchSize int
}

func NewExtractPendingJob(ingest *service.IngestService, batchSize int) *ExtractPendingJob {
	return &ExtractPendingJob{ingest: ingest, batchSize: batchSize}
}

func (j *ExtractPendingJob) Name() string {
	return "extract_pending"
}

func (j *ExtractPendingJob) Run(ctx context.Context) error {
	batchSize := j.batchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	return j.ingest.ProcessPending(ctx, batchSize)
}
