package extract

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// ChunkState is the terminal state of one chunk after the pool is done with it.
type ChunkState string

const (
	StateCommitted ChunkState = "committed"
	StateFailed    ChunkState = "failed"
	StateCancelled ChunkState = "cancelled"
)

// ChunkOutcome is the pool's per-chunk verdict, keyed by chunk index.
type ChunkOutcome struct {
	Index    int
	State    ChunkState
	Attempts int
	Class    ErrorClass
	Message  string
	Entities int
	Dropped  int
}

// RunResult carries the counts of a successful chunk run.
type RunResult struct {
	Entities int
	Dropped  int
}

// RunFunc executes one chunk attempt end to end (call, parse, commit).
type RunFunc func(ctx context.Context, chunk Chunk) (*RunResult, *ChunkError)

// Pool runs chunk handlers on a fixed-size ants pool, so at most workerCount
// chunks are in flight at any moment regardless of how many are pending.
// Transient failures (timeout, service error, commit failure) are retried up
// to retryCount extra attempts; parse failures are terminal on first sight.
type Pool struct {
	pool       *ants.Pool
	retryCount int
}

func NewPool(workerCount int, retryCount int) (*Pool, error) {
	p, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Pool{pool: p, retryCount: retryCount}, nil
}

func (p *Pool) Close() {
	p.pool.Release()
}

// Process dispatches every chunk and blocks until all are terminal. Outcomes
// are returned in chunk-index order. Cancelling ctx stops new dispatch and new
// retry attempts; chunks already committed stay committed.
func (p *Pool) Process(ctx context.Context, chunks []Chunk, run RunFunc) []ChunkOutcome {
	outcomes := make([]ChunkOutcome, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		i, chunk := i, chunk
		if ctx.Err() != nil {
			outcomes[i] = ChunkOutcome{Index: chunk.Index, State: StateCancelled, Class: ClassCancelled, Message: ctx.Err().Error()}
			continue
		}
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = p.runChunk(ctx, chunk, run)
		})
		if err != nil {
			wg.Done()
			outcomes[i] = ChunkOutcome{Index: chunk.Index, State: StateFailed, Class: ClassServiceError, Message: err.Error()}
		}
	}
	wg.Wait()
	return outcomes
}

func (p *Pool) runChunk(ctx context.Context, chunk Chunk, run RunFunc) ChunkOutcome {
	outcome := ChunkOutcome{Index: chunk.Index}
	maxAttempts := 1 + p.retryCount
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			outcome.State = StateCancelled
			outcome.Class = ClassCancelled
			outcome.Message = ctx.Err().Error()
			return outcome
		}
		outcome.Attempts = attempt
		res, cerr := run(ctx, chunk)
		if cerr == nil {
			outcome.State = StateCommitted
			outcome.Entities = res.Entities
			outcome.Dropped = res.Dropped
			return outcome
		}
		outcome.Class = cerr.Class
		outcome.Message = cerr.Error()
		if !cerr.Class.Retryable() || attempt == maxAttempts {
			break
		}
		logutil.GetLogger(ctx).Warn("chunk attempt failed, retrying",
			zap.String("document_id", chunk.DocumentID),
			zap.Int("chunk_index", chunk.Index),
			zap.Int("attempt", attempt),
			zap.String("class", string(cerr.Class)))
	}
	outcome.State = StateFailed
	return outcome
}
