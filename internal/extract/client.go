package extract

import (
	"context"
	"errors"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/proplens/proplens/internal/ai"
)

// CallOutcome classifies how a single model call ended.
type CallOutcome int

const (
	OutcomeSuccess CallOutcome = iota
	OutcomeTimeout
	OutcomeServiceError
)

// ModelRequest is one prompt dispatched for one chunk.
type ModelRequest struct {
	ChunkIndex int
	Prompt     string
}

// ModelResponse carries the raw model text plus the call classification. The
// raw text is kept even for failures so the report can include it.
type ModelResponse struct {
	ChunkIndex int
	RawText    string
	Latency    time.Duration
	Outcome    CallOutcome
	Err        error
}

// ModelClient wraps a generator with a hard per-call wall-clock timeout. It is
// stateless and safe for concurrent use by every pool worker.
type ModelClient struct {
	gen     ai.IGenerator
	timeout time.Duration
}

func NewModelClient(gen ai.IGenerator, timeout time.Duration) *ModelClient {
	return &ModelClient{gen: gen, timeout: timeout}
}

func (c *ModelClient) Call(ctx context.Context, req ModelRequest) ModelResponse {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.gen.Generate(callCtx, req.Prompt)
	latency := time.Since(start)

	resp := ModelResponse{ChunkIndex: req.ChunkIndex, RawText: text, Latency: latency}
	if err == nil {
		resp.Outcome = OutcomeSuccess
		return resp
	}
	resp.Err = err
	if errors.Is(err, context.DeadlineExceeded) && callCtx.Err() == context.DeadlineExceeded {
		resp.Outcome = OutcomeTimeout
	} else {
		resp.Outcome = OutcomeServiceError
	}
	logutil.GetLogger(ctx).Warn("model call failed",
		zap.Int("chunk_index", req.ChunkIndex),
		zap.Duration("latency", latency),
		zap.Error(err))
	return resp
}
