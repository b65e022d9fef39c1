package extract

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	delay time.Duration
	text  string
	err   error
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.text, g.err
}

func TestModelClientSuccess(t *testing.T) {
	client := NewModelClient(&scriptedGenerator{text: `{"tasks":[]}`}, time.Second)
	resp := client.Call(context.Background(), ModelRequest{ChunkIndex: 4, Prompt: "p"})
	require.Equal(t, OutcomeSuccess, resp.Outcome)
	require.Equal(t, 4, resp.ChunkIndex)
	require.Equal(t, `{"tasks":[]}`, resp.RawText)
	require.NoError(t, resp.Err)
}

func TestModelClientTimeout(t *testing.T) {
	client := NewModelClient(&scriptedGenerator{delay: 200 * time.Millisecond}, 20*time.Millisecond)
	start := time.Now()
	resp := client.Call(context.Background(), ModelRequest{ChunkIndex: 0, Prompt: "p"})
	require.Equal(t, OutcomeTimeout, resp.Outcome)
	require.Error(t, resp.Err)
	// the call is cut off at the deadline, not at the generator's own pace
	require.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestModelClientServiceError(t *testing.T) {
	client := NewModelClient(&scriptedGenerator{err: fmt.Errorf("upstream 503")}, time.Second)
	resp := client.Call(context.Background(), ModelRequest{ChunkIndex: 0, Prompt: "p"})
	require.Equal(t, OutcomeServiceError, resp.Outcome)
	require.Error(t, resp.Err)
}
