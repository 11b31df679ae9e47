package execution

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestHandleCache_ReusesHandle(t *testing.T) {
	cache := NewHandleCache(NewMockEngine("m"), nil, "")

	a, err := cache.Get(context.Background(), "gpt-4o", 0.7)
	require.NoError(t, err)
	b, err := cache.Get(context.Background(), "gpt-4o", 0.7)
	require.NoError(t, err)
	c, err := cache.Get(context.Background(), "gpt-4o", 0.3)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, cache.Len())
}

func TestHandleCache_Fallbacks(t *testing.T) {
	engine := NewMockEngine("m")
	engine.MarkUnavailable("gpt-5", "claude-x")

	cache := NewHandleCache(engine, map[string]string{"gpt-5": "gpt-4o", "claude-x": "gpt-5"}, "gpt-4o-mini")

	h, err := cache.Get(context.Background(), "gpt-5", 0.7)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", h.Requested)
	assert.Equal(t, "gpt-4o", h.Model)

	// configured fallback is unavailable too, so the default is used
	h, err = cache.Get(context.Background(), "claude-x", 0.7)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", h.Model)
}

func TestHandleCache_NoUsableModel(t *testing.T) {
	engine := NewMockEngine("m")
	engine.MarkUnavailable("gpt-5", "gpt-4o-mini")

	cache := NewHandleCache(engine, nil, "gpt-4o-mini")

	_, err := cache.Get(context.Background(), "gpt-5", 0.7)
	require.ErrorContains(t, err, "no usable model for gpt-5")
	assert.Equal(t, 0, cache.Len())
}

func TestHandleCache_CompleteUsesResolvedModel(t *testing.T) {
	engine := NewMockEngine("m")
	engine.MarkUnavailable("gpt-5")
	engine.Script("Team Alpha", "ok")

	cache := NewHandleCache(engine, nil, "gpt-4o-mini")

	h, err := cache.Get(context.Background(), "gpt-5", 0.9)
	require.NoError(t, err)

	resp, err := h.Complete(context.Background(), CompletionRequest{AgentName: "Team Alpha", ModelID: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", resp.ModelID)
	assert.Equal(t, "ok", resp.Text)
}

func TestHandleCache_ConcurrentGet(t *testing.T) {
	cache := NewHandleCache(NewMockEngine("m"), nil, "")

	var mu sync.Mutex
	seen := map[*Handle]bool{}

	var g errgroup.Group
	for range 20 {
		g.Go(func() error {
			h, err := cache.Get(context.Background(), "gpt-4o", 0.3)
			if err != nil {
				return err
			}
			mu.Lock()
			seen[h] = true
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, seen, 1)
	assert.Equal(t, 1, cache.Len())
}
