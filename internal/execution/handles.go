package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Handle is a model resolved for one (model, temperature) pair. Model may
// differ from the one requested when a fallback was used.
type Handle struct {
	Requested   string
	Model       string
	Temperature float64

	engine Engine
}

// Complete sends req through the handle's engine with the handle's model and
// temperature.
func (h *Handle) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	req.ModelID = h.Model
	req.Temperature = h.Temperature
	return h.engine.Complete(ctx, &req)
}

// HandleCache hands out one Handle per "model_temperature" key for the life of
// the process. Concurrent first lookups may resolve the same key twice; the
// first stored handle wins.
type HandleCache struct {
	engine          Engine
	fallbacks       map[string]string
	defaultFallback string

	handles sync.Map
}

// NewHandleCache creates a cache over engine. fallbacks maps a model to the
// one to try when it is unavailable; defaultFallback is tried last.
func NewHandleCache(engine Engine, fallbacks map[string]string, defaultFallback string) *HandleCache {
	return &HandleCache{
		engine:          engine,
		fallbacks:       fallbacks,
		defaultFallback: defaultFallback,
	}
}

// Get returns the handle for model at temperature, probing the engine and
// walking the fallback chain on first use.
func (c *HandleCache) Get(ctx context.Context, model string, temperature float64) (*Handle, error) {
	key := handleKey(model, temperature)

	if h, ok := c.handles.Load(key); ok {
		return h.(*Handle), nil
	}

	resolved, err := c.resolve(ctx, model)
	if err != nil {
		return nil, err
	}

	h, _ := c.handles.LoadOrStore(key, &Handle{
		Requested:   model,
		Model:       resolved,
		Temperature: temperature,
		engine:      c.engine,
	})
	return h.(*Handle), nil
}

// Len is the number of cached handles.
func (c *HandleCache) Len() int {
	n := 0
	c.handles.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *HandleCache) resolve(ctx context.Context, model string) (string, error) {
	prober, ok := c.engine.(Prober)
	if !ok {
		return model, nil
	}

	var errs []error
	for _, candidate := range c.chain(model) {
		err := prober.Probe(ctx, candidate)
		if err == nil {
			if candidate != model {
				slog.Warn("Using fallback model", "requested", model, "model", candidate)
				fmt.Printf("[WARN] Using fallback model %s for %s\n", candidate, model)
			}
			return candidate, nil
		}
		slog.Debug("Model probe failed", "model", candidate, "error", err)
		errs = append(errs, err)
	}

	return "", fmt.Errorf("no usable model for %s: %w", model, errors.Join(errs...))
}

// chain is model, its configured fallback, then the default fallback, without
// repeats.
func (c *HandleCache) chain(model string) []string {
	out := []string{model}
	for _, next := range []string{c.fallbacks[model], c.defaultFallback} {
		if next == "" {
			continue
		}
		seen := false
		for _, m := range out {
			if m == next {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, next)
		}
	}
	return out
}

func handleKey(model string, temperature float64) string {
	return fmt.Sprintf("%s_%g", model, temperature)
}
