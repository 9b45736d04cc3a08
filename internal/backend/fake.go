package backend

import (
	"context"
	"sync"
)

// Call is one request recorded by Fake.
type Call struct {
	Model string
	Parts []Part
}

// Fake is an in-memory Generator for tests and offline runs. It returns
// Reply, or Err when set, and records every call.
type Fake struct {
	Reply  string
	Err    error
	Models []ModelInfo

	// Block, when non-nil, is waited on before answering.
	Block <-chan struct{}

	mu    sync.Mutex
	calls []Call
}

// Generate implements Generator.
func (f *Fake) Generate(ctx context.Context, model string, parts []Part) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Model: model, Parts: append([]Part(nil), parts...)})
	f.mu.Unlock()

	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

// ListModels implements ModelLister.
func (f *Fake) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return f.Models, nil
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
