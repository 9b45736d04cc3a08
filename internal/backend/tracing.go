package backend

import (
	"context"
	"time"

	"github.com/google/uuid"

	"photoaudit/internal/logging"
)

// Tracing wraps a Generator and records every call as a structured event.
// The request id is generated per call and logged on both ends.
type Tracing struct {
	underlying Generator
}

// NewTracing creates a tracing wrapper around g.
func NewTracing(g Generator) *Tracing {
	return &Tracing{underlying: g}
}

// Generate implements Generator with tracing.
func (t *Tracing) Generate(ctx context.Context, model string, parts []Part) (string, error) {
	id := uuid.NewString()
	images, textLen := summarize(parts)

	logging.LogEvent(logging.Event{
		Type:      logging.EventLLMRequest,
		RequestID: id,
		Target:    model,
		Success:   true,
		Fields:    map[string]interface{}{"images": images, "prompt_len": textLen},
	})
	logging.API("LLM call started: req=%s model=%s images=%d prompt_len=%d", id, model, images, textLen)

	start := time.Now()
	text, err := t.underlying.Generate(ctx, model, parts)
	dur := time.Since(start)

	if err != nil {
		logging.API("LLM call failed: req=%s duration=%v error=%s", id, dur, err.Error())
		logging.LogEvent(logging.Event{
			Type:      logging.EventLLMError,
			RequestID: id,
			Target:    model,
			Duration:  dur,
			Error:     err.Error(),
		})
		return text, err
	}

	logging.API("LLM call completed: req=%s duration=%v response_len=%d", id, dur, len(text))
	logging.LogEvent(logging.Event{
		Type:      logging.EventLLMResponse,
		RequestID: id,
		Target:    model,
		Success:   true,
		Duration:  dur,
		Fields:    map[string]interface{}{"response_len": len(text)},
	})
	return text, nil
}

// ListModels forwards to the underlying generator when it can list models.
func (t *Tracing) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if l, ok := t.underlying.(ModelLister); ok {
		return l.ListModels(ctx)
	}
	return nil, nil
}

func summarize(parts []Part) (images, textLen int) {
	for _, p := range parts {
		if p.Kind == PartImage {
			images++
		} else {
			textLen += len(p.Text)
		}
	}
	return images, textLen
}
