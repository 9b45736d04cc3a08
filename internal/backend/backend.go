// Package backend talks to the multimodal reasoning service.
package backend

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the service answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// PartKind discriminates Part payloads.
type PartKind int

const (
	PartText PartKind = iota
	PartImage
)

// Part is one element of a multimodal request, sent in order.
type Part struct {
	Kind      PartKind
	Text      string
	MediaType string
	Data      []byte
}

// TextPart returns a text part.
func TextPart(s string) Part { return Part{Kind: PartText, Text: s} }

// ImagePart returns an inline image part.
func ImagePart(mediaType string, data []byte) Part {
	return Part{Kind: PartImage, MediaType: mediaType, Data: data}
}

// Generator sends parts to a model and returns its text answer.
type Generator interface {
	Generate(ctx context.Context, model string, parts []Part) (string, error)
}

// ModelLister enumerates models available to the configured credential.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ModelInfo describes one available model.
type ModelInfo struct {
	Name        string
	DisplayName string
	Actions     []string
}
