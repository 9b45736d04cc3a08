// Package audit runs one photo through the rubric and the reasoning backend
// and reports either the backend's text or the reason it failed.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"photoaudit/internal/backend"
	"photoaudit/internal/exif"
	"photoaudit/internal/logging"
	"photoaudit/internal/photo"
	"photoaudit/internal/rubric"
)

// Result is the outcome of one audit. Exactly one of Report or Reason is
// meaningful, selected by OK.
type Result struct {
	OK     bool   `json:"ok"`
	Report string `json:"report,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Success wraps backend text.
func Success(text string) Result { return Result{OK: true, Report: text} }

// Failure wraps a failure description.
func Failure(reason string) Result { return Result{OK: false, Reason: reason} }

// Report is everything produced for one photo.
type Report struct {
	Name     string        `json:"name"`
	Metadata exif.Metadata `json:"metadata"`
	Result   Result        `json:"result"`
	Duration time.Duration `json:"duration"`
}

// Auditor composes extraction, rubric rendering and the backend call.
// It keeps no per-call state and is safe for concurrent use.
type Auditor struct {
	gen       backend.Generator
	model     string
	rubric    *rubric.Rubric
	extractor *exif.Extractor
	quality   int
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithExtractor replaces the default extractor.
func WithExtractor(e *exif.Extractor) Option {
	return func(a *Auditor) { a.extractor = e }
}

// WithJPEGQuality sets the re-encoding quality for non-JPEG input.
func WithJPEGQuality(q int) Option {
	return func(a *Auditor) { a.quality = q }
}

// New creates an Auditor.
func New(gen backend.Generator, model string, r *rubric.Rubric, opts ...Option) *Auditor {
	a := &Auditor{
		gen:       gen,
		model:     model,
		rubric:    r,
		extractor: exif.NewExtractor(nil),
		quality:   photo.DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Model returns the backend model id.
func (a *Auditor) Model() string { return a.model }

// Rubric returns the rubric in use.
func (a *Auditor) Rubric() *rubric.Rubric { return a.rubric }

// Extractor returns the metadata extractor in use.
func (a *Auditor) Extractor() *exif.Extractor { return a.extractor }

// Run sends img and the rendered rubric to the backend exactly once.
// Failures of any kind come back as a Failure result, never as a panic or
// an error.
func (a *Auditor) Run(ctx context.Context, img *photo.Image, md exif.Metadata) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			logging.Get(logging.CategoryAudit).Error("backend panic: %v", p)
			res = Failure(fmt.Sprintf("audit failed: %v", p))
		}
	}()

	timer := logging.StartTimer(logging.CategoryAudit, "Run")
	defer timer.Stop()

	prompt := a.rubric.Render(md)
	parts := []backend.Part{
		backend.ImagePart(img.MediaType, img.Data),
		backend.TextPart(prompt),
	}

	text, err := a.gen.Generate(ctx, a.model, parts)
	if err == nil && strings.TrimSpace(text) == "" {
		err = backend.ErrEmptyResponse
	}
	if err != nil {
		logging.Get(logging.CategoryAudit).Warn("audit of %s failed: %v", img.Name, err)
		logging.LogEvent(logging.Event{
			Type:   logging.EventAuditFailure,
			Target: img.Name,
			Error:  err.Error(),
		})
		return Failure(describe(err))
	}

	logging.LogEvent(logging.Event{
		Type:    logging.EventAuditSuccess,
		Target:  img.Name,
		Success: true,
		Fields:  map[string]interface{}{"report_len": len(text)},
	})
	return Success(text)
}

// Audit extracts metadata from the original bytes, normalizes the image and
// runs it. Metadata comes from raw so re-encoding never drops tags.
func (a *Auditor) Audit(ctx context.Context, raw *photo.RawImage) Report {
	start := time.Now()
	rep := Report{Name: raw.Name, Metadata: a.extractor.ExtractBytes(raw.Data)}

	img, err := photo.Normalize(raw, a.quality)
	if err != nil {
		rep.Result = Failure(err.Error())
	} else {
		rep.Result = a.Run(ctx, img, rep.Metadata)
	}
	rep.Duration = time.Since(start)
	logging.Audit("audited %s ok=%t in %v", raw.Name, rep.Result.OK, rep.Duration)
	return rep
}

// AuditFile loads path and audits it.
func (a *Auditor) AuditFile(ctx context.Context, path string, maxBytes int64) Report {
	raw, err := photo.Load(path, maxBytes)
	if err != nil {
		return Report{Name: path, Metadata: exif.Metadata{}, Result: Failure(err.Error())}
	}
	return a.Audit(ctx, raw)
}

func describe(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "request canceled: " + err.Error()
	}
	return err.Error()
}
