package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTMLRenderer converts backend markdown into sanitized HTML. Backend text
// is untrusted, so raw HTML inside it never survives.
type HTMLRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewHTML creates an HTMLRenderer with GitHub-flavored tables and lists.
func NewHTML() *HTMLRenderer {
	return &HTMLRenderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts text to safe HTML.
func (h *HTMLRenderer) Render(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return template.HTML(h.policy.SanitizeBytes(buf.Bytes())), nil
}
