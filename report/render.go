// Package report renders research report drafts, which are markdown, into
// sanitized HTML suitable for embedding in a web front end.
package report

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer converts markdown drafts to sanitized HTML. The zero value is
// not usable; create one with NewRenderer.
type Renderer struct {
	policy *bluemonday.Policy
}

// NewRenderer creates a renderer with a UGC sanitization policy: common
// formatting elements and links survive, scripts and event handlers do
// not.
func NewRenderer() *Renderer {
	return &Renderer{policy: bluemonday.UGCPolicy()}
}

// Render converts a markdown draft to sanitized HTML.
func (r *Renderer) Render(draft string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(draft))

	opts := html.RendererOptions{Flags: html.CommonFlags}
	rendered := markdown.Render(doc, html.NewRenderer(opts))

	return string(r.policy.SanitizeBytes(rendered))
}
