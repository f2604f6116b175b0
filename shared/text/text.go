// Package text turns user-written question and answer texts into safe HTML.
package text

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnFullyQualifiedLinks(true)

	return &Renderer{md: md, policy: policy}
}

// Render converts newlines to line breaks and bare URLs to links.
// Raw HTML in the input never survives.
func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(normalizeNewlines(src)), &buf); err != nil {
		return "", fmt.Errorf("failed to render text: %w", err)
	}
	return strings.TrimSpace(r.policy.Sanitize(buf.String())), nil
}

// MustRender is Render for texts already stored; on failure the text is
// returned escaped.
func (r *Renderer) MustRender(src string) string {
	out, err := r.Render(src)
	if err != nil {
		return r.policy.Sanitize(src)
	}
	return out
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
