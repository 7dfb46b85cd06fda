package web

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type markdownRenderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

func newMarkdownRenderer() *markdownRenderer {
	return &markdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM, // tables, strikethrough, task lists
			),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Render converts markdown source to sanitized HTML.
func (mr *markdownRenderer) Render(source string) (template.HTML, error) {
	var buf bytes.Buffer

	err := mr.md.Convert([]byte(source), &buf)
	if err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}

	//nolint:gosec // sanitized by bluemonday
	return template.HTML(mr.sanitizer.SanitizeBytes(buf.Bytes())), nil
}
