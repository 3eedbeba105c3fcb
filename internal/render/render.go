// Package render turns summary records into HTML pages and terminal text.
// Summaries come back from the model as Markdown, so the body is rendered
// with goldmark.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/roasbeef/booksum/internal/summary"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// md is shared; goldmark converters are safe for concurrent use.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// MarkdownToHTML converts Markdown to an HTML fragment. Raw HTML in the
// source is dropped.
func MarkdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return buf.String(), nil
}

// Options controls page rendering.
type Options struct {
	// IncludeOriginal appends the extracted source text.
	IncludeOriginal bool
}

// HTMLPage renders rec as a standalone HTML document.
func HTMLPage(rec summary.Record, opts Options) (string, error) {
	body, err := MarkdownToHTML(rec.SummarizedText)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString(`<meta charset="utf-8">` + "\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(rec.Title))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(rec.Title))

	rec.Description.WhenSome(func(d string) {
		fmt.Fprintf(&b, "<p class=\"description\">%s</p>\n",
			html.EscapeString(d))
	})
	if !rec.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "<p class=\"created\">%s</p>\n",
			rec.CreatedAt.Format("2006-01-02 15:04"))
	}

	b.WriteString("<section class=\"summary\">\n")
	b.WriteString(body)
	b.WriteString("</section>\n")

	if opts.IncludeOriginal && rec.OriginalText != "" {
		b.WriteString("<section class=\"original\">\n<h2>Original " +
			"text</h2>\n<pre>")
		b.WriteString(html.EscapeString(rec.OriginalText))
		b.WriteString("</pre>\n</section>\n")
	}

	b.WriteString("</body>\n</html>\n")

	return b.String(), nil
}

// Text renders rec for a terminal.
func Text(rec summary.Record, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", rec.Title)
	b.WriteString(strings.Repeat("=", max(len([]rune(rec.Title)), 3)))
	b.WriteString("\n")

	fmt.Fprintf(&b, "ID: %s\n", rec.ID)
	rec.Description.WhenSome(func(d string) {
		fmt.Fprintf(&b, "Description: %s\n", d)
	})
	rec.CustomInstructions.WhenSome(func(s string) {
		fmt.Fprintf(&b, "Instructions: %s\n", s)
	})
	if !rec.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Created: %s\n",
			rec.CreatedAt.Format("2006-01-02 15:04"))
	}

	fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(rec.SummarizedText))

	if opts.IncludeOriginal && rec.OriginalText != "" {
		b.WriteString("\n--- Original text ---\n")
		fmt.Fprintf(&b, "%s\n", strings.TrimSpace(rec.OriginalText))
	}

	return b.String()
}
