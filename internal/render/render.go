package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/dgallion1/outliner/internal/outline"
)

// Format names accepted by Render.
const (
	FormatJSON     = "json"
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// Render formats o and returns the bytes with their content type.
func Render(o outline.Outline, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		b, err := JSON(o)
		return b, "application/json", err
	case FormatMarkdown, "markdown":
		return []byte(Markdown(o)), "text/markdown; charset=utf-8", nil
	case FormatHTML:
		b, err := HTML(o)
		return b, "text/html; charset=utf-8", err
	default:
		return nil, "", fmt.Errorf("unknown format %q", format)
	}
}

// JSON returns the record indented by two spaces with a trailing newline.
func JSON(o outline.Outline) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return nil, fmt.Errorf("marshal outline: %w", err)
	}
	return buf.Bytes(), nil
}

// Markdown renders the title as a heading followed by a nested list.
func Markdown(o outline.Outline) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(escapeMarkdown(o.Title))
	b.WriteString("\n\n")
	if len(o.Outline) == 0 {
		b.WriteString("_No headings found._\n")
		return b.String()
	}
	var write func(nodes []*Node, indent int)
	write = func(nodes []*Node, indent int) {
		for _, n := range nodes {
			fmt.Fprintf(&b, "%s- %s (p. %d)\n", strings.Repeat("  ", indent), escapeMarkdown(n.Heading.Text), n.Heading.Page)
			write(n.Children, indent+1)
		}
	}
	write(Tree(o.Outline), 0)
	return b.String()
}

// HTML converts the Markdown rendering with goldmark and wraps it in a
// minimal page.
func HTML(o outline.Outline) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(o)), &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(o.Title))
	b.WriteString("</title></head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body></html>\n")
	return b.Bytes(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
