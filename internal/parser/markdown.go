package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/outliner/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark. Headings use the
// same sizes as HTML headings; other blocks are body text with one line per
// source line.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	root := goldmark.New().Parser().Parse(text.NewReader(src))

	page := doctree.Page{Number: 1}
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch node := n.(type) {
		case *ast.Heading:
			t := collapseSpace(inlineText(node, src))
			if t != "" {
				page.Blocks = append(page.Blocks, doctree.Block{
					Lines: []doctree.Line{doctree.TextLine(t, HeadingSize(node.Level))},
				})
			}
			return
		case *ast.Paragraph, *ast.TextBlock:
			var block doctree.Block
			for _, line := range strings.Split(inlineText(node, src), "\n") {
				if strings.TrimSpace(line) != "" {
					block.Lines = append(block.Lines, doctree.TextLine(line, BodySize))
				}
			}
			if len(block.Lines) > 0 {
				page.Blocks = append(page.Blocks, block)
			}
			return
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.ThematicBreak:
			return
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(root)

	return &doctree.Document{Name: docName(filename), Pages: []doctree.Page{page}}, nil
}

// inlineText gathers the text of inline children. Soft and hard breaks
// become newlines.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}
