package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/outliner/internal/doctree"
)

// DOCXParser handles .docx files. Word has no fixed pagination, so the
// document is a single page; each paragraph is a block with one line and
// each run is a span.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	page := doctree.Page{Number: 1}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		fallback := DocxBodySize
		if level := docxHeadingLevel(para); level > 0 {
			fallback = HeadingSize(level)
		}

		var line doctree.Line
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			text := docxRunText(run)
			if text == "" {
				continue
			}
			size := docxRunSize(run, fallback)
			// Runs split words freely; only a size change starts a span.
			if n := len(line.Spans); n > 0 && line.Spans[n-1].Size == size {
				line.Spans[n-1].Text += text
				continue
			}
			line.Spans = append(line.Spans, doctree.Span{Text: text, Size: size})
		}
		if len(line.Spans) > 0 {
			page.Blocks = append(page.Blocks, doctree.Block{Lines: []doctree.Line{line}})
		}
	}

	return &doctree.Document{Name: docName(filename), Pages: []doctree.Page{page}}, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	switch style {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	if rest, ok := strings.CutPrefix(style, "heading"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 6 {
			return n
		}
	}
	return 0
}

func docxRunText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		if t, ok := rc.(*docx.Text); ok {
			buf.WriteString(t.Text)
		}
	}
	return buf.String()
}

// docxRunSize reads w:sz, which is in half-points.
func docxRunSize(run *docx.Run, fallback float64) float64 {
	if run.RunProperties == nil || run.RunProperties.Size == nil {
		return fallback
	}
	half, err := strconv.ParseFloat(run.RunProperties.Size.Val, 64)
	if err != nil || half <= 0 {
		return fallback
	}
	return half / 2
}
