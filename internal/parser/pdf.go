package parser

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/outliner/internal/doctree"
)

// PDFParser reads positioned glyphs with ledongthuc/pdf and rebuilds lines
// and blocks from their coordinates. When FallbackPdftotext is set and the
// library cannot open the file, pdftotext supplies text at a uniform size.
type PDFParser struct {
	FallbackPdftotext bool
	Logger            *slog.Logger
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	doc, err := p.readLayout(data)
	if err != nil && p.FallbackPdftotext {
		p.logger().Warn("pdf library failed, trying pdftotext", "filename", filename, "error", err)
		doc, err = pdftotextLayout(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf layout: %w", err)
	}
	doc.Name = docName(filename)
	return doc, nil
}

func (p *PDFParser) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *PDFParser) readLayout(data []byte) (doc *doctree.Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	n := reader.NumPage()
	doc = &doctree.Document{Pages: make([]doctree.Page, n)}
	for i := 1; i <= n; i++ {
		doc.Pages[i-1] = doctree.Page{Number: i, Blocks: p.pageBlocks(reader, i)}
	}
	return doc, nil
}

// pageBlocks lays out one page. A null page or one whose content stream
// cannot be interpreted yields no blocks.
func (p *PDFParser) pageBlocks(reader *pdflib.Reader, num int) (blocks []doctree.Block) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger().Warn("skipping unreadable pdf page", "page", num, "error", rec)
			blocks = nil
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return nil
	}
	return layoutGlyphs(page.Content().Text)
}

// pdftotextLayout runs the pdftotext binary. Pages split on form feeds and
// paragraphs on blank lines; every line gets BodySize.
func pdftotextLayout(data []byte) (*doctree.Document, error) {
	// pdftotext wants a path.
	tmp, err := os.CreateTemp("", "outliner-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	pages := strings.Split(strings.TrimSuffix(string(out), "\f"), "\f")
	doc := &doctree.Document{Pages: make([]doctree.Page, len(pages))}
	for i, text := range pages {
		doc.Pages[i] = doctree.Page{Number: i + 1, Blocks: paragraphBlocks(text, BodySize)}
	}
	return doc, nil
}
