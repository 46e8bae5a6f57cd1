package parser

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/outliner/internal/doctree"
)

const (
	baselineTolerance = 0.5 // Fraction of glyph size for same-line grouping
	wordGapRatio      = 0.2 // Horizontal gap, in glyph sizes, read as a space
	blockGapRatio     = 1.5 // Baseline distance, in line sizes, that ends a block
	fallbackGlyphSize = 10.0
)

type glyphRow struct {
	y      float64
	size   float64 // Largest glyph size on the row
	glyphs []pdflib.Text
}

// layoutGlyphs rebuilds blocks, lines and spans from positioned glyph runs.
// PDF y grows upward, so rows are emitted from the highest baseline down.
func layoutGlyphs(texts []pdflib.Text) []doctree.Block {
	rows := groupRows(texts)

	var (
		blocks []doctree.Block
		cur    doctree.Block
		prev   *glyphRow
	)
	for i := range rows {
		row := &rows[i]
		line := rowLine(row.glyphs)
		if len(line.Spans) == 0 {
			continue
		}
		if prev != nil && prev.y-row.y > blockGapRatio*prev.size && len(cur.Lines) > 0 {
			blocks = append(blocks, cur)
			cur = doctree.Block{}
		}
		cur.Lines = append(cur.Lines, line)
		prev = row
	}
	if len(cur.Lines) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

func glyphSize(t pdflib.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize
	}
	return fallbackGlyphSize
}

// groupRows buckets glyphs by baseline. Glyphs are visited top to bottom;
// a glyph joins the current row when its baseline is within tolerance.
func groupRows(texts []pdflib.Text) []glyphRow {
	glyphs := make([]pdflib.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			glyphs = append(glyphs, t)
		}
	}
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].Y > glyphs[j].Y })

	var rows []glyphRow
	for _, g := range glyphs {
		size := glyphSize(g)
		if n := len(rows); n > 0 {
			last := &rows[n-1]
			if math.Abs(last.y-g.Y) <= baselineTolerance*math.Max(last.size, size) {
				last.glyphs = append(last.glyphs, g)
				last.size = math.Max(last.size, size)
				continue
			}
		}
		rows = append(rows, glyphRow{y: g.Y, size: size, glyphs: []pdflib.Text{g}})
	}

	for i := range rows {
		sort.SliceStable(rows[i].glyphs, func(a, b int) bool {
			return rows[i].glyphs[a].X < rows[i].glyphs[b].X
		})
	}
	return rows
}

func glyphWidth(t pdflib.Text) float64 {
	if t.W > 0 {
		return t.W
	}
	return 0.5 * glyphSize(t) * float64(utf8.RuneCountInString(t.S))
}

// rowLine turns an x-sorted row into spans. A font or size change starts a
// new span; whitespace glyphs and wide gaps become single spaces inside a
// span and are dropped at span edges.
func rowLine(glyphs []pdflib.Text) doctree.Line {
	var (
		line    doctree.Line
		buf     strings.Builder
		font    string
		size    float64
		pending bool
		prevEnd float64
	)
	flush := func() {
		if buf.Len() > 0 {
			line.Spans = append(line.Spans, doctree.Span{Text: buf.String(), Size: size, Font: font})
		}
		buf.Reset()
		pending = false
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			if buf.Len() > 0 {
				pending = true
			}
			prevEnd = g.X + glyphWidth(g)
			continue
		}

		if buf.Len() > 0 && (g.Font != font || g.FontSize != size) {
			flush()
		}
		if buf.Len() > 0 && (pending || g.X-prevEnd > wordGapRatio*glyphSize(g)) {
			buf.WriteByte(' ')
		}
		if buf.Len() == 0 {
			font, size = g.Font, g.FontSize
		}
		pending = false
		buf.WriteString(g.S)
		prevEnd = g.X + glyphWidth(g)
	}
	flush()
	return line
}
