// Package extract walks a document layout and emits the lines that are
// considered for heading classification.
package extract

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/outliner/internal/doctree"
	"github.com/dgallion1/outliner/internal/outline"
)

// MaxLineRunes is the longest line, in code points, kept as a candidate.
const MaxLineRunes = 120

// Result is the extractor output for one document.
type Result struct {
	Candidates []outline.Candidate
	Sizes      SizeHistogram
}

// Candidates walks pages in order and returns one candidate per accepted
// line. Blocks without lines are skipped. A page without text contributes
// nothing.
func Candidates(doc *doctree.Document) Result {
	res := Result{Sizes: SizeHistogram{}}
	if doc == nil {
		return res
	}

	for i, page := range doc.Pages {
		pageNum := i + 1
		for _, block := range page.Blocks {
			if !block.IsText() {
				continue
			}
			for _, line := range block.Lines {
				text, ok := LineText(line)
				if !ok {
					continue
				}
				size := RoundSize(line.Spans[0].Size)
				res.Candidates = append(res.Candidates, outline.Candidate{
					Text: text,
					Size: size,
					Page: pageNum,
				})
				res.Sizes[size]++
			}
		}
	}

	return res
}

// LineText joins span texts with single spaces and strips the result. The
// second return is false when the line is rejected.
func LineText(line doctree.Line) (string, bool) {
	if len(line.Spans) == 0 {
		return "", false
	}
	parts := make([]string, len(line.Spans))
	for i, s := range line.Spans {
		parts[i] = s.Text
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" || utf8.RuneCountInString(text) > MaxLineRunes {
		return "", false
	}
	return text, true
}

// RoundSize rounds a font size to one decimal. Rounding works on the exact
// binary value, and exact ties go to the even digit, so 12.25 gives 12.2.
func RoundSize(size float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(size, 'f', 1, 64), 64)
	if err != nil {
		return size
	}
	return r
}
