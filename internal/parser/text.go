package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/outliner/internal/doctree"
)

// TextParser handles plain text files. The whole file is one page; each
// paragraph is a block and each physical line a single-span line.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &doctree.Document{
		Name:  docName(filename),
		Pages: []doctree.Page{{Number: 1, Blocks: paragraphBlocks(string(src), BodySize)}},
	}, nil
}

// paragraphBlocks splits text on blank lines. Lines keep their original
// spacing; trimming is left to the extractor.
func paragraphBlocks(text string, size float64) []doctree.Block {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		blocks []doctree.Block
		cur    doctree.Block
	)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(cur.Lines) > 0 {
				blocks = append(blocks, cur)
				cur = doctree.Block{}
			}
			continue
		}
		cur.Lines = append(cur.Lines, doctree.TextLine(line, size))
	}
	if len(cur.Lines) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}
