package doctree

// Document is the page-level layout of a parsed file.
type Document struct {
	Name  string // Source filename without directory
	Pages []Page // In document order
}

// Page holds the text blocks found on one page.
type Page struct {
	Number int     // 1-based
	Blocks []Block // In reading order
}

// Block is a group of vertically adjacent lines. A block with no lines
// stands for non-text content such as an image.
type Block struct {
	Lines []Line
}

// Line is a single baseline of text made of one or more spans.
type Line struct {
	Spans []Span
}

// Span is a run of text sharing one font and size.
type Span struct {
	Text string
	Size float64 // Font size in points
	Font string  // Font name, empty if unknown
}

// IsText reports whether the block carries any lines.
func (b Block) IsText() bool {
	return len(b.Lines) > 0
}

// LineCount returns the total number of lines in the document.
func (d *Document) LineCount() int {
	n := 0
	for _, p := range d.Pages {
		for _, b := range p.Blocks {
			n += len(b.Lines)
		}
	}
	return n
}

// TextLine builds a single-span line.
func TextLine(text string, size float64) Line {
	return Line{Spans: []Span{{Text: text, Size: size}}}
}
