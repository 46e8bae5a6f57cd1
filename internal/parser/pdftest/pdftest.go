// Package pdftest builds small text PDFs for tests.
package pdftest

import (
	"fmt"
	"strings"
)

// Line is one run of Helvetica text drawn at a baseline.
type Line struct {
	Text string
	Size float64
	Y    float64
}

// Build writes a PDF with one page per argument. Pages are US Letter and
// every line starts at x = 72.
func Build(pages ...[]Line) []byte {
	// Objects: 1 catalog, 2 pages, 3 font, then a page/content pair per page.
	nobj := 3 + 2*len(pages)
	offsets := make([]int, nobj+1)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(pages))
	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, lines := range pages {
		pageObj, contentObj := 4+2*i, 5+2*i
		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n", pageObj, contentObj)

		stream := contentStream(lines)
		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", nobj+1)
	for i := 1; i <= nobj; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", nobj+1, xref)
	return []byte(b.String())
}

func contentStream(lines []Line) string {
	var s strings.Builder
	for i, l := range lines {
		if i > 0 {
			s.WriteByte('\n')
		}
		fmt.Fprintf(&s, "BT\n/F1 %g Tf\n72 %g Td\n(%s) Tj\nET", l.Size, l.Y, escape(l.Text))
	}
	return s.String()
}

var escaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

func escape(s string) string {
	return escaper.Replace(s)
}
