package extract

import (
	"strings"
	"testing"

	"github.com/dgallion1/outliner/internal/doctree"
)

func page(blocks ...doctree.Block) doctree.Page {
	return doctree.Page{Blocks: blocks}
}

func block(lines ...doctree.Line) doctree.Block {
	return doctree.Block{Lines: lines}
}

func TestCandidates_BasicOrder(t *testing.T) {
	doc := &doctree.Document{Pages: []doctree.Page{
		page(block(doctree.TextLine("Introduction", 18.04), doctree.TextLine("Body text here.", 11))),
		page(),
		page(doctree.Block{}, block(doctree.TextLine("  Methods  ", 14.25))),
	}}

	res := Candidates(doc)
	if len(res.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(res.Candidates))
	}

	want := []struct {
		text string
		size float64
		page int
	}{
		{"Introduction", 18.0, 1},
		{"Body text here.", 11.0, 1},
		{"Methods", 14.2, 3},
	}
	for i, w := range want {
		c := res.Candidates[i]
		if c.Text != w.text || c.Size != w.size || c.Page != w.page {
			t.Errorf("candidate %d: expected {%q %v %d}, got {%q %v %d}", i, w.text, w.size, w.page, c.Text, c.Size, c.Page)
		}
	}
}

func TestCandidates_JoinsSpansUsesFirstSize(t *testing.T) {
	line := doctree.Line{Spans: []doctree.Span{
		{Text: "1.2", Size: 12},
		{Text: "Scope", Size: 16},
	}}
	res := Candidates(&doctree.Document{Pages: []doctree.Page{page(block(line))}})
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(res.Candidates))
	}
	c := res.Candidates[0]
	if c.Text != "1.2 Scope" {
		t.Errorf("expected text %q, got %q", "1.2 Scope", c.Text)
	}
	if c.Size != 12 {
		t.Errorf("expected first-span size 12, got %v", c.Size)
	}
}

func TestCandidates_Rejections(t *testing.T) {
	long := strings.Repeat("x", MaxLineRunes+1)
	exact := strings.Repeat("é", MaxLineRunes)

	doc := &doctree.Document{Pages: []doctree.Page{page(block(
		doctree.Line{},
		doctree.TextLine("   ", 10),
		doctree.Line{Spans: []doctree.Span{{Text: " ", Size: 10}, {Text: "", Size: 10}}},
		doctree.TextLine(long, 10),
		doctree.TextLine(exact, 9),
	))}}

	res := Candidates(doc)
	if len(res.Candidates) != 1 {
		t.Fatalf("expected only the 120-rune line to survive, got %d candidates", len(res.Candidates))
	}
	if res.Candidates[0].Text != exact {
		t.Errorf("unexpected surviving text %q", res.Candidates[0].Text)
	}
	if res.Sizes.Total() != 1 || res.Sizes[9] != 1 {
		t.Errorf("rejected lines must not be counted, got %v", res.Sizes)
	}
}

func TestCandidates_NoText(t *testing.T) {
	doc := &doctree.Document{Pages: []doctree.Page{page(doctree.Block{})}}
	res := Candidates(doc)
	if len(res.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(res.Candidates))
	}
	if res.Sizes == nil {
		t.Error("expected non-nil histogram")
	}

	res = Candidates(nil)
	if len(res.Candidates) != 0 {
		t.Errorf("expected no candidates for nil doc, got %d", len(res.Candidates))
	}
}

func TestRoundSize(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{11.96, 12.0},
		{11.94, 11.9},
		{12.25, 12.2},
		{10.25, 10.2},
		{9.45, 9.4},
		{11.35, 11.3},
		{12.35, 12.3},
		{12.75, 12.8},
		{-3.25, -3.2},
		{10, 10},
		{0, 0},
	}
	for _, tt := range tests {
		if got := RoundSize(tt.in); got != tt.want {
			t.Errorf("RoundSize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSizeHistogram(t *testing.T) {
	h := SizeHistogram{11: 40, 18: 2, 9.5: 40, 14: 5}

	if got := h.BodySize(); got != 9.5 {
		t.Errorf("expected body size 9.5 on tie, got %v", got)
	}
	if got := h.Total(); got != 87 {
		t.Errorf("expected total 87, got %d", got)
	}

	sorted := h.Sorted()
	if len(sorted) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(sorted))
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Size >= sorted[i].Size {
			t.Errorf("buckets not ascending: %v", sorted)
		}
	}

	if (SizeHistogram{}).BodySize() != 0 {
		t.Error("expected 0 body size for empty histogram")
	}
}
