package parser

import (
	"strings"
	"testing"
)

func TestTextParser_ParagraphBlocks(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\n\n   \nThird paragraph."
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "notes.txt" {
		t.Errorf("expected name %q, got %q", "notes.txt", doc.Name)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}

	blocks := doc.Pages[0].Blocks
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if len(blocks[0].Lines) != 2 {
		t.Errorf("expected 2 lines in first block, got %d", len(blocks[0].Lines))
	}

	got := flatten(doc)
	want := []string{"First paragraph line one.", "First paragraph line two.", "Second paragraph.", "Third paragraph."}
	for i, w := range want {
		if got[i].text != w || got[i].size != BodySize {
			t.Errorf("line %d: expected {%q %v}, got %v", i, w, BodySize, got[i])
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 1 || len(doc.Pages[0].Blocks) != 0 {
		t.Errorf("expected one empty page, got %+v", doc.Pages)
	}
}
