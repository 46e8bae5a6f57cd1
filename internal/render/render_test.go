package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/outliner/internal/outline"
)

func sample() outline.Outline {
	return outline.Outline{
		Title: "Annual Report",
		Outline: []outline.RankedHeading{
			{Level: outline.H2, Text: "Preface", Page: 1},
			{Level: outline.H1, Text: "Annual Report", Page: 1},
			{Level: outline.H2, Text: "Revenue", Page: 2},
			{Level: outline.H3, Text: "By region", Page: 2},
			{Level: outline.H3, Text: "By product", Page: 3},
			{Level: outline.H1, Text: "Risks & <Outlook>", Page: 4},
		},
	}
}

func TestTree(t *testing.T) {
	roots := Tree(sample().Outline)
	if len(roots) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(roots))
	}
	if roots[0].Heading.Text != "Preface" || len(roots[0].Children) != 0 {
		t.Errorf("expected leading H2 to be a childless root, got %+v", roots[0])
	}
	report := roots[1]
	if len(report.Children) != 1 || report.Children[0].Heading.Text != "Revenue" {
		t.Fatalf("expected Revenue under Annual Report, got %+v", report.Children)
	}
	if n := len(report.Children[0].Children); n != 2 {
		t.Errorf("expected 2 H3 children under Revenue, got %d", n)
	}
	if Tree(nil) != nil {
		t.Error("expected nil tree for no headings")
	}
}

func TestJSON(t *testing.T) {
	b, err := JSON(sample())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"text": "Risks & <Outlook>"`) {
		t.Errorf("expected unescaped text in output, got %s", b)
	}
	if !strings.HasPrefix(string(b), "{\n  \"title\": \"Annual Report\",\n  \"outline\": [") {
		t.Errorf("unexpected layout:\n%s", b)
	}

	var back map[string]any
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(back) != 2 {
		t.Errorf("expected exactly title and outline keys, got %v", back)
	}

	empty, err := JSON(outline.Outline{Title: outline.Untitled})
	if err != nil {
		t.Fatal(err)
	}
	if string(empty) != "{\n  \"title\": \"Untitled\",\n  \"outline\": []\n}\n" {
		t.Errorf("unexpected empty rendering %q", empty)
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sample())
	want := strings.Join([]string{
		"# Annual Report",
		"",
		"- Preface (p. 1)",
		"- Annual Report (p. 1)",
		"  - Revenue (p. 2)",
		"    - By region (p. 2)",
		"    - By product (p. 3)",
		"- Risks & &lt;Outlook&gt; (p. 4)",
		"",
	}, "\n")
	if md != want {
		t.Errorf("unexpected markdown:\n%s\nwant:\n%s", md, want)
	}

	if got := Markdown(outline.Empty()); !strings.Contains(got, "No headings found") {
		t.Errorf("expected placeholder for empty outline, got %q", got)
	}
}

func TestHTML(t *testing.T) {
	b, err := HTML(sample())
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, want := range []string{"<title>Annual Report</title>", "<h1>Annual Report</h1>", "<li>Revenue (p. 2)", "<ul>"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in html output:\n%s", want, s)
		}
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		format string
		ctype  string
	}{
		{"", "application/json"},
		{"json", "application/json"},
		{"md", "text/markdown; charset=utf-8"},
		{"HTML", "text/html; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			b, ctype, err := Render(sample(), tt.format)
			if err != nil {
				t.Fatal(err)
			}
			if ctype != tt.ctype {
				t.Errorf("expected content type %q, got %q", tt.ctype, ctype)
			}
			if len(b) == 0 {
				t.Error("expected output")
			}
		})
	}
	if _, _, err := Render(sample(), "pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
}
