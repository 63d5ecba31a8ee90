package markdown

import (
	"strings"
	"testing"
)

const mixedDoc = `# Title

Some intro text.

| a | b |
|---|---|
| 1 | 2 |

More prose here.

` + "```go\nfunc main() {}\n```" + `

Closing words.
`

func TestParse_MixedElements(t *testing.T) {
	doc, err := Parse(mixedDoc)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(doc.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(doc.Tables))
	}
	if len(doc.Code) != 1 {
		t.Fatalf("expected 1 code block, got %d", len(doc.Code))
	}
	if len(doc.Prose) != 3 {
		t.Fatalf("expected 3 prose segments, got %d", len(doc.Prose))
	}

	table := doc.Tables[0]
	if !strings.Contains(table.Text, "|---|---|") {
		t.Errorf("table source missing delimiter row: %q", table.Text)
	}
	if !strings.Contains(table.Text, "| 1 | 2 |") {
		t.Errorf("table source missing data row: %q", table.Text)
	}

	code := doc.Code[0]
	if code.Language != "go" {
		t.Errorf("expected language %q, got %q", "go", code.Language)
	}
	if strings.Contains(code.Text, "```") {
		t.Errorf("code content should not include fences: %q", code.Text)
	}
	if !strings.Contains(code.Text, "func main() {}") {
		t.Errorf("code content missing body: %q", code.Text)
	}

	if !strings.Contains(doc.Prose[0].Text, "# Title") {
		t.Errorf("first prose segment should keep heading markers: %q", doc.Prose[0].Text)
	}
}

func TestParse_OffsetsOrderElements(t *testing.T) {
	doc, err := Parse(mixedDoc)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	// prose < table < prose < code < prose by start offset.
	if !(doc.Prose[0].StartIndex < doc.Tables[0].StartIndex) {
		t.Errorf("intro prose should start before the table")
	}
	if !(doc.Tables[0].StartIndex < doc.Prose[1].StartIndex) {
		t.Errorf("table should start before the middle prose")
	}
	if !(doc.Prose[1].StartIndex < doc.Code[0].StartIndex) {
		t.Errorf("middle prose should start before the code block")
	}
	if !(doc.Code[0].StartIndex < doc.Prose[2].StartIndex) {
		t.Errorf("code block should start before the closing prose")
	}
}

func TestParse_ImagesAlwaysEmpty(t *testing.T) {
	doc, err := Parse("before\n\n![diagram](diagram.png)\n\nafter\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Images) != 0 {
		t.Fatalf("image extraction is disabled, got %d images", len(doc.Images))
	}
	// The image markup stays inside prose.
	var all strings.Builder
	for _, p := range doc.Prose {
		all.WriteString(p.Text)
	}
	if !strings.Contains(all.String(), "![diagram](diagram.png)") {
		t.Errorf("image markup should remain in prose, got %q", all.String())
	}
}

func TestParse_IndentedCodeBlock(t *testing.T) {
	doc, err := Parse("intro\n\n    x := 1\n    y := 2\n\noutro\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Code) != 1 {
		t.Fatalf("expected 1 code block, got %d", len(doc.Code))
	}
	if doc.Code[0].Language != "" {
		t.Errorf("indented code has no language, got %q", doc.Code[0].Language)
	}
}

func TestParse_EmptyAndWhitespaceInput(t *testing.T) {
	for _, src := range []string{"", "   \n\n  \n"} {
		doc, err := Parse(src)
		if err != nil {
			t.Fatalf("parse %q failed: %v", src, err)
		}
		total := len(doc.Prose) + len(doc.Tables) + len(doc.Code) + len(doc.Images)
		if total != 0 {
			t.Errorf("parse %q: expected no elements, got %d", src, total)
		}
	}
}

func TestParse_UnclosedFence(t *testing.T) {
	doc, err := Parse("```python\nprint('hi')")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Code) != 1 {
		t.Fatalf("expected 1 code block, got %d", len(doc.Code))
	}
	if doc.Code[0].Language != "python" {
		t.Errorf("expected language %q, got %q", "python", doc.Code[0].Language)
	}
}
