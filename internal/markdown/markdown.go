// Package markdown parses a markdown string into offset-stamped structural
// elements: prose segments, tables, code blocks and images. The chunker
// dispatches each element kind to its own splitting strategy.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ElementKind tags the four structural element families.
type ElementKind int

const (
	KindProse ElementKind = iota
	KindTable
	KindCode
	KindImage
)

func (k ElementKind) String() string {
	switch k {
	case KindProse:
		return "prose"
	case KindTable:
		return "table"
	case KindCode:
		return "code"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// Element is a typed, offset-located region of a markdown document.
type Element struct {
	Kind       ElementKind
	Text       string // prose source, table source, or code block body
	Language   string // code blocks only; empty when the fence carries no info string
	StartIndex int    // byte offset into the parsed source
}

// Document holds the four element families, each in source order.
type Document struct {
	Prose  []Element
	Tables []Element
	Code   []Element
	Images []Element // always empty: image extraction is disabled
}

type span struct {
	start, stop int
}

// Parse splits markdown source into structural elements. A trailing newline is
// appended before parsing so that elements ending at end-of-string get stable
// boundaries. Tables and code blocks come from the goldmark AST; prose segments
// are the raw source gaps between them, so prose keeps its markdown syntax
// (heading markers, list bullets, emphasis).
func Parse(source string) (*Document, error) {
	src := []byte(source + "\n")
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(src))

	doc := &Document{}
	var covered []span

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *east.Table:
			sp, ok := textSpan(node)
			if !ok {
				continue
			}
			sp = expandToLines(src, sp)
			doc.Tables = append(doc.Tables, Element{
				Kind:       KindTable,
				Text:       strings.TrimRight(string(src[sp.start:sp.stop]), "\n"),
				StartIndex: sp.start,
			})
			covered = append(covered, sp)

		case *ast.FencedCodeBlock:
			inner, ok := linesSpan(node)
			if !ok {
				// An empty fence has no content to chunk; its fence lines
				// stay in the surrounding prose.
				continue
			}
			sp := expandFences(src, expandToLines(src, inner))
			doc.Code = append(doc.Code, Element{
				Kind:       KindCode,
				Text:       string(src[inner.start:inner.stop]),
				Language:   string(node.Language(src)),
				StartIndex: sp.start,
			})
			covered = append(covered, sp)

		case *ast.CodeBlock:
			// Indented code block: no fence, no language.
			inner, ok := linesSpan(node)
			if !ok {
				continue
			}
			sp := expandToLines(src, inner)
			doc.Code = append(doc.Code, Element{
				Kind:       KindCode,
				Text:       string(src[inner.start:inner.stop]),
				StartIndex: sp.start,
			})
			covered = append(covered, sp)
		}
	}

	// Image extraction is intentionally disabled; doc.Images stays empty so
	// images are chunked as part of the surrounding prose and never returned
	// as standalone elements.

	// Everything between the covered spans is prose.
	pos := 0
	for _, sp := range covered {
		if sp.start > pos {
			addProse(doc, src, pos, sp.start)
		}
		if sp.stop > pos {
			pos = sp.stop
		}
	}
	if pos < len(src) {
		addProse(doc, src, pos, len(src))
	}

	return doc, nil
}

func addProse(doc *Document, src []byte, start, stop int) {
	gap := string(src[start:stop])
	if strings.TrimSpace(gap) == "" {
		return
	}
	doc.Prose = append(doc.Prose, Element{
		Kind:       KindProse,
		Text:       gap,
		StartIndex: start,
	})
}

// textSpan finds the smallest source range covering every text segment under n.
func textSpan(n ast.Node) (span, bool) {
	start, stop := -1, -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			seg := t.Segment
			if start == -1 || seg.Start < start {
				start = seg.Start
			}
			if seg.Stop > stop {
				stop = seg.Stop
			}
		}
		return ast.WalkContinue, nil
	})
	if start == -1 {
		return span{}, false
	}
	return span{start, stop}, true
}

// linesSpan returns the range of a block node's raw content lines.
func linesSpan(n ast.Node) (span, bool) {
	lines := n.Lines()
	if lines.Len() == 0 {
		return span{}, false
	}
	return span{lines.At(0).Start, lines.At(lines.Len() - 1).Stop}, true
}

// expandToLines grows a span outward to full line boundaries, including the
// trailing newline.
func expandToLines(src []byte, sp span) span {
	for sp.start > 0 && src[sp.start-1] != '\n' {
		sp.start--
	}
	for sp.stop < len(src) && src[sp.stop] != '\n' {
		sp.stop++
	}
	if sp.stop < len(src) {
		sp.stop++
	}
	return sp
}

// expandFences grows a line-aligned content span to cover the fence lines
// around a fenced code block.
func expandFences(src []byte, sp span) span {
	if sp.start > 0 {
		sp.start-- // newline ending the opening fence line
		for sp.start > 0 && src[sp.start-1] != '\n' {
			sp.start--
		}
	}
	for sp.stop < len(src) && src[sp.stop] != '\n' {
		sp.stop++
	}
	if sp.stop < len(src) {
		sp.stop++
	}
	return sp
}
