// Package chunker turns converted markdown into an ordered stream of
// bounded-size, typed chunks ready for embedding and indexing. Structural
// elements (tables, code blocks, prose) are split by element-appropriate
// strategies, then flattened into one sequentially numbered chunk stream.
package chunker

import (
	"sort"
	"strings"

	"ingestd/internal/markdown"
)

// splitters holds the lazily constructed per-invocation splitter handles.
// They exist only as a construction-cost optimization: each handle is scoped
// to a single ChunkMarkdown call and every Split is pure.
type splitters struct {
	prose *proseSplitter
	table *tableSplitter
	code  *codeSplitter
	opts  Options
}

// ChunkMarkdown splits one markdown document into ordered, whitespace-trimmed
// chunk texts. Elements are processed in non-decreasing start-offset order;
// for equal offsets tables come before code, code before prose.
func ChunkMarkdown(source string, opts Options) ([]string, error) {
	opts = opts.withDefaults()

	doc, err := markdown.Parse(source)
	if err != nil {
		return nil, err
	}

	// Fixed concatenation order establishes the tie-break for elements
	// sharing a start offset; the sort below is stable.
	items := make([]markdown.Element, 0, len(doc.Tables)+len(doc.Code)+len(doc.Images)+len(doc.Prose))
	items = append(items, doc.Tables...)
	items = append(items, doc.Code...)
	items = append(items, doc.Images...)
	items = append(items, doc.Prose...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartIndex < items[j].StartIndex
	})

	sp := &splitters{opts: opts}

	var out []string
	for _, item := range items {
		var pieces []string
		var err error

		switch item.Kind {
		case markdown.KindTable:
			if sp.table == nil {
				sp.table = newTableSplitter(opts.ChunkSize)
			}
			pieces, err = sp.table.Split(item.Text)
		case markdown.KindCode:
			pieces, err = sp.splitCode(item)
		case markdown.KindImage:
			// Image extraction is disabled upstream; nothing arrives here.
			continue
		default:
			if sp.prose == nil {
				sp.prose = newProseSplitter(opts.ChunkSize, separatorsFor(opts.LanguageCode))
			}
			pieces, err = sp.prose.Split(item.Text)
		}
		if err != nil {
			return nil, err
		}

		for _, p := range pieces {
			out = append(out, strings.TrimSpace(p))
		}
	}

	return out, nil
}

// splitCode routes a code block to the code splitter, rebuilding it when the
// block declares a different language, and falls back to plain-text splitting
// when the language has no grammar.
func (sp *splitters) splitCode(item markdown.Element) ([]string, error) {
	if sp.code == nil || (item.Language != "" && sp.code.language != item.Language) {
		cs, err := newCodeSplitter(item.Language, sp.opts.ChunkSize)
		if err != nil {
			return sp.fallbackSplit(item.Text)
		}
		sp.code = cs
	}
	pieces, err := sp.code.Split(item.Text)
	if err != nil {
		return sp.fallbackSplit(item.Text)
	}
	return pieces, nil
}

// fallbackSplit chunks an unsplittable code block as plain text. It reuses the
// shared prose handle, constructing it without sentence rules if no prose has
// been split yet.
func (sp *splitters) fallbackSplit(content string) ([]string, error) {
	if sp.prose == nil {
		sp.prose = newProseSplitter(sp.opts.ChunkSize, plainSeparators())
	}
	return sp.prose.Split(content)
}
