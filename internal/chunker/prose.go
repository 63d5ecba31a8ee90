package chunker

import (
	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter divides a content string into size-bounded text pieces. Each Split
// call must be a pure function of its input and the splitter's construction-time
// configuration; no state may leak between calls.
type Splitter interface {
	Split(content string) ([]string, error)
}

// proseSplitter wraps langchaingo's recursive character splitter with a
// locale-dependent separator hierarchy.
type proseSplitter struct {
	inner textsplitter.RecursiveCharacter
}

func newProseSplitter(chunkSize int, separators []string) *proseSplitter {
	return &proseSplitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(0),
			textsplitter.WithSeparators(separators),
		),
	}
}

func (p *proseSplitter) Split(content string) ([]string, error) {
	return p.inner.SplitText(content)
}
