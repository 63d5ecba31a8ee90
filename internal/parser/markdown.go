package parser

import (
	"io"

	"ingestd/internal/chunker"
)

// MarkdownParser passes markdown through unchanged; the chunker's structural
// parser handles the format natively.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]chunker.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return []chunker.Document{{Text: string(data)}}, nil
}
