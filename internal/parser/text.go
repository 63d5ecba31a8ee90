package parser

import (
	"bufio"
	"io"
	"strings"

	"ingestd/internal/chunker"
)

// TextParser handles plain text files. Paragraphs are normalized to
// blank-line-separated blocks so prose splitting sees clean boundaries.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]chunker.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return []chunker.Document{{Text: strings.Join(paragraphs, "\n\n")}}, nil
}
