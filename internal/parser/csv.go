package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"ingestd/internal/chunker"
)

// CSVParser converts delimited files into a GitHub-style markdown table so the
// chunker's table splitter can break them into size-bounded, header-preserving
// pieces. Pipes are written without padding to keep rows compact.
type CSVParser struct {
	Delimiter rune // 0 = sniff from the first line
}

func (p *CSVParser) Parse(r io.Reader, filename string) ([]chunker.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	delim := p.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return []chunker.Document{{Text: ""}}, nil
	}

	records = padRecords(records)
	records = dropEmptyColumns(records)
	if len(records) == 0 || len(records[0]) == 0 {
		return []chunker.Document{{Text: ""}}, nil
	}

	var sb strings.Builder
	writeRow(&sb, records[0])
	sb.WriteByte('\n')
	sb.WriteByte('|')
	for range records[0] {
		sb.WriteString("---|")
	}
	for _, row := range records[1:] {
		sb.WriteByte('\n')
		writeRow(&sb, row)
	}

	return []chunker.Document{{Text: sb.String()}}, nil
}

// sniffDelimiter picks the most frequent candidate delimiter in the first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, c := range []rune{',', '\t', ';', '|'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// padRecords makes all rows as wide as the widest one.
func padRecords(records [][]string) [][]string {
	width := 0
	for _, row := range records {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range records {
		for len(row) < width {
			row = append(row, "")
		}
		records[i] = row
	}
	return records
}

// dropEmptyColumns removes columns whose every data cell is blank. The header
// row does not count: a named column with no values still goes.
func dropEmptyColumns(records [][]string) [][]string {
	if len(records) == 0 {
		return records
	}
	keep := make([]bool, len(records[0]))
	for _, row := range records[1:] {
		for i, cell := range row {
			if strings.TrimSpace(cell) != "" {
				keep[i] = true
			}
		}
	}
	out := make([][]string, len(records))
	for i, row := range records {
		var filtered []string
		for j, cell := range row {
			if keep[j] {
				filtered = append(filtered, cell)
			}
		}
		out[i] = filtered
	}
	return out
}

func writeRow(sb *strings.Builder, row []string) {
	sb.WriteByte('|')
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		cell = strings.ReplaceAll(cell, "|", "\\|")
		cell = strings.ReplaceAll(cell, "\n", " ")
		sb.WriteString(cell)
		sb.WriteByte('|')
	}
}
