package chunker

import (
	"strings"
	"unicode/utf8"
)

// tableSplitter groups markdown table rows into size-bounded pieces. Every
// piece after the first repeats the header and delimiter rows so each chunk
// stays a readable table on its own.
type tableSplitter struct {
	chunkSize int
}

func newTableSplitter(chunkSize int) *tableSplitter {
	return &tableSplitter{chunkSize: chunkSize}
}

func (t *tableSplitter) Split(content string) ([]string, error) {
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(content) <= t.chunkSize {
		return []string{content}, nil
	}

	lines := strings.Split(content, "\n")
	var header []string
	rows := lines
	if len(lines) >= 2 && isDelimiterRow(lines[1]) {
		header = lines[:2]
		rows = lines[2:]
	}

	headerText := strings.Join(header, "\n")
	headerLen := utf8.RuneCountInString(headerText)

	var pieces []string
	var cur strings.Builder
	curLen := 0
	rowsInPiece := 0

	flush := func() {
		if rowsInPiece > 0 {
			pieces = append(pieces, cur.String())
		}
		cur.Reset()
		curLen = 0
		rowsInPiece = 0
	}

	for _, row := range rows {
		rowLen := utf8.RuneCountInString(row) + 1 // joining newline
		if rowsInPiece > 0 && curLen+rowLen > t.chunkSize {
			flush()
		}
		if cur.Len() == 0 && headerText != "" {
			cur.WriteString(headerText)
			curLen = headerLen
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(row)
		curLen += rowLen
		rowsInPiece++
	}
	flush()

	return pieces, nil
}

// isDelimiterRow matches the |---|:---:| row under a table header.
func isDelimiterRow(line string) bool {
	seen := false
	for _, r := range strings.TrimSpace(line) {
		switch r {
		case '-':
			seen = true
		case '|', ':', ' ', '\t':
		default:
			return false
		}
	}
	return seen
}
