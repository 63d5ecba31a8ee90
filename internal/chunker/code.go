package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedLanguage reports that no splitting grammar exists for a code
// block's declared language. The router recovers from it by re-splitting the
// block as plain text; it never reaches the caller.
var ErrUnsupportedLanguage = errors.New("unsupported code language")

// codeBoundaries maps a language id to the line prefixes that open a new
// top-level declaration. Splitting prefers these boundaries so chunks align
// with function and type definitions.
var codeBoundaries = map[string][]string{
	"go":         {"func ", "type ", "var ", "const ", "package ", "import "},
	"python":     {"def ", "class ", "async def ", "@", "if __name__"},
	"py":         {"def ", "class ", "async def ", "@", "if __name__"},
	"javascript": {"function ", "class ", "const ", "let ", "var ", "export ", "import "},
	"js":         {"function ", "class ", "const ", "let ", "var ", "export ", "import "},
	"typescript": {"function ", "class ", "const ", "let ", "interface ", "type ", "export ", "import "},
	"ts":         {"function ", "class ", "const ", "let ", "interface ", "type ", "export ", "import "},
	"java":       {"public ", "private ", "protected ", "class ", "interface ", "import ", "package "},
	"c":          {"#include", "#define", "static ", "void ", "int ", "struct ", "typedef "},
	"cpp":        {"#include", "#define", "static ", "void ", "int ", "class ", "struct ", "template ", "namespace "},
	"c++":        {"#include", "#define", "static ", "void ", "int ", "class ", "struct ", "template ", "namespace "},
	"csharp":     {"public ", "private ", "internal ", "class ", "interface ", "namespace ", "using "},
	"cs":         {"public ", "private ", "internal ", "class ", "interface ", "namespace ", "using "},
	"rust":       {"fn ", "pub ", "struct ", "enum ", "impl ", "trait ", "mod ", "use "},
	"ruby":       {"def ", "class ", "module ", "require "},
	"php":        {"function ", "class ", "interface ", "trait ", "namespace ", "use "},
	"kotlin":     {"fun ", "class ", "object ", "interface ", "val ", "var ", "import "},
	"swift":      {"func ", "class ", "struct ", "enum ", "protocol ", "extension ", "import "},
	"scala":      {"def ", "class ", "object ", "trait ", "import "},
	"sql":        {"select ", "insert ", "update ", "delete ", "create ", "alter ", "drop ", "with "},
	"bash":       {"function ", "if ", "for ", "while ", "case "},
	"sh":         {"function ", "if ", "for ", "while ", "case "},
	"shell":      {"function ", "if ", "for ", "while ", "case "},
}

// codeSplitter splits code on declaration boundaries for a single language.
// The zero language means "auto": the grammar is guessed per Split call from
// the content itself.
type codeSplitter struct {
	language  string
	chunkSize int
}

// newCodeSplitter builds a splitter for a declared language, or "auto" when
// the fence carried no info string. Unknown languages fail construction.
func newCodeSplitter(language string, chunkSize int) (*codeSplitter, error) {
	lang := language
	if lang == "" {
		lang = "auto"
	}
	if lang != "auto" {
		if _, ok := codeBoundaries[strings.ToLower(lang)]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
		}
	}
	return &codeSplitter{language: lang, chunkSize: chunkSize}, nil
}

func (c *codeSplitter) Split(content string) ([]string, error) {
	lang := c.language
	if lang == "auto" {
		lang = detectLanguage(content)
	}
	prefixes := codeBoundaries[strings.ToLower(lang)]

	segments := segmentCode(content, prefixes, strings.EqualFold(lang, "sql"))
	return mergeSegments(segments, c.chunkSize), nil
}

// detectLanguage guesses a grammar by counting boundary-prefix hits per
// language, with a lexicographic tie-break for determinism. An unguessable
// snippet returns "", which segments on blank lines only.
func detectLanguage(content string) string {
	lines := strings.Split(content, "\n")
	best := ""
	bestHits := 0
	for lang, prefixes := range codeBoundaries {
		hits := 0
		for _, line := range lines {
			for _, p := range prefixes {
				if strings.HasPrefix(line, p) {
					hits++
					break
				}
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && lang < best) {
			best = lang
			bestHits = hits
		}
	}
	return best
}

// segmentCode cuts content at top-level boundary lines. Consecutive blank
// lines also end a segment so boundary-free code still gets cut points.
func segmentCode(content string, prefixes []string, foldCase bool) []string {
	lines := strings.Split(content, "\n")
	var segments []string
	var cur []string

	flush := func() {
		if len(cur) > 0 {
			segments = append(segments, strings.Join(cur, "\n"))
			cur = nil
		}
	}

	blank := false
	for _, line := range lines {
		probe := line
		if foldCase {
			probe = strings.ToLower(line)
		}
		if isBoundaryLine(probe, prefixes) || (blank && strings.TrimSpace(line) != "") {
			flush()
		}
		blank = strings.TrimSpace(line) == ""
		cur = append(cur, line)
	}
	flush()

	return segments
}

func isBoundaryLine(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// mergeSegments greedily packs segments up to chunkSize runes. A single
// segment larger than chunkSize is emitted whole; code is never cut inside a
// declaration.
func mergeSegments(segments []string, chunkSize int) []string {
	var pieces []string
	var cur strings.Builder
	curLen := 0

	for _, seg := range segments {
		segLen := utf8.RuneCountInString(seg)
		if curLen > 0 && curLen+segLen+1 > chunkSize {
			pieces = append(pieces, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte('\n')
			curLen++
		}
		cur.WriteString(seg)
		curLen += segLen
	}
	if curLen > 0 {
		pieces = append(pieces, cur.String())
	}

	return pieces
}
