package chunker

// DefaultChunkSize is the target maximum chunk size when none is configured.
// The counting unit is splitter-defined: runes for prose and tables, with code
// allowed to overflow for a single indivisible segment.
const DefaultChunkSize = 2048

// Options configures one chunking invocation.
type Options struct {
	ChunkSize    int
	LanguageCode string // ISO-ish code; ignored unless in the supported set
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	return o
}

// supportedLanguages gates locale-specific prose splitting rules. Codes outside
// this set fall back to the language-agnostic rules.
var supportedLanguages = map[string]bool{
	"af": true, "am": true, "ar": true, "bg": true, "bn": true,
	"ca": true, "cs": true, "cy": true, "da": true, "de": true,
	"en": true, "es": true, "et": true, "fa": true, "fi": true,
	"fr": true, "ga": true, "gl": true, "he": true, "hi": true,
	"hr": true, "hu": true, "id": true, "is": true, "it": true,
	"jp": true, "kr": true, "lt": true, "lv": true, "mk": true,
	"ms": true, "mt": true, "ne": true, "nl": true, "no": true,
	"pl": true, "pt": true, "pt-BR": true, "ro": true, "ru": true,
	"sk": true, "sl": true, "sr": true, "sv": true, "sw": true,
	"ta": true, "te": true, "th": true, "tl": true, "tr": true,
	"uk": true, "ur": true, "vi": true, "zh": true, "zu": true,
}

// IsSupportedLanguage reports whether locale-specific prose rules exist for a
// language code.
func IsSupportedLanguage(code string) bool {
	return supportedLanguages[code]
}

// separatorsFor builds the recursive splitting hierarchy for a language:
// paragraph, then line, then sentence, then word, then rune boundaries. The
// sentence delimiters vary by script family.
func separatorsFor(lang string) []string {
	if !supportedLanguages[lang] {
		return defaultSeparators()
	}
	switch lang {
	case "zh", "jp":
		return []string{"\n\n", "\n", "。", "．", "！", "？", "；", "，", " ", ""}
	case "kr":
		return []string{"\n\n", "\n", ". ", "! ", "? ", "。", " ", ""}
	case "th":
		return []string{"\n\n", "\n", " ", ""}
	case "ar", "fa", "ur":
		return []string{"\n\n", "\n", "۔", "؟", ". ", "، ", "؛ ", " ", ""}
	case "hi", "bn", "ne", "mk":
		return []string{"\n\n", "\n", "। ", "।", ". ", "! ", "? ", " ", ""}
	case "ta", "te":
		return []string{"\n\n", "\n", ". ", "! ", "? ", "। ", " ", ""}
	case "am":
		return []string{"\n\n", "\n", "። ", "።", "፣ ", " ", ""}
	case "he":
		return []string{"\n\n", "\n", ". ", "! ", "? ", "; ", " ", ""}
	default:
		// Latin and Cyrillic scripts share the default sentence delimiters.
		return defaultSeparators()
	}
}

// defaultSeparators is the language-agnostic rule hierarchy.
func defaultSeparators() []string {
	return []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " ", ""}
}

// plainSeparators carries no sentence-level rules. It is used when code blocks
// with unrecognized grammars are re-split as plain text.
func plainSeparators() []string {
	return []string{"\n\n", "\n", " ", ""}
}
