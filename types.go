package hfit

import "fmt"

// Mode selects how a semantic block is rendered for translation.
type Mode string

const (
	// ModeFlattened joins a block's text into one string and discards markup.
	// The translation is shown as muted plain text.
	ModeFlattened Mode = "simple"
	// ModeStructured translates every text leaf separately and keeps the
	// tags found on the way from the block's common ancestor to each leaf.
	ModeStructured Mode = "advanced"
)

// ParseMode converts a user supplied mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "simple", "flattened":
		return ModeFlattened, nil
	case "advanced", "structured":
		return ModeStructured, nil
	}
	return "", fmt.Errorf("unknown mode %q (want simple or advanced)", s)
}

// TranslationStyle controls the tone and formality of translations.
type TranslationStyle string

const (
	// StyleFormal uses formal, professional language suitable for official documents.
	StyleFormal TranslationStyle = "formal"
	// StyleNeutral uses a neutral, professional tone suitable for general content.
	StyleNeutral TranslationStyle = "neutral"
	// StyleCasual uses casual, conversational language suitable for blogs/social media.
	StyleCasual TranslationStyle = "casual"
	// StyleTechnical uses precise, technical language for documentation.
	StyleTechnical TranslationStyle = "technical"
)

// Segment is one payload string submitted to the translation backend.
//
// Segments are ephemeral: a processor recomputes them on every run and the
// position of a segment in the batch is the only key that ties it back to
// its block.
type Segment struct {
	Index     int    // Position in the document-wide batch
	Text      string // Plain text submitted for translation
	Hash      string // HashText(Text)
	Paragraph int    // Index of the owning paragraph
	Block     int    // Index of the block inside the paragraph
	Context   string // Disambiguation hint for context-aware backends
}

// ExtractOptions carries per-run values from the Translator to a processor.
type ExtractOptions struct {
	TargetLang string // Written to the wrapper's lang attribute
	SessionID  string // Session-scope marker value
}

// ExtractStats describes what a processor found in a document.
type ExtractStats struct {
	Paragraphs int // Paragraphs found by segmentation
	Blocks     int // Semantic blocks extracted
	Dropped    int // Blocks dropped because no common ancestor existed
}

// ProcessedContent is the result of a translation run.
type ProcessedContent struct {
	Content         string // Bilingual document
	TotalSegments   int    // Payload strings submitted
	TranslatedCount int    // Strings answered by the backend
	CachedCount     int    // Strings answered by the cache
	Paragraphs      int    // Paragraphs found
	Blocks          int    // Semantic blocks wrapped
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
