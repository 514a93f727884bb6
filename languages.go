package hfit

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// parseLang parses a locale in either "es_ES" or "es-ES" form.
func parseLang(code string) (language.Tag, bool) {
	tag, err := language.Parse(ToHTMLLang(strings.TrimSpace(code)))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// BaseLanguage returns the lowercase primary subtag of a locale
// ("zh" for "zh_CN"). Unparseable codes are lowercased up to the first
// separator.
func BaseLanguage(code string) string {
	if tag, ok := parseLang(code); ok {
		base, _ := tag.Base()
		return base.String()
	}
	code = strings.ToLower(code)
	if i := strings.IndexAny(code, "_-"); i >= 0 {
		code = code[:i]
	}
	return code
}

// GetLanguageName returns the English name for a language code, e.g.
// "Spanish (Spain)" for "es_ES". Falls back to the code itself if not found.
func GetLanguageName(code string) string {
	tag, ok := parseLang(code)
	if !ok {
		return code
	}
	base, conf := tag.Base()
	if conf == language.No {
		return code
	}
	name := display.English.Languages().Name(base)
	if name == "" {
		return code
	}
	if region, conf := tag.Region(); conf == language.Exact {
		if rn := display.English.Regions().Name(region); rn != "" {
			name += " (" + rn + ")"
		}
	}
	return name
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(code string) string {
	if RTLLanguages[BaseLanguage(code)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(code string) bool {
	return GetDirection(code) == "rtl"
}

// NormalizeLocale converts a language code to the underscore format
// (e.g., "es-ES" → "es_ES").
func NormalizeLocale(code string) string {
	return strings.ReplaceAll(code, "-", "_")
}

// ToHTMLLang converts a locale code to the lang attribute format
// (e.g., "es_ES" → "es-ES").
func ToHTMLLang(code string) string {
	return strings.ReplaceAll(code, "_", "-")
}

// GetStyleDescription returns the prompt fragment for a translation style.
func GetStyleDescription(style TranslationStyle) string {
	switch style {
	case StyleFormal:
		return "Use formal, professional language suitable for official documents."
	case StyleCasual:
		return "Use casual, conversational language."
	case StyleTechnical:
		return "Use precise, technical language and keep domain terminology intact."
	default:
		return "Use a neutral, natural tone."
	}
}
