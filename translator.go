package hfit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Translator runs documents through a content processor and a translation
// backend. Each run submits the whole document in one batch.
type Translator struct {
	targetLang    string
	sourceLang    string
	provider      AIProvider
	cache         TranslationCache
	excludedTerms []string
	context       string
	glossary      map[string]string
	style         TranslationStyle
	sessionID     string
	logger        zerolog.Logger
	processors    map[string]ContentProcessor
}

// AIProvider is the interface for translation backends.
type AIProvider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// BatchTranslator translates an ordered list of plain strings. The result
// has the same length and order as the input. Implementations never fail:
// positions that could not be translated echo their input.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, texts []string) []string
}

// TranslateRequest contains the parameters for a translation request.
type TranslateRequest struct {
	Texts         []string
	TargetLang    string
	SourceLang    string
	ExcludedTerms []string
	Context       string
	TextContexts  []string
	Glossary      map[string]string
	Style         TranslationStyle
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// ParsedContent is a processor's parsed document, held between Extract and
// Apply.
type ParsedContent interface {
	Stats() ExtractStats
}

// ContentProcessor splits content into segments and writes translations
// back.
type ContentProcessor interface {
	Extract(content string, opts ExtractOptions) (ParsedContent, []Segment, error)
	Apply(parsed ParsedContent, translations []string) (string, error)
	ContentType() string
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithSourceLang sets the source language.
func WithSourceLang(lang string) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithExcludedTerms sets terms that should not be translated.
func WithExcludedTerms(terms []string) TranslatorOption {
	return func(t *Translator) {
		t.excludedTerms = terms
	}
}

// WithContext sets the global translation context.
func WithContext(ctx string) TranslatorOption {
	return func(t *Translator) {
		t.context = ctx
	}
}

// WithGlossary sets preferred translations for specific phrases.
func WithGlossary(glossary map[string]string) TranslatorOption {
	return func(t *Translator) {
		t.glossary = glossary
	}
}

// WithStyle sets the translation style/register.
func WithStyle(style TranslationStyle) TranslatorOption {
	return func(t *Translator) {
		t.style = style
	}
}

// WithSessionID fixes the session marker written into documents. By default
// a random UUID is generated per Translator.
func WithSessionID(id string) TranslatorOption {
	return func(t *Translator) {
		t.sessionID = id
	}
}

// WithLogger sets the logger used for degraded translations.
func WithLogger(logger zerolog.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// WithProcessor registers a content processor.
func WithProcessor(processor ContentProcessor) TranslatorOption {
	return func(t *Translator) {
		t.processors[processor.ContentType()] = processor
	}
}

// NewTranslator creates a new Translator with the given target language and provider.
func NewTranslator(targetLang string, provider AIProvider, opts ...TranslatorOption) *Translator {
	t := &Translator{
		targetLang: targetLang,
		sourceLang: "en",
		provider:   provider,
		style:      StyleNeutral,
		logger:     log.Logger,
		processors: make(map[string]ContentProcessor),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.sessionID == "" {
		t.sessionID = uuid.NewString()
	}

	return t
}

// Process translates content of the specified type.
func (t *Translator) Process(ctx context.Context, content string, contentType string) (*ProcessedContent, error) {
	if t.IsSourceLang() {
		return &ProcessedContent{Content: content}, nil
	}

	processor, ok := t.processors[contentType]
	if !ok {
		return nil, &ProcessorError{
			Message:     "no processor registered for content type",
			ContentType: contentType,
		}
	}

	parsed, segments, err := processor.Extract(content, ExtractOptions{
		TargetLang: t.targetLang,
		SessionID:  t.sessionID,
	})
	if err != nil {
		return nil, err
	}

	// One batch per document. An empty batch is not sent.
	var translations []string
	var batch batchResult
	if len(segments) > 0 {
		texts := make([]string, len(segments))
		contexts := make([]string, len(segments))
		for i, s := range segments {
			texts[i] = s.Text
			contexts[i] = s.Context
		}
		batch = t.translateBatch(ctx, texts, contexts)
		translations = batch.translations
	}

	result, err := processor.Apply(parsed, translations)
	if err != nil {
		return nil, err
	}

	stats := parsed.Stats()
	return &ProcessedContent{
		Content:         result,
		TotalSegments:   len(segments),
		TranslatedCount: batch.translated,
		CachedCount:     batch.cached,
		Paragraphs:      stats.Paragraphs,
		Blocks:          stats.Blocks,
	}, nil
}

// ProcessHTML is a convenience method for processing HTML content.
func (t *Translator) ProcessHTML(ctx context.Context, html string) (*ProcessedContent, error) {
	return t.Process(ctx, html, "html")
}

// TranslateBatch implements BatchTranslator.
func (t *Translator) TranslateBatch(ctx context.Context, texts []string) []string {
	return t.translateBatch(ctx, texts, nil).translations
}

type batchResult struct {
	translations []string
	cached       int
	translated   int
}

// translateBatch serves texts from the cache and sends the remaining unique
// texts to the provider in a single call. Provider failures degrade to the
// source text.
func (t *Translator) translateBatch(ctx context.Context, texts, contexts []string) batchResult {
	res := batchResult{translations: make([]string, len(texts))}
	byHash := make(map[string]string)
	hashes := make([]string, len(texts))

	var missTexts, missContexts, missHashes []string
	seen := make(map[string]bool)

	for i, text := range texts {
		hash := HashText(text)
		hashes[i] = hash

		if t.cache != nil {
			if cached, ok := t.cache.Get(CacheKey(hash, t.targetLang)); ok {
				byHash[hash] = cached
				res.cached++
				continue
			}
		}

		if !seen[hash] {
			seen[hash] = true
			missTexts = append(missTexts, text)
			missHashes = append(missHashes, hash)
			if i < len(contexts) {
				missContexts = append(missContexts, contexts[i])
			} else {
				missContexts = append(missContexts, "")
			}
		}
	}

	if len(missTexts) > 0 {
		results := t.callProvider(ctx, missTexts, missContexts)
		for i, hash := range missHashes {
			byHash[hash] = results[i]
			if results[i] == missTexts[i] {
				continue
			}
			res.translated++
			if t.cache != nil {
				if err := t.cache.Set(CacheKey(hash, t.targetLang), results[i]); err != nil {
					t.logger.Warn().Err(err).Msg("Failed to store translation in cache")
				}
			}
		}
	}

	for i, hash := range hashes {
		if v, ok := byHash[hash]; ok {
			res.translations[i] = v
		} else {
			res.translations[i] = texts[i]
		}
	}
	return res
}

// callProvider returns exactly len(texts) strings whatever the provider
// does.
func (t *Translator) callProvider(ctx context.Context, texts, contexts []string) []string {
	out := make([]string, len(texts))
	copy(out, texts)

	if t.provider == nil {
		return out
	}

	results, err := t.provider.Translate(ctx, TranslateRequest{
		Texts:         texts,
		TargetLang:    t.targetLang,
		SourceLang:    t.sourceLang,
		ExcludedTerms: t.excludedTerms,
		Context:       t.context,
		TextContexts:  contexts,
		Glossary:      t.glossary,
		Style:         t.style,
	})
	if err != nil {
		t.logger.Warn().
			Err(err).
			Int("texts", len(texts)).
			Msg("Translation provider failed, keeping source text")
		return out
	}

	if len(results) != len(texts) {
		t.logger.Warn().
			Err(&CountMismatchError{Expected: len(texts), Got: len(results)}).
			Msg("Translation provider returned a partial batch")
	}
	for i := range out {
		if i < len(results) {
			out[i] = results[i]
		}
	}
	return out
}

// SessionID returns the session marker written into documents.
func (t *Translator) SessionID() string {
	return t.sessionID
}

// TargetLang returns the target language.
func (t *Translator) TargetLang() string {
	return t.targetLang
}

// SourceLang returns the source language.
func (t *Translator) SourceLang() string {
	return t.sourceLang
}

// IsSourceLang reports whether target and source share a base language, in
// which case documents are returned untouched.
func (t *Translator) IsSourceLang() bool {
	return BaseLanguage(t.targetLang) == BaseLanguage(t.sourceLang)
}

// IsRTL returns true if the target language uses right-to-left text direction.
func (t *Translator) IsRTL() bool {
	return IsRTL(t.targetLang)
}

// Glossary returns the glossary of preferred translations.
func (t *Translator) Glossary() map[string]string {
	return t.glossary
}

// Style returns the translation style.
func (t *Translator) Style() TranslationStyle {
	return t.style
}

// Context returns the global translation context.
func (t *Translator) Context() string {
	return t.context
}

// ExcludedTerms returns the list of excluded terms.
func (t *Translator) ExcludedTerms() []string {
	return t.excludedTerms
}

// Verify Translator implements BatchTranslator
var _ BatchTranslator = (*Translator)(nil)
