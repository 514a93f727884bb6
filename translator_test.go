package hfit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	translations map[string]string
	err          error
	drop         int
	extra        int

	calls   int
	lastReq TranslateRequest
}

func (p *stubProvider) Translate(_ context.Context, req TranslateRequest) ([]string, error) {
	p.calls++
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	out := make([]string, 0, len(req.Texts)+p.extra)
	for _, text := range req.Texts {
		if v, ok := p.translations[text]; ok {
			out = append(out, v)
		} else {
			out = append(out, "["+text+"]")
		}
	}
	for i := 0; i < p.extra; i++ {
		out = append(out, "extra")
	}
	return out[:len(out)-p.drop], nil
}

type mapCache struct {
	mu     sync.Mutex
	data   map[string]string
	setErr error
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]string)}
}

func (c *mapCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(key, value string) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

// lineDoc and lineProcessor treat every non-blank line as one segment.
type lineDoc struct {
	lines []string
	idx   []int
}

func (d *lineDoc) Stats() ExtractStats {
	return ExtractStats{Paragraphs: len(d.idx), Blocks: len(d.idx)}
}

type lineProcessor struct {
	lastOpts ExtractOptions
}

func (p *lineProcessor) Extract(content string, opts ExtractOptions) (ParsedContent, []Segment, error) {
	p.lastOpts = opts
	d := &lineDoc{lines: strings.Split(content, "\n")}
	var segs []Segment
	for i, line := range d.lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		d.idx = append(d.idx, i)
		segs = append(segs, Segment{
			Index:     len(segs),
			Text:      line,
			Hash:      HashText(line),
			Paragraph: len(segs),
			Context:   "line",
		})
	}
	return d, segs, nil
}

func (p *lineProcessor) Apply(parsed ParsedContent, translations []string) (string, error) {
	d := parsed.(*lineDoc)
	out := append([]string(nil), d.lines...)
	for i, li := range d.idx {
		out[li] = d.lines[li] + " | " + translations[i]
	}
	return strings.Join(out, "\n"), nil
}

func (p *lineProcessor) ContentType() string { return "lines" }

func newLineTranslator(p AIProvider, opts ...TranslatorOption) *Translator {
	opts = append([]TranslatorOption{
		WithProcessor(&lineProcessor{}),
		WithLogger(zerolog.Nop()),
	}, opts...)
	return NewTranslator("es_ES", p, opts...)
}

func TestTranslator_OneCallWithUniqueTexts(t *testing.T) {
	p := &stubProvider{translations: map[string]string{"Hello": "Hola", "World": "Mundo"}}
	tr := newLineTranslator(p)

	res, err := tr.Process(context.Background(), "Hello\nWorld\n  Hello  ", "lines")
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, []string{"Hello", "World"}, p.lastReq.Texts)
	assert.Equal(t, []string{"line", "line"}, p.lastReq.TextContexts)
	assert.Equal(t, "Hello | Hola\nWorld | Mundo\n  Hello   | Hola", res.Content)
	assert.Equal(t, 3, res.TotalSegments)
	assert.Equal(t, 2, res.TranslatedCount)
	assert.Equal(t, 3, res.Paragraphs)
}

func TestTranslator_RequestOptions(t *testing.T) {
	p := &stubProvider{}
	glossary := map[string]string{"API": "API"}
	tr := newLineTranslator(p,
		WithSourceLang("en_US"),
		WithExcludedTerms([]string{"Go"}),
		WithContext("docs"),
		WithGlossary(glossary),
		WithStyle(StyleTechnical),
	)

	_, err := tr.Process(context.Background(), "text", "lines")
	require.NoError(t, err)

	req := p.lastReq
	assert.Equal(t, "es_ES", req.TargetLang)
	assert.Equal(t, "en_US", req.SourceLang)
	assert.Equal(t, []string{"Go"}, req.ExcludedTerms)
	assert.Equal(t, "docs", req.Context)
	assert.Equal(t, glossary, req.Glossary)
	assert.Equal(t, StyleTechnical, req.Style)

	assert.Equal(t, glossary, tr.Glossary())
	assert.Equal(t, StyleTechnical, tr.Style())
	assert.Equal(t, "docs", tr.Context())
	assert.Equal(t, []string{"Go"}, tr.ExcludedTerms())
	assert.Equal(t, "en_US", tr.SourceLang())
	assert.Equal(t, "es_ES", tr.TargetLang())
}

func TestTranslator_Cache(t *testing.T) {
	c := newMapCache()
	c.data[CacheKey(HashText("Hello"), "es_ES")] = "Hola (cached)"
	p := &stubProvider{translations: map[string]string{"World": "Mundo"}}
	tr := newLineTranslator(p, WithCache(c))

	res, err := tr.Process(context.Background(), "Hello\nWorld", "lines")
	require.NoError(t, err)

	assert.Equal(t, []string{"World"}, p.lastReq.Texts)
	assert.Equal(t, 1, res.CachedCount)
	assert.Equal(t, 1, res.TranslatedCount)
	assert.Equal(t, "Mundo", c.data[CacheKey(HashText("World"), "es-ES")])

	// Everything is cached now, so the backend is not called again.
	res, err = tr.Process(context.Background(), "Hello\nWorld", "lines")
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 2, res.CachedCount)
}

func TestTranslator_EchoesAreNotCached(t *testing.T) {
	c := newMapCache()
	p := &stubProvider{translations: map[string]string{"Brand": "Brand"}}
	tr := newLineTranslator(p, WithCache(c))

	res, err := tr.Process(context.Background(), "Brand", "lines")
	require.NoError(t, err)
	assert.Zero(t, res.TranslatedCount)
	assert.Empty(t, c.data)
}

func TestTranslator_CacheWriteFailureIsNotFatal(t *testing.T) {
	c := newMapCache()
	c.setErr = errors.New("disk full")
	tr := newLineTranslator(&stubProvider{}, WithCache(c))

	res, err := tr.Process(context.Background(), "x", "lines")
	require.NoError(t, err)
	assert.Equal(t, "x | [x]", res.Content)
}

func TestTranslator_ProviderFailureEchoes(t *testing.T) {
	p := &stubProvider{err: &ProviderError{Message: "down"}}
	tr := newLineTranslator(p)

	res, err := tr.Process(context.Background(), "one\ntwo", "lines")
	require.NoError(t, err)
	assert.Equal(t, "one | one\ntwo | two", res.Content)
	assert.Zero(t, res.TranslatedCount)
}

func TestTranslator_ShortAndLongResults(t *testing.T) {
	short := newLineTranslator(&stubProvider{drop: 1})
	res, err := short.Process(context.Background(), "a\nb\nc", "lines")
	require.NoError(t, err)
	assert.Equal(t, "a | [a]\nb | [b]\nc | c", res.Content)

	long := newLineTranslator(&stubProvider{extra: 2})
	res, err = long.Process(context.Background(), "a\nb", "lines")
	require.NoError(t, err)
	assert.Equal(t, "a | [a]\nb | [b]", res.Content)
}

func TestTranslator_EmptyBatchSkipsProvider(t *testing.T) {
	p := &stubProvider{}
	tr := newLineTranslator(p)

	res, err := tr.Process(context.Background(), "\n  \n", "lines")
	require.NoError(t, err)
	assert.Zero(t, p.calls)
	assert.Zero(t, res.TotalSegments)
}

func TestTranslator_SameLanguageIsUntouched(t *testing.T) {
	p := &stubProvider{}
	tr := NewTranslator("en_GB", p, WithSourceLang("en"), WithProcessor(&lineProcessor{}))

	assert.True(t, tr.IsSourceLang())
	res, err := tr.Process(context.Background(), "Hello", "lines")
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Content)
	assert.Zero(t, p.calls)
}

func TestTranslator_UnknownContentType(t *testing.T) {
	tr := newLineTranslator(&stubProvider{})

	_, err := tr.ProcessHTML(context.Background(), "<p>x</p>")
	var perr *ProcessorError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "html", perr.ContentType)
}

func TestTranslator_SessionID(t *testing.T) {
	proc := &lineProcessor{}
	tr := NewTranslator("fr", &stubProvider{}, WithProcessor(proc))
	assert.Len(t, tr.SessionID(), 36)
	assert.NotEqual(t, tr.SessionID(), NewTranslator("fr", nil).SessionID())

	tr = NewTranslator("fr", &stubProvider{}, WithProcessor(proc), WithSessionID("fixed"))
	_, err := tr.Process(context.Background(), "x", "lines")
	require.NoError(t, err)
	assert.Equal(t, ExtractOptions{TargetLang: "fr", SessionID: "fixed"}, proc.lastOpts)
}

func TestTranslator_TranslateBatch(t *testing.T) {
	p := &stubProvider{translations: map[string]string{"a": "A"}}
	tr := newLineTranslator(p)

	out := tr.TranslateBatch(context.Background(), []string{"a", "b", "a"})
	assert.Equal(t, []string{"A", "[b]", "A"}, out)
	assert.Equal(t, []string{"a", "b"}, p.lastReq.Texts)
}

func TestTranslator_NilProvider(t *testing.T) {
	tr := newLineTranslator(nil)
	assert.Equal(t, []string{"x"}, tr.TranslateBatch(context.Background(), []string{"x"}))
}

func TestTranslator_IsRTL(t *testing.T) {
	assert.True(t, NewTranslator("ar", nil).IsRTL())
	assert.False(t, NewTranslator("fr", nil).IsRTL())
}
