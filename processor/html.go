package processor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ZaguanLabs/hfit"
)

// HTMLProcessor segments an HTML document, prepares every semantic block
// for translation and writes the translations back.
type HTMLProcessor struct {
	mode   hfit.Mode
	logger zerolog.Logger
}

// Option configures an HTMLProcessor.
type Option func(*HTMLProcessor)

// WithMode selects flattened or structure-preserving rendering.
func WithMode(mode hfit.Mode) Option {
	return func(p *HTMLProcessor) {
		p.mode = mode
	}
}

// WithLogger sets the logger for non-fatal extraction and write-back events.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *HTMLProcessor) {
		p.logger = logger
	}
}

// NewHTMLProcessor creates an HTML processor. The default mode is
// flattened.
func NewHTMLProcessor(opts ...Option) *HTMLProcessor {
	p := &HTMLProcessor{
		mode:   hfit.ModeFlattened,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode returns the rendering mode.
func (p *HTMLProcessor) Mode() hfit.Mode {
	return p.mode
}

// Document is a parsed document with its pending write-back actions.
type Document struct {
	doc        *goquery.Document
	opts       hfit.ExtractOptions
	paragraphs []*html.Node
	pending    []*writeBack
	segments   int
	stats      hfit.ExtractStats
}

// Stats reports what extraction found.
func (d *Document) Stats() hfit.ExtractStats {
	return d.stats
}

// writeBack binds a block's rendering to its position in the batch.
type writeBack struct {
	paragraph *html.Node
	block     *Block
	rendering Rendering
	offset    int
	count     int
}

// Extract parses content, segments it and renders every block. No
// translation happens here: the returned segments are the document's whole
// batch, in paragraph, block and leaf order.
func (p *HTMLProcessor) Extract(content string, opts hfit.ExtractOptions) (hfit.ParsedContent, []hfit.Segment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil, &hfit.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: "html",
		}
	}

	d := &Document{doc: doc, opts: opts}
	root := prepareDocument(doc, opts.SessionID)

	d.paragraphs = FindParagraphs(root, opts.SessionID)
	d.stats.Paragraphs = len(d.paragraphs)

	paragraphs := NewParagraphSet(d.paragraphs)
	markers := make(MarkerRegistry)
	var segments []hfit.Segment

	for pi, para := range d.paragraphs {
		// Wrappers from a previous run go before extraction sees the
		// paragraph, so re-runs never stack translations.
		purgeWrappers(doc, para)

		blocks, dropped := ExtractBlocks(para, paragraphs, markers, p.logger)
		d.stats.Dropped += dropped

		for bi, b := range blocks {
			r := Render(p.mode, b)
			payloads := r.Payloads()
			if len(payloads) == 0 {
				continue
			}
			d.pending = append(d.pending, &writeBack{
				paragraph: para,
				block:     b,
				rendering: r,
				offset:    len(segments),
				count:     len(payloads),
			})
			context := describeBlock(b)
			for _, text := range payloads {
				segments = append(segments, hfit.Segment{
					Index:     len(segments),
					Text:      text,
					Hash:      hfit.HashText(text),
					Paragraph: pi,
					Block:     bi,
					Context:   context,
				})
			}
		}
	}

	d.stats.Blocks = len(d.pending)
	d.segments = len(segments)

	p.logger.Debug().
		Int("paragraphs", d.stats.Paragraphs).
		Int("blocks", d.stats.Blocks).
		Int("segments", len(segments)).
		Str("mode", string(p.mode)).
		Msg("Extracted document")

	return d, segments, nil
}

// Apply inserts one wrapper per block, marks every paragraph as processed
// and serializes the document. translations is indexed like the segments
// returned by Extract; missing positions fall back to the source text.
func (p *HTMLProcessor) Apply(parsed hfit.ParsedContent, translations []string) (string, error) {
	d, ok := parsed.(*Document)
	if !ok {
		return "", &hfit.ProcessorError{
			Message:     "invalid parsed content type",
			ContentType: "html",
		}
	}

	if len(translations) != d.segments {
		p.logger.Warn().
			Int("expected", d.segments).
			Int("got", len(translations)).
			Msg("Translation count mismatch, missing positions keep the source text")
	}

	dir := hfit.GetDirection(d.opts.TargetLang)
	lang := hfit.ToHTMLLang(d.opts.TargetLang)

	for _, wb := range d.pending {
		results := blockTranslations(wb, translations)
		wrapper, err := NewWrapper(lang, dir, wb.rendering.Muted(), wb.rendering.Content(results))
		if err != nil {
			return "", &hfit.ProcessorError{
				Message:     "failed to build translation wrapper",
				Cause:       err,
				ContentType: "html",
			}
		}

		marker := wb.block.EndMarker
		if marker != nil && marker.Parent != nil {
			marker.Parent.InsertBefore(wrapper, marker)
			continue
		}
		p.logger.Warn().
			Str("paragraph", wb.paragraph.Data).
			Msg("Block end marker missing, appending translation to paragraph")
		wb.paragraph.AppendChild(wrapper)
	}

	for _, para := range d.paragraphs {
		setAttr(para, AttrParagraph, "1")
	}

	out, err := d.doc.Html()
	if err != nil {
		return "", &hfit.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: "html",
		}
	}
	return out, nil
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return "html"
}

// blockTranslations slices the block's results out of the batch, filling
// gaps with the block's own payloads.
func blockTranslations(wb *writeBack, translations []string) []string {
	payloads := wb.rendering.Payloads()
	out := make([]string, wb.count)
	for i := range out {
		if j := wb.offset + i; j < len(translations) {
			out[i] = translations[j]
		} else {
			out[i] = payloads[i]
		}
	}
	return out
}

// prepareDocument applies the document-level augmentations and returns the
// segmentation root: the body, or the document node when there is none.
func prepareDocument(doc *goquery.Document, sessionID string) *html.Node {
	htmlSel := doc.Find("html").First()
	htmlSel.SetAttr(AttrState, "dual")

	head := doc.Find("head").First()
	if head.Length() == 0 && htmlSel.Length() > 0 {
		h := &html.Node{Type: html.ElementNode, DataAtom: atom.Head, Data: "head"}
		root := htmlSel.Nodes[0]
		root.InsertBefore(h, root.FirstChild)
		head = doc.FindNodes(h)
	}
	if head.Length() > 0 {
		injectStyles(doc, head.Nodes[0])
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return doc.Nodes[0]
	}
	body.SetAttr(AttrWalked, sessionID)
	return body.Nodes[0]
}

// injectStyles appends the style blocks that are not present yet.
func injectStyles(doc *goquery.Document, head *html.Node) {
	for _, s := range injectedStyles {
		if doc.Find(fmt.Sprintf(`style[data-id=%q]`, s.id)).Length() > 0 {
			continue
		}
		style := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Style,
			Data:     "style",
			Attr:     []html.Attribute{{Key: "data-id", Val: s.id}},
		}
		style.AppendChild(&html.Node{Type: html.TextNode, Data: s.css})
		head.AppendChild(style)
	}
}

// purgeWrappers removes every translation wrapper inside para.
func purgeWrappers(doc *goquery.Document, para *html.Node) {
	doc.FindNodes(para).Find("[" + AttrWrapperMark + "]").Remove()
}

// describeBlock creates a disambiguation hint from the block's position.
func describeBlock(b *Block) string {
	n := b.CommonAncestor
	if !isElement(n) {
		return ""
	}

	var parts []string
	if class, ok := getAttr(n, "class"); ok && class != "" {
		parts = append(parts, fmt.Sprintf("in <%s class=%q>", n.Data, class))
	} else if id, ok := getAttr(n, "id"); ok && id != "" {
		parts = append(parts, fmt.Sprintf("in <%s id=%q>", n.Data, id))
	} else {
		parts = append(parts, fmt.Sprintf("in <%s>", n.Data))
	}

	var ancestors []string
	for a := n.Parent; isElement(a) && len(ancestors) < 3; a = a.Parent {
		if a.DataAtom == atom.Html || a.DataAtom == atom.Body {
			break
		}
		ancestors = append([]string{a.Data}, ancestors...)
	}
	if len(ancestors) > 0 {
		parts = append(parts, "inside: "+strings.Join(ancestors, " > "))
	}
	return strings.Join(parts, " | ")
}

// Verify HTMLProcessor implements ContentProcessor
var _ ContentProcessor = (*HTMLProcessor)(nil)
